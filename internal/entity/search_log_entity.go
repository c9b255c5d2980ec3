package entity

import (
	"time"

	"github.com/google/uuid"
)

type SearchLog struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Query       string
	Answer      string
	SourceCount int
	TokensUsed  int
	Degraded    bool
	DurationMs  int64
	CreatedAt   time.Time
}
