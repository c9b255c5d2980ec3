package model

import (
	"time"

	"github.com/google/uuid"
)

// SearchLog records one completed search interaction, written asynchronously
// by the event consumer (never on the request path).
type SearchLog struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	Query       string    `gorm:"type:text;not null"`
	Answer      string    `gorm:"type:text"`
	SourceCount int       `gorm:"default:0"`
	TokensUsed  int       `gorm:"default:0"`
	Degraded    bool      `gorm:"default:false"` // sparse-only or keyword path was used
	DurationMs  int64     `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (SearchLog) TableName() string {
	return "search_logs"
}
