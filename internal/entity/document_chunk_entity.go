package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is the retrieval unit. PageNumber and Embedding are optional
// on purpose: presence must be checked, never assumed.
type DocumentChunk struct {
	Id          uuid.UUID
	DocumentId  uuid.UUID
	ChunkIndex  int
	Content     string
	PageNumber  *int
	SectionPath string
	Embedding   []float32 // nil when the chunk has no embedding
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
