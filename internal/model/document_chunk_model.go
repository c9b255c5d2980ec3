package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DocumentChunk rows are written by the ingestion pipeline and are read-only
// here. Embedding is nullable: chunks indexed before the embedding step ran
// (or whose provider call failed during ingestion) still serve lexical search.
type DocumentChunk struct {
	Id          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId  uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_document_chunk"`
	ChunkIndex  int              `gorm:"not null;uniqueIndex:idx_document_chunk"`
	Content     string           `gorm:"type:text;not null"`
	PageNumber  *int             `gorm:""`
	SectionPath string           `gorm:"type:text"`
	Embedding   *pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt   `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
