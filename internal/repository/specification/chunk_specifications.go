package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByDocumentID filters chunks by their parent document
type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

// ChunksOwnedBy joins through documents to restrict chunks to one user's
// corpus. Soft-deleted documents are excluded explicitly because the join
// bypasses GORM's automatic scope on the documents table.
type ChunksOwnedBy struct {
	UserID uuid.UUID
}

func (s ChunksOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.user_id = ?", s.UserID).
		Where("documents.deleted_at IS NULL")
}
