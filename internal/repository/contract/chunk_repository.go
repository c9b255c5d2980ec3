package contract

import (
	"context"

	"docquery-be/internal/entity"
	"docquery-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindEligibleByUser returns every live chunk of the user's documents,
	// embeddings included, ordered by (document_id, chunk_index).
	FindEligibleByUser(ctx context.Context, userId uuid.UUID) ([]*entity.DocumentChunk, error)
	// SearchFullText runs a websearch tsquery over chunk content and returns
	// rows in relevance order. No numeric score is exposed; the ranking
	// engine treats the result as an ordered black box.
	SearchFullText(ctx context.Context, userId uuid.UUID, query string, limit int) ([]*entity.DocumentChunk, error)
}
