package service

import (
	"context"

	"docquery-be/internal/entity"
	"docquery-be/internal/repository/specification"
	"docquery-be/internal/repository/unitofwork"
	"docquery-be/pkg/retrieval"

	"github.com/google/uuid"
)

// corpusAccessor adapts the repository layer to the retrieval engine's
// read-only corpus interface.
type corpusAccessor struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCorpusAccessor(uowFactory unitofwork.RepositoryFactory) retrieval.CorpusAccessor {
	return &corpusAccessor{uowFactory: uowFactory}
}

func (a *corpusAccessor) EligibleChunks(ctx context.Context, userID uuid.UUID) ([]retrieval.Chunk, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.ChunkRepository().FindEligibleByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toRetrievalChunks(chunks), nil
}

func (a *corpusAccessor) SearchFullText(ctx context.Context, userID uuid.UUID, query string, limit int) ([]retrieval.Chunk, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.ChunkRepository().SearchFullText(ctx, userID, query, limit)
	if err != nil {
		return nil, err
	}
	return toRetrievalChunks(chunks), nil
}

func (a *corpusAccessor) DocumentCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().Count(ctx, specification.UserOwnedBy{UserID: userID})
}

func (a *corpusAccessor) Documents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]retrieval.DocumentMeta, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]retrieval.DocumentMeta{}, nil
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}

	metas := make(map[uuid.UUID]retrieval.DocumentMeta, len(documents))
	for _, d := range documents {
		metas[d.Id] = retrieval.DocumentMeta{
			ID:    d.Id,
			Title: d.Title,
			URL:   d.Url,
		}
	}
	return metas, nil
}

func toRetrievalChunks(chunks []*entity.DocumentChunk) []retrieval.Chunk {
	out := make([]retrieval.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = retrieval.Chunk{
			DocumentID:  c.DocumentId,
			ChunkIndex:  c.ChunkIndex,
			Content:     c.Content,
			PageNumber:  c.PageNumber,
			SectionPath: c.SectionPath,
			Embedding:   c.Embedding,
		}
	}
	return out
}
