package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docquery-be/internal/dto"
	"docquery-be/internal/pkg/logger"
	"docquery-be/internal/pkg/serverutils"
	"docquery-be/internal/repository/specification"
	"docquery-be/internal/repository/unitofwork"
	"docquery-be/pkg/retrieval"
	"docquery-be/pkg/retrieval/engine"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	emptyCorpusAnswer = "You don't have any documents yet. Upload a document to start asking questions about it."
	noMatchesAnswer   = "I couldn't find anything in your documents that matches this question. The answer may not be covered by your uploaded documents."
	noMatchesHint     = "Try rephrasing with more specific keywords that appear in your documents."
)

type ISearchService interface {
	Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error)
	History(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.SearchHistoryItem, error)
}

type searchService struct {
	engine           *engine.Engine
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	rdb              *redis.Client // nil when Redis is unavailable
	cacheTTL         time.Duration
	log              logger.ILogger
}

func NewSearchService(
	searchEngine *engine.Engine,
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	rdb *redis.Client,
	cacheTTL time.Duration,
	log logger.ILogger,
) ISearchService {
	return &searchService{
		engine:           searchEngine,
		uowFactory:       uowFactory,
		publisherService: publisherService,
		rdb:              rdb,
		cacheTTL:         cacheTTL,
		log:              log,
	}
}

// Ask runs the retrieval pipeline for one authenticated query.
func (s *searchService) Ask(ctx context.Context, userId uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error) {
	if cached := s.cachedAnswer(ctx, userId, req.Query); cached != nil {
		return cached, nil
	}

	started := time.Now()
	result, err := s.engine.Search(ctx, userId, req.Query)
	if err != nil {
		var corpusErr *retrieval.CorpusFetchError
		var synthErr *retrieval.SynthesisError
		switch {
		case errors.As(err, &corpusErr):
			return nil, serverutils.NewInternalError("Failed to load your documents", err)
		case errors.As(err, &synthErr):
			return nil, serverutils.NewInternalError("Failed to generate an answer", err)
		default:
			return nil, serverutils.NewInternalError("Search failed", err)
		}
	}

	response := s.toResponse(result)

	if result.Outcome == retrieval.OutcomeAnswered {
		s.publishCompleted(userId, req.Query, result, time.Since(started))
		s.storeAnswer(ctx, userId, req.Query, response)
	}

	return response, nil
}

func (s *searchService) toResponse(result *retrieval.Result) *dto.AskResponse {
	switch result.Outcome {
	case retrieval.OutcomeEmptyCorpus:
		return &dto.AskResponse{
			Answer:                 emptyCorpusAnswer,
			Sources:                []dto.SourceDTO{},
			TotalDocumentsSearched: 0,
		}
	case retrieval.OutcomeNoMatches:
		return &dto.AskResponse{
			Answer:                 noMatchesAnswer,
			Sources:                []dto.SourceDTO{},
			TotalDocumentsSearched: result.TotalDocumentsSearched,
			SearchSuggestion:       noMatchesHint,
		}
	}

	sources := make([]dto.SourceDTO, len(result.Sources))
	for i, src := range result.Sources {
		sources[i] = dto.SourceDTO{
			DocumentTitle: src.DocumentTitle,
			DocumentUrl:   src.DocumentURL,
			Excerpt:       src.Excerpt,
			PageNumber:    src.PageNumber,
			SectionPath:   src.SectionPath,
			Confidence:    src.Confidence,
			SearchMethod:  string(src.SearchMethod),
			Rank:          src.Rank,
		}
	}

	return &dto.AskResponse{
		Answer:                 result.Answer,
		Sources:                sources,
		TokensUsed:             result.TokensUsed,
		TotalDocumentsSearched: result.TotalDocumentsSearched,
	}
}

func (s *searchService) History(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.SearchHistoryItem, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	logs, err := uow.SearchLogRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, serverutils.NewInternalError("Failed to load search history", err)
	}

	items := make([]*dto.SearchHistoryItem, 0, len(logs))
	for _, l := range logs {
		items = append(items, &dto.SearchHistoryItem{
			Id:          l.Id,
			Query:       l.Query,
			Answer:      l.Answer,
			SourceCount: l.SourceCount,
			CreatedAt:   l.CreatedAt,
		})
	}
	return items, nil
}

func (s *searchService) publishCompleted(userId uuid.UUID, query string, result *retrieval.Result, elapsed time.Duration) {
	err := s.publisherService.PublishSearchCompleted(dto.SearchCompletedMessage{
		UserId:      userId,
		Query:       query,
		Answer:      result.Answer,
		SourceCount: len(result.Sources),
		TokensUsed:  result.TokensUsed,
		Degraded:    result.Degraded,
		DurationMs:  elapsed.Milliseconds(),
	})
	if err != nil {
		s.log.Warn("search", "Failed to publish search completed event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// cachedAnswer / storeAnswer fail open: Redis being down never affects the
// request outcome.

func (s *searchService) cachedAnswer(ctx context.Context, userId uuid.UUID, query string) *dto.AskResponse {
	if s.rdb == nil {
		return nil
	}

	data, err := s.rdb.Get(ctx, answerCacheKey(userId, query)).Bytes()
	if err != nil {
		return nil
	}
	var response dto.AskResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil
	}
	return &response
}

func (s *searchService) storeAnswer(ctx context.Context, userId uuid.UUID, query string, response *dto.AskResponse) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, answerCacheKey(userId, query), data, s.cacheTTL).Err(); err != nil {
		s.log.Warn("search", "Failed to cache answer", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func answerCacheKey(userId uuid.UUID, query string) string {
	sum := sha256.Sum256([]byte(userId.String() + "|" + query))
	return fmt.Sprintf("search:answer:%x", sum)
}
