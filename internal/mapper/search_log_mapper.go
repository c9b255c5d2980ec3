package mapper

import (
	"docquery-be/internal/entity"
	"docquery-be/internal/model"
)

type SearchLogMapper struct{}

func NewSearchLogMapper() *SearchLogMapper {
	return &SearchLogMapper{}
}

func (m *SearchLogMapper) ToEntity(l *model.SearchLog) *entity.SearchLog {
	if l == nil {
		return nil
	}
	return &entity.SearchLog{
		Id:          l.Id,
		UserId:      l.UserId,
		Query:       l.Query,
		Answer:      l.Answer,
		SourceCount: l.SourceCount,
		TokensUsed:  l.TokensUsed,
		Degraded:    l.Degraded,
		DurationMs:  l.DurationMs,
		CreatedAt:   l.CreatedAt,
	}
}

func (m *SearchLogMapper) ToModel(l *entity.SearchLog) *model.SearchLog {
	if l == nil {
		return nil
	}
	return &model.SearchLog{
		Id:          l.Id,
		UserId:      l.UserId,
		Query:       l.Query,
		Answer:      l.Answer,
		SourceCount: l.SourceCount,
		TokensUsed:  l.TokensUsed,
		Degraded:    l.Degraded,
		DurationMs:  l.DurationMs,
		CreatedAt:   l.CreatedAt,
	}
}

func (m *SearchLogMapper) ToEntities(logs []*model.SearchLog) []*entity.SearchLog {
	entities := make([]*entity.SearchLog, len(logs))
	for i, l := range logs {
		entities[i] = m.ToEntity(l)
	}
	return entities
}
