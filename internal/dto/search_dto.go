package dto

import (
	"time"

	"github.com/google/uuid"
)

type AskRequest struct {
	Query string `json:"query" validate:"required"`
}

type SourceDTO struct {
	DocumentTitle string  `json:"document_title"`
	DocumentUrl   string  `json:"document_url,omitempty"`
	Excerpt       string  `json:"excerpt"`
	PageNumber    *int    `json:"page_number,omitempty"`
	SectionPath   string  `json:"section_path,omitempty"`
	Confidence    float64 `json:"confidence"`
	SearchMethod  string  `json:"search_method"`
	Rank          int     `json:"rank"`
}

type AskResponse struct {
	Answer                 string      `json:"answer"`
	Sources                []SourceDTO `json:"sources"`
	TokensUsed             int         `json:"tokens_used,omitempty"`
	TotalDocumentsSearched int64       `json:"total_documents_searched"`
	SearchSuggestion       string      `json:"search_suggestion,omitempty"`
}

type SearchHistoryItem struct {
	Id          uuid.UUID `json:"id"`
	Query       string    `json:"query"`
	Answer      string    `json:"answer"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchCompletedMessage is the payload published on the internal event bus
// after every answered request. The consumer persists it and forwards the
// analytics event.
type SearchCompletedMessage struct {
	UserId      uuid.UUID `json:"user_id"`
	Query       string    `json:"query"`
	Answer      string    `json:"answer"`
	SourceCount int       `json:"source_count"`
	TokensUsed  int       `json:"tokens_used"`
	Degraded    bool      `json:"degraded"`
	DurationMs  int64     `json:"duration_ms"`
}
