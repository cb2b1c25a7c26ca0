package ports

import (
	"context"

	"copyTradeEngine/internal/domain"
)

// SummaryPublisher emits batch summaries for downstream consumers.
type SummaryPublisher interface {
	// PublishSummary sends the outcome of one processed leader trade.
	PublishSummary(ctx context.Context, summary *domain.BatchSummary) error
}
