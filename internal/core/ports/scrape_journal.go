package ports

import (
	"context"

	"github.com/dataflow/console/internal/core/domain"
)

// ScrapeJournal keeps an append-only record of scrape requests that reached
// a terminal status.
type ScrapeJournal interface {
	Record(ctx context.Context, req domain.ScrapeRequest) error
	Recent(ctx context.Context, limit int) ([]domain.ScrapeRequest, error)
}
