package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
)

const journalCollection = "scrape_journal"

// ScrapeJournal implements ports.ScrapeJournal using MongoDB.
type ScrapeJournal struct {
	db *mongo.Database
}

// NewScrapeJournal creates a new ScrapeJournal.
func NewScrapeJournal(db *mongo.Database) ports.ScrapeJournal {
	return &ScrapeJournal{db: db}
}

type journalEntry struct {
	RequestID    string     `bson:"request_id"`
	URL          string     `bson:"url"`
	Platform     string     `bson:"platform"`
	Status       string     `bson:"status"`
	CreatedAt    time.Time  `bson:"created_at"`
	CompletedAt  *time.Time `bson:"completed_at,omitempty"`
	ResultCount  *int       `bson:"result_count,omitempty"`
	ErrorMessage string     `bson:"error_message,omitempty"`
	RecordedAt   time.Time  `bson:"recorded_at"`
}

// Record upserts the request keyed by its id so a replayed terminal record
// does not create a duplicate entry.
func (j *ScrapeJournal) Record(ctx context.Context, req domain.ScrapeRequest) error {
	entry := journalEntry{
		RequestID:    req.ID,
		URL:          req.URL,
		Platform:     req.Platform,
		Status:       string(req.Status),
		CreatedAt:    req.CreatedAt.UTC(),
		ResultCount:  req.ResultCount,
		ErrorMessage: req.ErrorMessage,
		RecordedAt:   time.Now().UTC(),
	}
	if req.CompletedAt != nil {
		t := req.CompletedAt.UTC()
		entry.CompletedAt = &t
	}

	_, err := j.db.Collection(journalCollection).UpdateOne(
		ctx,
		bson.M{"request_id": req.ID},
		bson.M{"$set": entry},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("journal record %s: %w", req.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *ScrapeJournal) Recent(ctx context.Context, limit int) ([]domain.ScrapeRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := j.db.Collection(journalCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("journal find: %w", err)
	}
	defer cur.Close(ctx)

	var entries []journalEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("journal decode: %w", err)
	}

	out := make([]domain.ScrapeRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.ScrapeRequest{
			ID:           e.RequestID,
			URL:          e.URL,
			Platform:     e.Platform,
			Status:       domain.ScrapeStatus(e.Status),
			CreatedAt:    e.CreatedAt,
			CompletedAt:  e.CompletedAt,
			ResultCount:  e.ResultCount,
			ErrorMessage: e.ErrorMessage,
		})
	}
	return out, nil
}

// EnsureIndexes creates the unique request id index and the recency index.
func (j *ScrapeJournal) EnsureIndexes(ctx context.Context) error {
	_, err := j.db.Collection(journalCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("journal indexes: %w", err)
	}
	return nil
}

// NopJournal discards every record. It is used when no database is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, domain.ScrapeRequest) error { return nil }

func (NopJournal) Recent(context.Context, int) ([]domain.ScrapeRequest, error) { return nil, nil }
