package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mapscraper/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore archives assembled records locally and keeps dead letters for
// submission chunks that exhausted their retries.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// SaveRecords upserts assembled business records by source URL.
func (s *PostgresStore) SaveRecords(ctx context.Context, records []domain.BusinessRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO businesses (query_id, industry, name, rating, review_count, address, phone, website, email, social_links, source_url, scraped_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (source_url) DO UPDATE SET
			   name = EXCLUDED.name, rating = EXCLUDED.rating, review_count = EXCLUDED.review_count,
			   address = EXCLUDED.address, phone = EXCLUDED.phone, website = EXCLUDED.website,
			   email = EXCLUDED.email, social_links = EXCLUDED.social_links, scraped_at = EXCLUDED.scraped_at`,
			r.QueryID, r.Industry, r.Name, r.Rating, r.ReviewCount,
			nullable(r.Address), nullable(r.Phone), nullable(r.Website), nullable(r.Email),
			r.SocialLinks, r.SourceURL, r.ScrapedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveDroppedChunk persists a chunk that exhausted its submission attempts,
// so dropped data stays recoverable.
func (s *PostgresStore) SaveDroppedChunk(ctx context.Context, records []domain.BusinessRecord, reason string) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO dead_letters (reason, record_count, payload, dropped_at)
		 VALUES ($1, $2, $3, NOW())`,
		reason, len(records), payload,
	)
	return err
}

func nullable(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
