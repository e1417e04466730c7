package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"property-media/models"
)

const normalizedTable = "normalized_properties"

// PostgresStore reads raw listing rows and persists normalised properties.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS normalized_properties (
			id              TEXT          PRIMARY KEY,
			source          TEXT          NOT NULL DEFAULT '',
			name            TEXT          NOT NULL,
			city            TEXT          NOT NULL DEFAULT '',
			country         TEXT          NOT NULL DEFAULT '',
			main_image      TEXT          NOT NULL DEFAULT '',
			gallery         JSONB         NOT NULL DEFAULT '[]',
			features        TEXT[]        NOT NULL DEFAULT '{}',
			price           NUMERIC(14,2) NOT NULL DEFAULT 0,
			overall_rating  NUMERIC(4,2)  NOT NULL DEFAULT 0,
			reviews_count   INTEGER       NOT NULL DEFAULT 0,
			status          TEXT          NOT NULL DEFAULT '',
			storage_gallery BOOLEAN       NOT NULL DEFAULT FALSE,
			normalized_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_normalized_properties_source ON normalized_properties(source);
		CREATE INDEX IF NOT EXISTS idx_normalized_properties_city   ON normalized_properties(city);
		CREATE INDEX IF NOT EXISTS idx_normalized_properties_price  ON normalized_properties(price);
	`)
	return err
}

// FindByID returns the row of table whose id column equals id, decoded as a
// Record. Missing rows yield ErrNotFound.
func (ps *PostgresStore) FindByID(ctx context.Context, table, id string) (models.Record, error) {
	query := fmt.Sprintf(`SELECT row_to_json(t) FROM %s t WHERE t.id::text = $1 LIMIT 1`,
		pq.QuoteIdentifier(table))

	var raw []byte
	if err := ps.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres: find %s/%s: %w", table, id, err)
	}
	return decodeRecord(raw)
}

// FetchAll returns every row of table.
func (ps *PostgresStore) FetchAll(ctx context.Context, table string) ([]models.Record, error) {
	query := fmt.Sprintf(`SELECT row_to_json(t) FROM %s t`, pq.QuoteIdentifier(table))

	rows, err := ps.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all %s: %w", table, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func decodeRecord(raw []byte) (models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("postgres: decode row: %w", err)
	}
	return rec, nil
}

// Write upserts normalised properties in batches, keyed by id.
func (ps *PostgresStore) Write(ctx context.Context, properties []*models.Property) error {
	const batchSize = 50
	for i := 0; i < len(properties); i += batchSize {
		end := min(i+batchSize, len(properties))
		query, args, err := upsertBatch(properties[i:end])
		if err != nil {
			return err
		}
		if _, err := ps.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch: %w", err)
		}
	}
	return nil
}

const propertyColumns = 12

// Multi-row VALUES lists resolve untyped parameters to text, so non-text
// columns carry explicit casts.
var propertyCasts = map[int]string{6: "::jsonb", 7: "::text[]"}

func upsertBatch(batch []*models.Property) (string, []any, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*propertyColumns)

	for idx, p := range batch {
		gallery, err := json.Marshal(p.Gallery)
		if err != nil {
			return "", nil, fmt.Errorf("postgres: encode gallery for %s: %w", p.ID, err)
		}

		placeholders := make([]string, propertyColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d%s", idx*propertyColumns+c+1, propertyCasts[c])
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			p.ID, p.Source, p.Name, p.City, p.Country, p.MainImage, string(gallery),
			pq.Array(p.Features), p.Price, p.OverallRating, p.ReviewsCount, p.StorageGallery)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, source, name, city, country, main_image, gallery,
			features, price, overall_rating, reviews_count, storage_gallery)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			main_image = EXCLUDED.main_image,
			gallery = EXCLUDED.gallery,
			features = EXCLUDED.features,
			price = EXCLUDED.price,
			overall_rating = EXCLUDED.overall_rating,
			reviews_count = EXCLUDED.reviews_count,
			storage_gallery = EXCLUDED.storage_gallery,
			normalized_at = NOW()
	`, pq.QuoteIdentifier(normalizedTable), strings.Join(valueStrings, ","))

	return query, valueArgs, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
