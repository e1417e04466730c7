package services

import (
	"context"
	"errors"
	"maps"

	"golang.org/x/sync/errgroup"

	"property-media/media"
	"property-media/models"
	"property-media/storage"
	"property-media/utils"
)

// Catalog looks listings up across the backend's table sources and turns
// them into display-ready properties.
type Catalog struct {
	store      storage.RowStore
	resolver   *media.StorageResolver
	normalizer *media.Normalizer
	tables     []string
	logger     *utils.Logger
}

// NewCatalog creates a Catalog. A nil resolver skips storage galleries.
func NewCatalog(store storage.RowStore, resolver *media.StorageResolver, normalizer *media.Normalizer,
	tables []string, logger *utils.Logger) *Catalog {
	if normalizer == nil {
		normalizer = media.NewNormalizer(nil)
	}
	return &Catalog{
		store:      store,
		resolver:   resolver,
		normalizer: normalizer,
		tables:     tables,
		logger:     logger,
	}
}

// Lookup tries each table source in order and normalises the first row whose
// id matches. Query failures are logged and the next table is tried. When no
// table holds the id, a fallback property named after the id is returned.
// The only error is a cancelled ctx.
func (c *Catalog) Lookup(ctx context.Context, id string) (*models.Property, error) {
	for _, table := range c.tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := c.store.FindByID(ctx, table, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn("[catalog] Failed to query %s: %v", table, err)
			continue
		}
		if record == nil {
			continue
		}

		c.logger.Debug("[catalog] Found %s in %s", id, table)
		return c.hydrate(ctx, table, record), nil
	}

	c.logger.Info("[catalog] %s not found in %d tables, using fallback", id, len(c.tables))
	return FallbackProperty(id), nil
}

// NormalizeAll reads every table source concurrently and normalises each row
// on a worker pool. Rows whose id was already produced by an earlier table
// are dropped. A table that cannot be read is logged and skipped.
func (c *Catalog) NormalizeAll(ctx context.Context, maxWorkers, rateLimitMs int) ([]*models.Property, error) {
	type job struct {
		table  string
		record models.Record
	}
	batches := make([][]models.Record, len(c.tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(maxWorkers, 1))
	for i, table := range c.tables {
		g.Go(func() error {
			records, err := c.store.FetchAll(gctx, table)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.Warn("[catalog] Failed to read %s: %v", table, err)
				return nil
			}
			c.logger.Info("[catalog] %s: %d rows", table, len(records))
			batches[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var jobs []job
	for i, records := range batches {
		for _, rec := range records {
			jobs = append(jobs, job{table: c.tables[i], record: rec})
		}
	}

	results := make([]*models.Property, len(jobs))
	pool := utils.NewWorkerPool(maxWorkers, rateLimitMs)
	for i, j := range jobs {
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			results[i] = c.hydrate(ctx, j.table, j.record)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := utils.NewStringSet()
	properties := make([]*models.Property, 0, len(results))
	for _, p := range results {
		if p == nil {
			continue
		}
		if !seen.Add(p.ID) {
			c.logger.Debug("[catalog] Duplicate id skipped: %s (%s)", p.ID, p.Source)
			continue
		}
		properties = append(properties, p)
	}

	c.logger.Info("[catalog] Normalised %d rows into %d properties (dropped %d duplicates)",
		len(jobs), len(properties), len(jobs)-len(properties))
	return properties, nil
}

// hydrate merges a storage gallery into record, when one exists, and
// normalises the result.
func (c *Catalog) hydrate(ctx context.Context, table string, record models.Record) *models.Property {
	gallery := c.resolver.Resolve(ctx, record)
	merged := record
	if len(gallery) > 0 {
		merged = maps.Clone(record)
		merged["gallery_images"] = gallery
	}

	p := NormalizeRecord(merged, c.normalizer)
	p.Source = table
	p.StorageGallery = len(gallery) > 0
	p.Ratings = DeriveRatings(record)
	return p
}
