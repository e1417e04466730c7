package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"property-media/models"
)

var csvHeader = []string{
	"id", "source", "name", "city", "country", "price", "overall_rating",
	"reviews_count", "status", "main_image", "gallery_size", "storage_gallery",
	"features", "normalized_at",
}

// CSVWriter writes normalised properties to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per property. Features are joined with " | ".
func (c *CSVWriter) Write(_ context.Context, properties []*models.Property) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range properties {
		row := []string{
			p.ID,
			p.Source,
			p.Name,
			p.City,
			p.Country,
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			strconv.FormatFloat(p.OverallRating, 'f', -1, 64),
			strconv.Itoa(p.ReviewsCount),
			p.Status,
			p.MainImage,
			strconv.Itoa(len(p.Gallery)),
			strconv.FormatBool(p.StorageGallery),
			strings.Join(p.Features, " | "),
			p.NormalizedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
