package models

import "time"

// Record is one backend row decoded from JSON. Field shapes are not trusted:
// the same column may hold a string, an array, an object or a JSON-encoded
// string depending on which dashboard page wrote it.
type Record map[string]any

// GalleryImage is a single displayable image. URL is never empty.
type GalleryImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// StorageContext locates the folder of a public object-storage URL.
// An empty Folder means the bucket root.
type StorageContext struct {
	Bucket string
	Folder string
}

// CacheKey returns the "{bucket}::{folder}" key used by gallery caches.
func (c StorageContext) CacheKey() string {
	return c.Bucket + "::" + c.Folder
}

// Ratings holds the per-category guest scores shown on a property page.
type Ratings struct {
	Cleanliness   float64 `json:"cleanliness"`
	Accuracy      float64 `json:"accuracy"`
	Checkin       float64 `json:"checkin"`
	Communication float64 `json:"communication"`
	Location      float64 `json:"location"`
	Value         float64 `json:"value"`
}

// Property is a listing after normalisation, ready for display or export.
type Property struct {
	ID                  string         `json:"id"`
	Source              string         `json:"source"` // table the row came from; empty for the fallback property
	Name                string         `json:"name"`
	City                string         `json:"city"`
	Country             string         `json:"country"`
	MainImage           string         `json:"main_image"`
	Gallery             []GalleryImage `json:"gallery_images"`
	Features            []string       `json:"features"`
	FeatureBackdrop     string         `json:"feature_backdrop"`
	Price               float64        `json:"price"`
	OldPrice            float64        `json:"old_price"`
	OverallRating       float64        `json:"overall_rating"`
	LocationRating      float64        `json:"location_rating"`
	ReviewsCount        int            `json:"reviews_count"`
	ReviewSummary       string         `json:"review_summary"`
	ReviewerName        string         `json:"reviewer_name"`
	ReviewerCountry     string         `json:"reviewer_country"`
	Status              string         `json:"status"`
	Description         string         `json:"description"`
	LocationDescription string         `json:"location_description"`
	MapImage            string         `json:"map_image"`
	PhotoCount          int            `json:"photo_count"`
	Ratings             Ratings        `json:"ratings"`
	StorageGallery      bool           `json:"storage_gallery"` // gallery came from listing object storage
	NormalizedAt        time.Time      `json:"normalized_at"`
}

// FeatureCount pairs a feature with the number of properties offering it.
type FeatureCount struct {
	Feature string
	Count   int
}

// InsightReport holds the computed analytics over a normalised catalog.
type InsightReport struct {
	TotalProperties    int
	PropertiesBySource map[string]int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *Property
	TopRated           []*Property
	PropertiesByCity   map[string]int
	TopFeatures        []FeatureCount
	StorageGalleries   int
	AverageGallerySize float64
}
