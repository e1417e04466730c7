package services

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"property-media/media"
	"property-media/models"
	"property-media/utils"
)

// Defaults applied to any field a backend row leaves empty.
const (
	defaultName                = "Luxury Hotel Residence"
	defaultCity                = "Bonapriso"
	defaultCountry             = "Cameroon"
	defaultMainImage           = "/images/island.webp"
	defaultMapImage            = "/images/madrid_map_placeholder.png"
	defaultStatus              = "free"
	defaultReviewSummary       = "Its location is very central and safe. Internet connection is very good…"
	defaultReviewerName        = "Vincent"
	defaultReviewerCountry     = "United States"
	defaultDescription         = "Thoughtfully curated suites with panoramic city views, concierge service, and dedicated workspace for extended stays."
	defaultLocationDescription = "Magnificent and beautiful place to stay, very central in the heart of Bonapriso with cafés, boutiques, and nightlife within a few minutes walk. Transit and airport connections keep you close to every district of Douala."
	defaultPrice               = 183303
	defaultOldPrice            = 215000
	defaultOverallRating       = 7.8
	defaultLocationRating      = 8.6
	defaultReviewsCount        = 288
	defaultPhotoCount          = 163
)

// FeatureBackdropFallback is the backdrop used when a record names none.
const FeatureBackdropFallback = "/storage/v1/object/public/properties/security.jpg"

var defaultFeatures = []string{
	"24/7 monitored security with controlled access",
	"Dedicated concierge to support long-term residents",
	"Private parking and on-site maintenance team",
}

// DefaultRatings are the category scores shown when a record carries none.
var DefaultRatings = models.Ratings{
	Cleanliness:   5.1,
	Accuracy:      4.9,
	Checkin:       3.5,
	Communication: 4.9,
	Location:      4.9,
	Value:         4.9,
}

var gallerySourceKeys = []string{"gallery_images", "gallery", "image_gallery", "photo_gallery", "media", "photos"}

// baseProperty returns a fresh property holding every default.
func baseProperty() *models.Property {
	return &models.Property{
		Name:                defaultName,
		City:                defaultCity,
		Country:             defaultCountry,
		MainImage:           defaultMainImage,
		Gallery:             slices.Clone(media.PlaceholderGallery),
		Features:            slices.Clone(defaultFeatures),
		FeatureBackdrop:     FeatureBackdropFallback,
		Price:               defaultPrice,
		OldPrice:            defaultOldPrice,
		OverallRating:       defaultOverallRating,
		LocationRating:      defaultLocationRating,
		ReviewsCount:        defaultReviewsCount,
		ReviewSummary:       defaultReviewSummary,
		ReviewerName:        defaultReviewerName,
		ReviewerCountry:     defaultReviewerCountry,
		Status:              defaultStatus,
		Description:         defaultDescription,
		LocationDescription: defaultLocationDescription,
		MapImage:            defaultMapImage,
		PhotoCount:          defaultPhotoCount,
		Ratings:             DefaultRatings,
	}
}

// FallbackProperty is shown for an id that no table source holds. Its name
// is derived from the id.
func FallbackProperty(id string) *models.Property {
	p := baseProperty()
	p.ID = id
	if id == "" {
		p.ID = utils.Slugify(defaultName)
	}
	if name := utils.TitleFromSlug(id); name != "" {
		p.Name = name
	}
	p.NormalizedAt = time.Now()
	return p
}

// NormalizeRecord maps a raw backend row onto a Property, filling every
// missing field from the defaults. A nil record yields nil. A nil n discards
// media warnings.
func NormalizeRecord(record models.Record, n *media.Normalizer) *models.Property {
	if record == nil {
		return nil
	}
	if n == nil {
		n = media.NewNormalizer(nil)
	}

	p := baseProperty()
	p.Name = orDefault(firstText(record, "name", "property_name", "title"), defaultName)
	p.City = orDefault(coalesceText(record, "city"), defaultCity)
	p.Country = orDefault(coalesceText(record, "country"), defaultCountry)
	p.MainImage = orDefault(firstText(record, "main_image", "image", "img"), firstGalleryImage(record), defaultMainImage)

	p.Gallery = n.BuildGallery(gallerySource(record), p.MainImage, p.Name)
	if features := n.ExtractAllMatches(record); len(features) > 0 {
		p.Features = features
	}
	p.FeatureBackdrop = ResolveFeatureBackdrop(record)

	p.Price = coalesceFloat(record, defaultPrice, "price", "starting_price", "starting_price_signed_in")
	p.OverallRating = coalesceFloat(record, defaultOverallRating, "overall_rating", "rating")
	p.LocationRating = coalesceFloat(record, defaultLocationRating, "location_rating", "rating")
	p.ReviewsCount = int(coalesceFloat(record, defaultReviewsCount, "reviews_count", "review_count"))
	p.ReviewSummary = orDefault(firstText(record, "review_summary", "subtitle", "deal_type"), defaultReviewSummary)
	p.ReviewerName = orDefault(firstText(record, "reviewer_name"), defaultReviewerName)
	p.ReviewerCountry = orDefault(firstText(record, "reviewer_country"), defaultReviewerCountry)
	p.Status = orDefault(firstText(record, "status", "availability_status", "mode"), defaultStatus)
	p.Description = orDefault(firstText(record, "description"), defaultDescription)
	p.LocationDescription = orDefault(firstText(record, "location_description"), defaultLocationDescription)
	p.MapImage = orDefault(firstText(record, "map_image"), defaultMapImage)
	if count, ok := toFloat(record["photo_count"]); ok && count != 0 {
		p.PhotoCount = int(count)
	}
	p.Ratings = DeriveRatings(record)

	p.ID = orDefault(coalesceText(record, "id"), utils.Slugify(p.Name))
	p.NormalizedAt = time.Now()
	return p
}

// DeriveRatings reads the six category scores of record. Each category
// accepts a plain key or a "_rating" suffixed one; anything missing or not
// numeric keeps its default.
func DeriveRatings(record models.Record) models.Ratings {
	r := DefaultRatings
	if record == nil {
		return r
	}
	r.Cleanliness = coalesceFloat(record, r.Cleanliness, "cleanliness", "cleanliness_rating")
	r.Accuracy = coalesceFloat(record, r.Accuracy, "accuracy", "accuracy_rating")
	r.Checkin = coalesceFloat(record, r.Checkin, "checkin", "checkin_rating")
	r.Communication = coalesceFloat(record, r.Communication, "communication", "communication_rating")
	r.Location = coalesceFloat(record, r.Location, "location_rating", "location")
	r.Value = coalesceFloat(record, r.Value, "value", "value_rating")
	return r
}

// ResolveFeatureBackdrop picks the image shown behind a property's feature
// list.
func ResolveFeatureBackdrop(record models.Record) string {
	return orDefault(firstText(record, "feature_backdrop", "feature_image", "cover_image", "main_image"), FeatureBackdropFallback)
}

// gallerySource prefers a non-empty images array, then the first non-nil
// gallery field.
func gallerySource(record models.Record) any {
	if arr, ok := media.ValueOf(record["images"]).(media.ArrayValue); ok && len(arr) > 0 {
		return record["images"]
	}
	for _, key := range gallerySourceKeys {
		if v := record[key]; v != nil {
			return v
		}
	}
	return nil
}

func firstGalleryImage(record models.Record) string {
	arr, ok := media.ValueOf(record["gallery_images"]).(media.ArrayValue)
	if !ok || len(arr) == 0 {
		return ""
	}
	obj, ok := media.ValueOf(arr[0]).(media.ObjectValue)
	if !ok {
		return ""
	}
	s, _ := obj["url"].(string)
	return strings.TrimSpace(s)
}

// orDefault returns the first non-empty value.
func orDefault(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstText returns the first key holding a non-blank string or a number.
func firstText(record models.Record, keys ...string) string {
	for _, key := range keys {
		switch v := record[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// coalesceText returns the first key that is present and not null, even
// when it holds an empty string.
func coalesceText(record models.Record, keys ...string) string {
	for _, key := range keys {
		v, ok := record[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(v)
	}
	return ""
}

// coalesceFloat returns the first numeric value among keys, or fallback.
func coalesceFloat(record models.Record, fallback float64, keys ...string) float64 {
	for _, key := range keys {
		if f, ok := toFloat(record[key]); ok {
			return f
		}
	}
	return fallback
}

// toFloat converts JSON numbers and numeric strings. Thousands separators
// in strings are ignored.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
