package services

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"property-media/models"
	"property-media/utils"
)

func quietLogger() *utils.Logger {
	l := utils.NewLogger()
	l.SetOutput(io.Discard)
	return l
}

func sampleProperties() []*models.Property {
	gallery := func(n int) []models.GalleryImage {
		return make([]models.GalleryImage, n)
	}
	return []*models.Property{
		{ID: "a", Source: "properties", Name: "Villa A", Price: 200, City: "Douala", OverallRating: 9.1,
			Features: []string{"Pool", "WiFi"}, Gallery: gallery(4), StorageGallery: true},
		{ID: "b", Source: "properties", Name: "Studio B", Price: 50, City: "Douala", OverallRating: 8.5,
			Features: []string{"WiFi"}, Gallery: gallery(2)},
		{ID: "c", Source: "weekend_deals", Name: "Loft C", Price: 120, City: "Yaounde", OverallRating: 8.8,
			Features: []string{"WiFi", "Parking"}, Gallery: gallery(7)},
		{ID: "d", Source: "weekend_deals", Name: "Cabin D", Price: 300, City: "Kribi", OverallRating: 0,
			Features: []string{"Pool"}, Gallery: gallery(1), StorageGallery: true},
		{ID: "e", Name: "Flat E", Price: 0, City: "Yaounde", OverallRating: 7.8, Gallery: gallery(6)},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate(sampleProperties())
	if r.TotalProperties != 5 {
		t.Errorf("TotalProperties: got %d, want 5", r.TotalProperties)
	}
	want := map[string]int{"properties": 2, "weekend_deals": 2, "fallback": 1}
	if diff := cmp.Diff(want, r.PropertiesBySource); diff != "" {
		t.Errorf("PropertiesBySource mismatch (-want +got):\n%s", diff)
	}
	if r.StorageGalleries != 2 {
		t.Errorf("StorageGalleries: got %d, want 2", r.StorageGalleries)
	}
	if r.AverageGallerySize != 4 {
		t.Errorf("AverageGallerySize: got %.2f, want 4", r.AverageGallerySize)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate(sampleProperties())
	if r.AveragePrice != 167.50 {
		t.Errorf("AveragePrice: got %.2f, want 167.50", r.AveragePrice)
	}
	if r.MinPrice != 50 {
		t.Errorf("MinPrice: got %.2f, want 50", r.MinPrice)
	}
	if r.MaxPrice != 300 {
		t.Errorf("MaxPrice: got %.2f, want 300", r.MaxPrice)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate(sampleProperties())
	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.Name != "Cabin D" {
		t.Errorf("MostExpensive: got %q, want %q", r.MostExpensive.Name, "Cabin D")
	}
}

func TestInsightMostExpensiveFirst(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate([]*models.Property{{Name: "Top", Price: 900}, {Name: "Low", Price: 10}})
	if r.MostExpensive == nil || r.MostExpensive.Name != "Top" {
		t.Fatalf("MostExpensive: got %+v, want Top", r.MostExpensive)
	}
}

func TestInsightTopRated(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate(sampleProperties())
	got := make([]string, 0, len(r.TopRated))
	for _, p := range r.TopRated {
		got = append(got, p.ID)
	}
	if diff := cmp.Diff([]string{"a", "c", "b", "e"}, got); diff != "" {
		t.Errorf("TopRated mismatch (-want +got):\n%s", diff)
	}
}

func TestInsightTopFeatures(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate(sampleProperties())
	want := []models.FeatureCount{
		{Feature: "WiFi", Count: 3},
		{Feature: "Pool", Count: 2},
		{Feature: "Parking", Count: 1},
	}
	if diff := cmp.Diff(want, r.TopFeatures); diff != "" {
		t.Errorf("TopFeatures mismatch (-want +got):\n%s", diff)
	}
}

func TestInsightCityGrouping(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate(sampleProperties())
	if r.PropertiesByCity["Douala"] != 2 {
		t.Errorf("Douala count: got %d, want 2", r.PropertiesByCity["Douala"])
	}
	if r.PropertiesByCity["Yaounde"] != 2 {
		t.Errorf("Yaounde count: got %d, want 2", r.PropertiesByCity["Yaounde"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(quietLogger())
	r := svc.Generate(nil)
	if r.TotalProperties != 0 {
		t.Errorf("expected 0 total properties for empty input")
	}
	if r.AverageGallerySize != 0 {
		t.Errorf("AverageGallerySize: got %.2f, want 0", r.AverageGallerySize)
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(quietLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleProperties()))

	out := buf.String()
	for _, want := range []string{"Total properties", "Cabin D", "Villa A", "WiFi", "Douala"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
