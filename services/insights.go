package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"

	"property-media/models"
	"property-media/utils"
)

const fallbackSource = "fallback"

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(properties []*models.Property) *models.InsightReport {
	report := &models.InsightReport{
		PropertiesBySource: make(map[string]int),
		PropertiesByCity:   make(map[string]int),
	}

	if len(properties) == 0 {
		return report
	}

	report.TotalProperties = len(properties)

	var priced []*models.Property
	var rated []*models.Property
	featureCounts := make(map[string]int)
	var gallerySizes int

	for _, p := range properties {
		source := p.Source
		if source == "" {
			source = fallbackSource
		}
		report.PropertiesBySource[source]++

		if p.Price > 0 {
			priced = append(priced, p)
		}
		if p.OverallRating > 0 {
			rated = append(rated, p)
		}
		if p.City != "" {
			report.PropertiesByCity[p.City]++
		}
		if p.StorageGallery {
			report.StorageGalleries++
		}
		gallerySizes += len(p.Gallery)
		for _, f := range lo.Uniq(p.Features) {
			featureCounts[f]++
		}
	}

	// Price stats (only properties with price > 0)
	if len(priced) > 0 {
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		report.MostExpensive = priced[0]
		var total float64
		for _, p := range priced {
			total += p.Price
			if p.Price < report.MinPrice {
				report.MinPrice = p.Price
			}
			if p.Price > report.MaxPrice {
				report.MaxPrice = p.Price
				report.MostExpensive = p
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	// Top 5 by overall rating
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].OverallRating > rated[j].OverallRating
	})
	if len(rated) > 5 {
		report.TopRated = rated[:5]
	} else {
		report.TopRated = rated
	}

	// Top 5 features, ties broken alphabetically
	top := lo.MapToSlice(featureCounts, func(f string, n int) models.FeatureCount {
		return models.FeatureCount{Feature: f, Count: n}
	})
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Feature < top[j].Feature
	})
	if len(top) > 5 {
		top = top[:5]
	}
	report.TopFeatures = top

	report.AverageGallerySize = round2(float64(gallerySizes) / float64(len(properties)))

	s.logger.Debug("[insights] Report over %d properties from %d sources",
		report.TotalProperties, len(report.PropertiesBySource))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 PROPERTY CATALOG INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total properties     : \033[1m%d\033[0m\n", r.TotalProperties)
	fmt.Fprintf(w, "  Storage galleries    : \033[1m%d\033[0m\n", r.StorageGalleries)
	fmt.Fprintf(w, "  Average gallery size : \033[1m%.2f\033[0m\n", r.AverageGallerySize)
	printCounts(w, r.PropertiesBySource, false)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Property\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Name, 50))
		fmt.Fprintf(w, "  City  : %s\n", r.MostExpensive.City)
		fmt.Fprintf(w, "  Price : \033[1;31m%.2f\033[0m\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	// ── TOP 5 HIGHEST RATED ──────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Top 5 Highest Rated Properties\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Fprintf(w, "  No rated properties found\n")
	} else {
		for i, p := range r.TopRated {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.1f ★\033[0m\n",
				i+1, truncate(p.Name, 38), p.OverallRating)
		}
	}
	fmt.Fprintln(w)

	// ── TOP FEATURES ─────────────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Most Common Features\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopFeatures) == 0 {
		fmt.Fprintf(w, "  No feature data\n")
	} else {
		for _, fc := range r.TopFeatures {
			fmt.Fprintf(w, "  %-44s (%d)\n", truncate(fc.Feature, 42), fc.Count)
		}
	}
	fmt.Fprintln(w)

	// Properties by City
	fmt.Fprintf(w, "\033[1;33m  Properties by City\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.PropertiesByCity) == 0 {
		fmt.Fprintf(w, "  No city data\n")
	} else {
		printCounts(w, r.PropertiesByCity, true)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// printCounts lists counts descending, optionally with a bar.
func printCounts(w io.Writer, counts map[string]int, bars bool) {
	type entry struct {
		key   string
		count int
	}
	var entries []entry
	for k, n := range counts {
		if k != "" {
			entries = append(entries, entry{k, n})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	for _, e := range entries {
		if bars {
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(e.key, 28), strings.Repeat("█", e.count), e.count)
		} else {
			fmt.Fprintf(w, "    %-20s : %d\n", truncate(e.key, 20), e.count)
		}
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
