package media

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"property-media/models"
)

const defaultDisplayName = "property"

// GalleryURLKeys are probed, in order, for the URL of an image object.
var GalleryURLKeys = []string{"url", "image_url", "src", "path", "image", "photo_url"}

// galleryContainerKeys hold a nested gallery inside an object field.
var galleryContainerKeys = []string{"images", "gallery", "data", "items"}

// parsedGalleryKeys hold a nested gallery inside a JSON-encoded string.
var parsedGalleryKeys = []string{"images", "gallery", "data"}

// PlaceholderGallery is returned when a record has no usable images at all.
var PlaceholderGallery = []models.GalleryImage{
	{URL: "/images/inside.webp", Alt: "Spacious room"},
	{URL: "/images/inside.webp", Alt: "Cozy room"},
	{URL: "/images/inside.webp", Alt: "Hotel lobby"},
	{URL: "/images/inside.webp", Alt: "Bedroom"},
	{URL: "/images/inside.webp", Alt: "Exterior"},
	{URL: "/images/inside.webp", Alt: "Desk area"},
	{URL: "/images/inside.webp", Alt: "Amenities"},
}

// BuildGallery is Normalizer.BuildGallery with warnings discarded.
func BuildGallery(source any, fallbackURL, displayName string) []models.GalleryImage {
	return defaultNormalizer.BuildGallery(source, fallbackURL, displayName)
}

// BuildGallery turns a gallery field into images. Sources are tried in this
// order: a non-empty array, a string (JSON or comma separated), an object
// wrapping one of those, then a single hero image from fallbackURL, then
// PlaceholderGallery. The result is never empty and no entry has an empty URL.
func (n *Normalizer) BuildGallery(source any, fallbackURL, displayName string) []models.GalleryImage {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = defaultDisplayName
	}

	if images := n.gallery(ValueOf(source), name, 0); len(images) > 0 {
		return images
	}
	if fallbackURL = strings.TrimSpace(fallbackURL); fallbackURL != "" {
		return []models.GalleryImage{{URL: fallbackURL, Alt: "Hero image of " + name}}
	}
	return slices.Clone(PlaceholderGallery)
}

func (n *Normalizer) gallery(v Value, name string, depth int) []models.GalleryImage {
	if depth > maxDepth {
		return nil
	}

	switch t := v.(type) {
	case ArrayValue:
		return lo.FilterMap([]any(t), func(item any, _ int) (models.GalleryImage, bool) {
			return galleryEntry(item, name)
		})

	case StringValue:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return nil
		}
		if looksLikeJSON(s) {
			parsed, err := parseJSON(s)
			if err == nil {
				return n.parsedGallery(parsed, name, depth+1)
			}
			n.warn("parse gallery string", err)
		}
		return lo.FilterMap(strings.Split(s, ","), func(part string, _ int) (models.GalleryImage, bool) {
			return galleryEntry(part, name)
		})

	case ObjectValue:
		if nested, ok := firstTruthy(t, galleryContainerKeys...); ok {
			return n.gallery(ValueOf(nested), name, depth+1)
		}
	}

	return nil
}

// parsedGallery handles the decoded form of a JSON gallery string: an array,
// an object wrapping one, or a single {url, alt} object. Anything else yields
// no images.
func (n *Normalizer) parsedGallery(parsed any, name string, depth int) []models.GalleryImage {
	switch t := ValueOf(parsed).(type) {
	case ArrayValue:
		return n.gallery(t, name, depth)
	case ObjectValue:
		if nested, ok := firstTruthy(t, parsedGalleryKeys...); ok {
			return n.gallery(ValueOf(nested), name, depth+1)
		}
		if img, ok := galleryEntry(t, name); ok {
			return []models.GalleryImage{img}
		}
	}
	return nil
}

// galleryEntry converts one array element. Strings are URLs; objects carry
// the URL under one of GalleryURLKeys and an optional alt.
func galleryEntry(item any, name string) (models.GalleryImage, bool) {
	switch t := ValueOf(item).(type) {
	case StringValue:
		url := strings.TrimSpace(string(t))
		if url == "" {
			return models.GalleryImage{}, false
		}
		return models.GalleryImage{URL: url, Alt: photoAlt(name)}, true
	case ObjectValue:
		url, ok := firstString(t, GalleryURLKeys...)
		if !ok {
			return models.GalleryImage{}, false
		}
		alt, ok := firstString(t, "alt")
		if !ok {
			alt = photoAlt(name)
		}
		return models.GalleryImage{URL: url, Alt: alt}, true
	}
	return models.GalleryImage{}, false
}

func photoAlt(name string) string {
	return "Photo of " + name
}
