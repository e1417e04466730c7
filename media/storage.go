package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"property-media/models"
)

// DefaultMarker is the path segment that identifies a public object URL.
const DefaultMarker = "/storage/v1/object/public/"

// StorageGalleryAlt is the alt text of images discovered in object storage.
const StorageGalleryAlt = "Property gallery image"

var (
	ErrNotStorageURL      = errors.New("media: url does not point into public object storage")
	ErrInvalidStoragePath = errors.New("media: storage path needs a bucket and a file name")
)

// StorageObject is one entry of a storage folder listing. Sub-folders are
// reported with a trailing slash or an empty name.
type StorageObject struct {
	Name string `json:"name"`
}

// SortBy orders a folder listing.
type SortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// ListOptions configures StorageClient.ListObjects.
type ListOptions struct {
	SortBy SortBy `json:"sortBy"`
}

// StorageClient is the subset of an object-storage API the resolver needs.
type StorageClient interface {
	ListObjects(ctx context.Context, bucket, folder string, opts ListOptions) ([]StorageObject, error)
	PublicURL(bucket, path string) (string, error)
}

// ParseStorageContext derives the bucket and folder of a public object URL.
// The path after marker must hold at least a bucket and a file name; the
// segments between them form the folder. Empty segments are ignored.
func ParseStorageContext(rawURL, marker string) (models.StorageContext, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return models.StorageContext{}, fmt.Errorf("media: parse seed url: %w", err)
	}
	if !u.IsAbs() {
		return models.StorageContext{}, fmt.Errorf("media: seed url %q is not absolute", rawURL)
	}

	idx := strings.Index(u.Path, marker)
	if idx == -1 {
		return models.StorageContext{}, ErrNotStorageURL
	}
	parts := lo.Filter(strings.Split(u.Path[idx+len(marker):], "/"), func(part string, _ int) bool {
		return part != ""
	})
	if len(parts) < 2 {
		return models.StorageContext{}, fmt.Errorf("%w: %q", ErrInvalidStoragePath, u.Path)
	}

	return models.StorageContext{
		Bucket: parts[0],
		Folder: strings.Join(parts[1:len(parts)-1], "/"),
	}, nil
}

// SeedURLs lists the record fields that may point at a storage folder, in
// the order they are tried: gallery_cover, hero_image, main_image, image, the
// url of the first gallery_images entry, and a string gallery field.
func SeedURLs(record models.Record) []string {
	if record == nil {
		return nil
	}
	seeds := []string{
		stringField(record, "gallery_cover"),
		stringField(record, "hero_image"),
		stringField(record, "main_image"),
		stringField(record, "image"),
		firstGalleryURL(record["gallery_images"]),
		stringField(record, "gallery"),
	}
	return lo.Filter(seeds, func(seed string, _ int) bool {
		return strings.TrimSpace(seed) != ""
	})
}

func stringField(record models.Record, key string) string {
	s, _ := record[key].(string)
	return s
}

func firstGalleryURL(v any) string {
	arr, ok := ValueOf(v).(ArrayValue)
	if !ok || len(arr) == 0 {
		return ""
	}
	if obj, ok := ValueOf(arr[0]).(ObjectValue); ok {
		s, _ := obj["url"].(string)
		return s
	}
	return ""
}

// StorageResolver finds a record's full gallery by listing the storage folder
// that holds one of its images.
//
// The resolver adds no timeout of its own: every storage call runs under the
// caller's context, so callers needing bounded latency pass a context with a
// deadline.
type StorageResolver struct {
	client StorageClient
	cache  GalleryCache
	marker string
	warn   WarningFunc
}

// ResolverOption configures a StorageResolver.
type ResolverOption func(*StorageResolver)

// WithCache replaces the default unbounded MemoryCache.
func WithCache(cache GalleryCache) ResolverOption {
	return func(r *StorageResolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithMarker replaces DefaultMarker.
func WithMarker(marker string) ResolverOption {
	return func(r *StorageResolver) {
		if marker != "" {
			r.marker = marker
		}
	}
}

// WithWarningFunc reports recovered per-seed failures to warn.
func WithWarningFunc(warn WarningFunc) ResolverOption {
	return func(r *StorageResolver) {
		if warn != nil {
			r.warn = warn
		}
	}
}

// NewStorageResolver creates a resolver over client.
func NewStorageResolver(client StorageClient, opts ...ResolverOption) *StorageResolver {
	r := &StorageResolver{
		client: client,
		cache:  NewMemoryCache(),
		marker: DefaultMarker,
		warn:   noWarning,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve tries each seed URL of record in order and returns the first
// non-empty gallery found in storage. It returns an empty slice when no seed
// yields images; callers then fall back to BuildGallery.
func (r *StorageResolver) Resolve(ctx context.Context, record models.Record) []models.GalleryImage {
	if r == nil || r.client == nil {
		return []models.GalleryImage{}
	}

	for _, seed := range SeedURLs(record) {
		if err := ctx.Err(); err != nil {
			r.warn("resolve storage gallery", err)
			break
		}
		if images := r.resolveSeed(ctx, seed); len(images) > 0 {
			return images
		}
	}
	return []models.GalleryImage{}
}

func (r *StorageResolver) resolveSeed(ctx context.Context, seed string) []models.GalleryImage {
	sc, err := ParseStorageContext(seed, r.marker)
	if err != nil {
		if !errors.Is(err, ErrNotStorageURL) {
			r.warn("derive storage context", err)
		}
		return nil
	}

	key := sc.CacheKey()
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	objects, err := r.client.ListObjects(ctx, sc.Bucket, sc.Folder, ListOptions{
		SortBy: SortBy{Column: "name", Order: "asc"},
	})
	if err != nil {
		r.warn("list storage folder "+key, err)
		// A cancelled listing says nothing about the folder.
		if ctx.Err() == nil {
			r.cache.Set(key, nil)
		}
		return nil
	}

	images := make([]models.GalleryImage, 0, len(objects))
	for _, obj := range objects {
		if obj.Name == "" || strings.HasSuffix(obj.Name, "/") {
			continue
		}
		path := obj.Name
		if sc.Folder != "" {
			path = sc.Folder + "/" + obj.Name
		}
		publicURL, err := r.client.PublicURL(sc.Bucket, path)
		if err != nil {
			r.warn("resolve public url "+path, err)
			continue
		}
		if publicURL == "" {
			continue
		}
		images = append(images, models.GalleryImage{URL: publicURL, Alt: StorageGalleryAlt})
	}

	r.cache.Set(key, images)
	return images
}
