package media

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"property-media/models"
)

const testBase = "https://proj.supabase.co/storage/v1/object/public/"

// fakeStorage is an in-memory StorageClient keyed by "bucket::folder".
type fakeStorage struct {
	folders    map[string][]StorageObject
	listErr    map[string]error
	urlErr     map[string]error
	listCalls  map[string]int
	lastOpts   ListOptions
	totalLists int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		folders:   make(map[string][]StorageObject),
		listErr:   make(map[string]error),
		urlErr:    make(map[string]error),
		listCalls: make(map[string]int),
	}
}

func (f *fakeStorage) ListObjects(ctx context.Context, bucket, folder string, opts ListOptions) ([]StorageObject, error) {
	key := bucket + "::" + folder
	f.listCalls[key]++
	f.totalLists++
	f.lastOpts = opts
	if err := f.listErr[key]; err != nil {
		return nil, err
	}
	return f.folders[key], nil
}

func (f *fakeStorage) PublicURL(bucket, path string) (string, error) {
	if err := f.urlErr[path]; err != nil {
		return "", err
	}
	return testBase + bucket + "/" + path, nil
}

func TestParseStorageContext(t *testing.T) {
	tests := []struct {
		url     string
		want    models.StorageContext
		wantErr error
	}{
		{testBase + "weekend_images/akwa/image1.jpg", models.StorageContext{Bucket: "weekend_images", Folder: "akwa"}, nil},
		{testBase + "properties/security.jpg", models.StorageContext{Bucket: "properties", Folder: ""}, nil},
		{testBase + "b/x/y//z/photo.png?width=300", models.StorageContext{Bucket: "b", Folder: "x/y/z"}, nil},
		{testBase + "onlybucket", models.StorageContext{}, ErrInvalidStoragePath},
		{"https://cdn.example.com/images/a.jpg", models.StorageContext{}, ErrNotStorageURL},
	}

	for _, tt := range tests {
		got, err := ParseStorageContext(tt.url, "")
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseStorageContext(%q) error = %v, want %v", tt.url, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStorageContext(%q) unexpected error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStorageContext(%q) = %+v, want %+v", tt.url, got, tt.want)
		}
	}
}

func TestParseStorageContextRejectsRelativeURL(t *testing.T) {
	if _, err := ParseStorageContext("/storage/v1/object/public/b/f/a.jpg", ""); err == nil {
		t.Error("expected an error for a relative url")
	}
}

func TestSeedURLsOrder(t *testing.T) {
	record := models.Record{
		"gallery":        "g.jpg",
		"image":          "i.jpg",
		"main_image":     "m.jpg",
		"hero_image":     "",
		"gallery_cover":  "c.jpg",
		"gallery_images": []any{map[string]any{"url": "gi.jpg"}},
	}

	want := []string{"c.jpg", "m.jpg", "i.jpg", "gi.jpg", "g.jpg"}
	if diff := cmp.Diff(want, SeedURLs(record)); diff != "" {
		t.Errorf("SeedURLs mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveListsFolder(t *testing.T) {
	fake := newFakeStorage()
	fake.folders["guest_love_images::bonapriso"] = []StorageObject{
		{Name: "image1.jpg"},
		{Name: "nested/"},
		{Name: ""},
		{Name: "image2.jpg"},
	}
	r := NewStorageResolver(fake)

	got := r.Resolve(context.Background(), models.Record{
		"main_image": testBase + "guest_love_images/bonapriso/image1.jpg",
	})

	want := []models.GalleryImage{
		{URL: testBase + "guest_love_images/bonapriso/image1.jpg", Alt: StorageGalleryAlt},
		{URL: testBase + "guest_love_images/bonapriso/image2.jpg", Alt: StorageGalleryAlt},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
	if fake.lastOpts.SortBy != (SortBy{Column: "name", Order: "asc"}) {
		t.Errorf("listing sort: got %+v", fake.lastOpts.SortBy)
	}
}

func TestResolveCachesFolder(t *testing.T) {
	fake := newFakeStorage()
	fake.folders["weekend_images::akwa"] = []StorageObject{{Name: "a.jpg"}}
	r := NewStorageResolver(fake)

	first := r.Resolve(context.Background(), models.Record{"image": testBase + "weekend_images/akwa/a.jpg"})
	second := r.Resolve(context.Background(), models.Record{"hero_image": testBase + "weekend_images/akwa/b.jpg"})

	if fake.listCalls["weekend_images::akwa"] != 1 {
		t.Errorf("list calls: got %d, want 1", fake.listCalls["weekend_images::akwa"])
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result differs (-first +second):\n%s", diff)
	}
}

func TestResolveSkipsSeedWithoutMarker(t *testing.T) {
	fake := newFakeStorage()
	fake.folders["recomended_images::bonaberi"] = []StorageObject{{Name: "image1.jpg"}}
	var warnings int
	r := NewStorageResolver(fake, WithWarningFunc(func(string, error) { warnings++ }))

	got := r.Resolve(context.Background(), models.Record{
		"gallery_cover": "https://cdn.example.com/cover.jpg",
		"main_image":    "::not a url::",
		"image":         testBase + "recomended_images/bonaberi/image1.jpg",
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 image from the third seed, got %d", len(got))
	}
	if warnings != 1 {
		t.Errorf("warnings: got %d, want 1 for the unparsable seed", warnings)
	}
}

func TestResolveListErrorCachesNegativeAndContinues(t *testing.T) {
	fake := newFakeStorage()
	fake.listErr["broken::f"] = errors.New("boom")
	fake.folders["good::f"] = []StorageObject{{Name: "ok.jpg"}}
	cache := NewMemoryCache()
	r := NewStorageResolver(fake, WithCache(cache))

	record := models.Record{
		"gallery_cover": testBase + "broken/f/x.jpg",
		"main_image":    testBase + "good/f/ok.jpg",
	}
	got := r.Resolve(context.Background(), record)
	if len(got) != 1 || got[0].URL != testBase+"good/f/ok.jpg" {
		t.Fatalf("unexpected gallery: %+v", got)
	}

	cached, ok := cache.Get("broken::f")
	if !ok || len(cached) != 0 {
		t.Errorf("expected negative sentinel for broken::f, got %v (present=%v)", cached, ok)
	}

	r.Resolve(context.Background(), record)
	if fake.listCalls["broken::f"] != 1 {
		t.Errorf("broken folder listed %d times, want 1", fake.listCalls["broken::f"])
	}
}

func TestResolveEmptyFolderIsNegative(t *testing.T) {
	fake := newFakeStorage()
	fake.folders["b::empty"] = []StorageObject{{Name: "sub/"}}
	r := NewStorageResolver(fake)
	record := models.Record{"image": testBase + "b/empty/a.jpg"}

	if got := r.Resolve(context.Background(), record); len(got) != 0 {
		t.Fatalf("expected no images, got %v", got)
	}
	if got := r.Resolve(context.Background(), record); len(got) != 0 {
		t.Fatalf("expected no images on cache hit, got %v", got)
	}
	if fake.totalLists != 1 {
		t.Errorf("list calls: got %d, want 1", fake.totalLists)
	}
}

func TestResolveDropsFailedPublicURL(t *testing.T) {
	fake := newFakeStorage()
	fake.folders["b::f"] = []StorageObject{{Name: "a.jpg"}, {Name: "b.jpg"}}
	fake.urlErr["f/a.jpg"] = errors.New("no url")
	r := NewStorageResolver(fake)

	got := r.Resolve(context.Background(), models.Record{"image": testBase + "b/f/a.jpg"})
	if len(got) != 1 || got[0].URL != testBase+"b/f/b.jpg" {
		t.Errorf("unexpected gallery: %+v", got)
	}
}

func TestResolveCancelledContextDoesNotCache(t *testing.T) {
	fake := newFakeStorage()
	cache := NewMemoryCache()
	r := NewStorageResolver(fake, WithCache(cache))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := r.Resolve(ctx, models.Record{"image": testBase + "b/f/a.jpg"})
	if len(got) != 0 {
		t.Errorf("expected no images, got %v", got)
	}
	if fake.totalLists != 0 || cache.Len() != 0 {
		t.Errorf("cancelled resolve touched storage: lists=%d cached=%d", fake.totalLists, cache.Len())
	}
}

func TestResolveCustomMarker(t *testing.T) {
	fake := newFakeStorage()
	fake.folders["media::homes"] = []StorageObject{{Name: "1.jpg"}}
	r := NewStorageResolver(fake, WithMarker("/files/public/"))

	got := r.Resolve(context.Background(), models.Record{"image": "https://cdn.example.com/files/public/media/homes/1.jpg"})
	if len(got) != 1 {
		t.Errorf("expected 1 image, got %d", len(got))
	}
}

func TestResolveNilClient(t *testing.T) {
	var r *StorageResolver
	if got := r.Resolve(context.Background(), models.Record{"image": testBase + "b/f/a.jpg"}); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil gallery, got %#v", got)
	}
}
