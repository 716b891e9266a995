package testsupport

import (
	"context"
	"sync"

	"packshot/internal/catalog"
	"packshot/internal/services"
)

// FakeSource is a scriptable catalog.Source for tests. Assets are keyed by
// BMN; download bytes default to the asset ID when no content is scripted.
type FakeSource struct {
	mu        sync.Mutex
	Assets    map[string][]catalog.Asset
	Content   map[string][]byte
	FetchErr  map[string]error
	Downloads int
}

// NewFakeSource builds an empty fake source.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		Assets:   make(map[string][]catalog.Asset),
		Content:  make(map[string][]byte),
		FetchErr: make(map[string]error),
	}
}

// Add registers the candidate assets for a BMN.
func (f *FakeSource) Add(bmn string, assets ...catalog.Asset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Assets[bmn] = append(f.Assets[bmn], assets...)
}

// FailFetch scripts a fetch error for a BMN.
func (f *FakeSource) FailFetch(bmn string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchErr[bmn] = err
}

// Fetch implements catalog.Source.
func (f *FakeSource) Fetch(ctx context.Context, bmn string) ([]catalog.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FetchErr[bmn]; ok {
		return nil, err
	}
	assets, ok := f.Assets[bmn]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "fetch", "identifier not in portal", nil)
	}
	return append([]catalog.Asset(nil), assets...), nil
}

// Download implements catalog.Source.
func (f *FakeSource) Download(ctx context.Context, asset catalog.Asset) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Downloads++
	if content, ok := f.Content[asset.ID]; ok {
		return append([]byte(nil), content...), nil
	}
	return []byte(asset.ID), nil
}

var _ catalog.Source = (*FakeSource)(nil)
