package status

import (
	"context"
	"sync"

	"github.com/jasonb194/MAMManager/internal/model"
)

// API is the remote surface the fetcher needs.
type API interface {
	FetchStatus(ctx context.Context) (*model.AccountSnapshot, error)
}

// Fetcher refreshes the account snapshot and holds the latest one for
// display. It is shared by the short-interval display poll and the daily
// cycle; the snapshot pointer is swapped wholesale under the mutex, which
// is never held across the network call.
type Fetcher struct {
	api API

	mu      sync.Mutex
	latest  *model.AccountSnapshot
	lastErr error
}

// NewFetcher creates a Fetcher.
func NewFetcher(api API) *Fetcher {
	return &Fetcher{api: api}
}

// Refresh fetches a fresh snapshot. On failure the previously held
// snapshot is retained and the error recorded for display. Refresh never
// touches the per-action run dates.
func (f *Fetcher) Refresh(ctx context.Context) (*model.AccountSnapshot, error) {
	snap, err := f.api.FetchStatus(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.lastErr = err
		return nil, err
	}
	f.latest = snap
	f.lastErr = nil
	return snap, nil
}

// Latest returns the most recent successful snapshot, or nil before the
// first one.
func (f *Fetcher) Latest() *model.AccountSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// LastError returns the error from the most recent refresh, or nil.
func (f *Fetcher) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}
