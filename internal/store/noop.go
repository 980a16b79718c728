package store

import (
	"context"
	"time"

	"BasketSentinel/internal/model"
)

var _ BarStore = (*NoopStore)(nil)

// NoopStore is a no-op implementation used when caching is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) ReadBars(_ context.Context, _ string, _, _ time.Time) ([]model.PriceBar, error) {
	return nil, nil
}
func (n *NoopStore) WriteBars(_ context.Context, _ string, _ []model.PriceBar, _ Coverage) error {
	return nil
}
func (n *NoopStore) Coverage(_ context.Context, _ string) (Coverage, bool, error) {
	return Coverage{}, false, nil
}
func (n *NoopStore) Close() error { return nil }
