package recorder

import "context"

// NoopRecorder is a no-op implementation used when history is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRefresh(context.Context, *RefreshRecord) error     { return nil }
func (n *NoopRecorder) RecordTrancheEvent(context.Context, *TrancheEvent) error { return nil }
func (n *NoopRecorder) History(context.Context, string, int) ([]HistoryPoint, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
