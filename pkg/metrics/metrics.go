package metrics

import (
	"path"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

// Counter metric names recorded by the resolution and moderation pipeline.
const (
	ResolveCuratedHit   = "resolve_curated_hit"
	ResolveCommunityHit = "resolve_community_hit"
	ResolveExternalHit  = "resolve_external_hit"
	ResolveMiss         = "resolve_miss"
	ResolveInvalid      = "resolve_invalid"
	WritebackOk         = "writeback_ok"
	WritebackFail       = "writeback_fail"
	SubmissionCreated   = "submission_created"
	SubmissionConflict  = "submission_conflict"
	ModerationApproved  = "moderation_approved"
	ModerationRejected  = "moderation_rejected"
)

var storage tstorage.Storage

// InitMetrics opens the embedded time-series store under workdir/data/metrics.
func InitMetrics(workdir string) error {
	var err error
	storage, err = tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "data", "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(30*24*time.Hour),
	)
	return err
}

// Inc records a single count for the named metric. Safe to call before
// InitMetrics; the sample is dropped silently.
func Inc(name string) {
	Add(name, 1)
}

func Add(name string, value float64) {
	if storage == nil {
		return
	}
	err := storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
	if err != nil {
		zap.S().Warnf("metrics insert failed: %v", err)
	}
}

// Series returns the raw data points for a metric inside [start, end].
func Series(name string, start, end time.Time) []*tstorage.DataPoint {
	if storage == nil {
		return nil
	}
	points, err := storage.Select(name, nil, start.Unix(), end.Unix())
	if err != nil {
		return nil
	}
	return points
}

// RangeSum sums a counter metric over [start, end].
func RangeSum(name string, start, end time.Time) float64 {
	var total float64
	for _, p := range Series(name, start, end) {
		total += p.Value
	}
	return total
}

func Close() error {
	if storage == nil {
		return nil
	}
	return storage.Close()
}
