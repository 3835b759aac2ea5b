// Package pipeline drives each catalog entry through fetch, map and load.
//
// Datasets are processed one at a time in catalog order. A failure in one
// dataset is recorded in its Outcome and the run moves on; only a failed
// authentication aborts the run before any dataset is touched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/fmed-ingest/internal/catalog"
	"github.com/JonMunkholm/fmed-ingest/internal/core"
	"github.com/JonMunkholm/fmed-ingest/internal/logging"
	"github.com/JonMunkholm/fmed-ingest/internal/store"
)

// ErrAborted is returned when the run stops before processing any dataset.
var ErrAborted = errors.New("run aborted")

// Fetcher stages remote datasets locally.
type Fetcher interface {
	Authenticate(ctx context.Context) error
	Fetch(ctx context.Context, ref, dest string) (string, error)
}

// Mapper turns a staged dataset into normalized records.
type Mapper interface {
	Map(ctx context.Context, v core.Variant, dir string) ([]core.PatientRecord, error)
}

// Loader persists records into a partition.
type Loader interface {
	Load(ctx context.Context, records []core.PatientRecord, partition core.Partition) (store.LoadResult, error)
}

// Orchestrator runs the catalog once. All fields are required.
type Orchestrator struct {
	Catalog     catalog.Catalog
	Fetcher     Fetcher
	Mapper      Mapper
	Loader      Loader
	DatasetsDir string
}

// Run authenticates, creates the datasets root and then processes every
// catalog entry in order.
// The returned error is non-nil only when the run could not start or was
// cancelled; per-dataset failures are reported in the Summary.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: logging.RunID(ctx)}
	start := time.Now()

	if o.Fetcher == nil || o.Mapper == nil || o.Loader == nil {
		return summary, fmt.Errorf("%w: orchestrator dependencies not set", ErrAborted)
	}

	log := logging.FromContext(ctx)

	if err := o.Fetcher.Authenticate(ctx); err != nil {
		log.Error("authentication failed", "error", err)
		return summary, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	if err := os.MkdirAll(o.DatasetsDir, 0o755); err != nil {
		log.Error("failed to create datasets directory", "dir", o.DatasetsDir, "error", err)
		return summary, fmt.Errorf("%w: create datasets directory: %w", ErrAborted, err)
	}

	entries := o.Catalog.Entries()
	log.Info("processing catalog", "datasets", len(entries), "dir", o.DatasetsDir)

	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("run cancelled: %w", err)
		}
		summary.Outcomes = append(summary.Outcomes, o.process(ctx, d))
	}

	summary.Duration = time.Since(start)
	log.Info("processing complete",
		"datasets", len(summary.Outcomes),
		"loaded", summary.Loaded(),
		"failed", summary.Failed(),
		"inserted", summary.Inserted(),
		"duration", summary.Duration,
	)
	return summary, nil
}

// process moves one dataset through its stages. The returned Outcome's Stage
// is the stage it stopped in, or StageIdle when every stage ran.
func (o *Orchestrator) process(ctx context.Context, d catalog.Descriptor) Outcome {
	out := Outcome{Name: d.Name, Ref: d.Ref, Variant: core.Classify(d.Name)}
	log := logging.WithFields(ctx, "dataset", d.Name, "variant", out.Variant.String())

	out.Stage = StageFetching
	dir, err := o.Fetcher.Fetch(ctx, d.Ref, filepath.Join(o.DatasetsDir, d.Name))
	if err != nil {
		log.Error("fetch failed, skipping dataset", "ref", d.Ref, "error", err)
		out.Err = err
		return out
	}

	partition, ok := core.PartitionFor(out.Variant)
	if !ok {
		log.Info("no mapping for dataset, staged only")
		out.Stage = StageIdle
		out.Note = "no mapping"
		return out
	}

	out.Partition = partition

	out.Stage = StageMapping
	records, err := o.Mapper.Map(ctx, out.Variant, dir)
	if err != nil {
		log.Error("mapping failed, skipping dataset", "error", err)
		out.Err = err
		return out
	}
	out.Records = len(records)
	if len(records) == 0 {
		out.Stage = StageIdle
		out.Note = "no records"
		return out
	}

	out.Stage = StageLoading
	res, err := o.Loader.Load(ctx, records, partition)
	if err != nil {
		log.Error("load failed", "partition", int(partition), "error", err)
		out.Err = err
		return out
	}

	out.Inserted = res.Inserted
	out.Skipped = res.Skipped
	out.Stage = StageIdle
	return out
}
