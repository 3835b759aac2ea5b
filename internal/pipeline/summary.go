package pipeline

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/fmed-ingest/internal/core"
)

// Stage is where a dataset is in its lifecycle.
type Stage int

const (
	StageIdle Stage = iota
	StageFetching
	StageMapping
	StageLoading
)

func (s Stage) String() string {
	switch s {
	case StageFetching:
		return "fetching"
	case StageMapping:
		return "mapping"
	case StageLoading:
		return "loading"
	default:
		return "idle"
	}
}

// Outcome is the result of processing one dataset. A non-nil Err means the
// dataset stopped in Stage.
type Outcome struct {
	Name      string
	Ref       string
	Variant   core.Variant
	Partition core.Partition
	Stage     Stage
	Records   int
	Inserted  int
	Skipped   int
	Note      string
	Err       error
}

// Status is a one-word description for the report.
func (o Outcome) Status() string {
	switch {
	case o.Err != nil:
		return "failed while " + o.Stage.String()
	case o.Note != "":
		return o.Note
	default:
		return "loaded"
	}
}

// Summary collects the outcomes of one run.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	Duration time.Duration
}

// Loaded counts datasets that reached the store.
func (s Summary) Loaded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err == nil && o.Note == "" {
			n++
		}
	}
	return n
}

// Failed counts datasets that stopped with an error.
func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Inserted totals new rows across all partitions.
func (s Summary) Inserted() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.Inserted
	}
	return n
}

// Report writes a human-readable table of outcomes to w.
func (s Summary) Report(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tVARIANT\tHOSPITAL\tRECORDS\tINSERTED\tSKIPPED\tSTATUS")
	for _, o := range s.Outcomes {
		hospital := "-"
		if o.Partition > 0 {
			hospital = fmt.Sprint(int(o.Partition))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			o.Name, o.Variant, hospital, o.Records, o.Inserted, o.Skipped, o.Status())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nProcessing complete: %d loaded, %d failed, %d new records (%s)\n",
		s.Loaded(), s.Failed(), s.Inserted(), s.Duration.Round(time.Millisecond))
	return err
}
