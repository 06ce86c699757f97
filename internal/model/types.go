// Package model defines shared data structures.
package model

import "time"

// LayoutTotals is the exported per-layout aggregate. Array index 0..4 is
// thumb, index, middle, ring, pinky.
type LayoutTotals struct {
	Left       [5]int `json:"left" yaml:"left"`
	Right      [5]int `json:"right" yaml:"right"`
	TwoHanded  int    `json:"two_handed" yaml:"two_handed"`
	LeftPress  [5]int `json:"left_press" yaml:"left_press"`
	RightPress [5]int `json:"right_press" yaml:"right_press"`
}

// Add folds o into t element-wise.
func (t *LayoutTotals) Add(o LayoutTotals) {
	for i := 0; i < 5; i++ {
		t.Left[i] += o.Left[i]
		t.Right[i] += o.Right[i]
		t.LeftPress[i] += o.LeftPress[i]
		t.RightPress[i] += o.RightPress[i]
	}
	t.TwoHanded += o.TwoHanded
}

// Load sums all ten finger loads.
func (t LayoutTotals) Load() int {
	return sum(t.Left) + sum(t.Right)
}

// Presses sums all ten press counters.
func (t LayoutTotals) Presses() int {
	return sum(t.LeftPress) + sum(t.RightPress)
}

func sum(v [5]int) int {
	total := 0
	for _, n := range v {
		total += n
	}
	return total
}

// Snapshot maps a layout name to its totals.
type Snapshot map[string]LayoutTotals

// Merge returns the element-wise sum of snapshots. Inputs are not modified.
func Merge(parts ...Snapshot) Snapshot {
	out := make(Snapshot)
	for _, p := range parts {
		for name, totals := range p {
			acc := out[name]
			acc.Add(totals)
			out[name] = acc
		}
	}
	return out
}

// Task carries one chunk of text to a worker.
type Task struct {
	RunID   string `json:"run_id,omitempty"`
	ChunkID int    `json:"chunk_id"`
	Text    string `json:"text"`
	Attempt int    `json:"attempt,omitempty"`
}

// Completion statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Completion reports that a worker finished a chunk.
type Completion struct {
	RunID     string    `json:"run_id,omitempty"`
	ChunkID   int       `json:"chunk_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// AnalyzeConfig defines how a corpus is scored.
type AnalyzeConfig struct {
	Source      string
	ChunkSize   int
	Strategy    string
	Workers     int
	Layouts     []string
	MaxAttempts int
	Timeout     time.Duration
	// Resume reuses the id and stored partials of an interrupted queue run.
	Resume string
	// Ephemeral keeps in-process queue partials in memory instead of the
	// history database.
	Ephemeral bool
}

// QueueConfig defines the Redis connection used by the queue strategy.
type QueueConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// ReportConfig defines filters and options for report output.
type ReportConfig struct {
	RunID       string
	Layout      string
	CurveWindow int
}

// Run captures one finished analysis.
type Run struct {
	ID        string
	Source    string
	Strategy  string
	ChunkSize int
	Chunks    int
	StartedAt time.Time
	EndedAt   time.Time
	Totals    Snapshot
}

// ChunkTotal is the per-layout result of a single chunk in a run.
type ChunkTotal struct {
	ChunkID int
	Layout  string
	Load    int
	Presses int
}
