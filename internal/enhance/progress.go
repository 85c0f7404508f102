package enhance

import "sync"

// Stage names one phase of the pipeline for progress accounting.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageSearch   Stage = "search"
	StageFetch    Stage = "fetch"
	StageQnA      Stage = "qna"
	StageGenerate Stage = "generate"
)

// stageSpans maps each stage's local 0-100 onto its slice of the
// overall indicator. Spans abut so a finished stage hands off exactly
// where the next one starts.
var stageSpans = map[Stage][2]int{
	StageExtract:  {0, 15},
	StageSearch:   {15, 40},
	StageFetch:    {40, 65},
	StageQnA:      {65, 80},
	StageGenerate: {80, 100},
}

// Tracker folds per-stage progress into one non-decreasing overall
// percentage. Safe for concurrent use; stages may report out of order
// or repeatedly without the indicator moving backwards.
type Tracker struct {
	mu       sync.Mutex
	overall  int
	observer func(int)
}

// NewTracker wraps an optional observer called on every increase.
func NewTracker(observer func(int)) *Tracker {
	if observer == nil {
		observer = func(int) {}
	}
	return &Tracker{observer: observer}
}

// Update reports a stage's local progress (clamped to [0,100]).
func (t *Tracker) Update(stage Stage, percent int) {
	span, ok := stageSpans[stage]
	if !ok {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	overall := span[0] + (span[1]-span[0])*percent/100
	t.advance(overall)
}

// StageDone marks a stage fully complete.
func (t *Tracker) StageDone(stage Stage) {
	t.Update(stage, 100)
}

// Complete forces the indicator to 100.
func (t *Tracker) Complete() {
	t.advance(100)
}

// Overall returns the current overall percentage.
func (t *Tracker) Overall() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overall
}

func (t *Tracker) advance(overall int) {
	t.mu.Lock()
	if overall <= t.overall {
		t.mu.Unlock()
		return
	}
	t.overall = overall
	t.mu.Unlock()

	t.observer(overall)
}
