package driver

import (
	"sort"
	"sync"
	"time"

	"github.com/Yatin-Singla/pgraph-tascel/internal/align"
	"github.com/Yatin-Singla/pgraph-tascel/internal/classify"
	"github.com/Yatin-Singla/pgraph-tascel/internal/enumerate"
	"github.com/Yatin-Singla/pgraph-tascel/internal/params"
	"github.com/Yatin-Singla/pgraph-tascel/internal/scorer"
	"github.com/Yatin-Singla/pgraph-tascel/internal/seqstore"
	"github.com/Yatin-Singla/pgraph-tascel/internal/suffix"
	"github.com/Yatin-Singla/pgraph-tascel/internal/taskqueue"
	"github.com/pkg/errors"
)

var errNilScorer = errors.New("driver: Config.Scorer must not be nil")

// Config is everything a run of the pipeline needs beyond the raw
// FASTA records: parameters, the substitution scorer, and the knobs
// the two cmd/ binaries expose as flags.
type Config struct {
	Params params.Parameters
	Scorer *scorer.Matrix
	Mode   align.Mode
	// Layout defaults to align.Escalate(align.Scan) when nil.
	Layout align.Layout
	// Width is the initial lane precision every alignment starts at
	// before Escalate widens it on saturation. Defaults to Width8.
	Width align.Width

	// Delim defaults to seqstore.Sentinel.
	Delim byte

	Workers        int
	StealAttempts  int
	SpillThreshold int

	// CutoffOverride, when set, overrides Params.ExactMatchLen for
	// this run without mutating the loaded parameter set (the -c
	// flag).
	CutoffOverride *int

	// UseTree selects the bucketed suffix-tree/lset enumerator
	// (enumerate.BucketedTree) over the default BWT bottom-up form
	// (enumerate.BottomUp). Both implement the same left-maximality
	// filter; the tree form additionally honors Params.WindowSize
	// bucketing and discards buckets matching Params.SkipPrefixes.
	UseTree bool

	// CounterMode runs the brute-force path: every (i,j) pair is a
	// task, addressed by a dense task id run through
	// taskqueue.InverseCombination, instead of pruning via the
	// suffix/LCP enumerator.
	CounterMode bool
	// Selectivity, in CounterMode, is the fraction of the full N*(N-1)/2
	// task space actually aligned. Zero means "align everything".
	Selectivity float64

	Logger *Logger
}

// Edge is one reported alignment: the pair of sequence indices into the
// Store, the DP cell it produced, and the classifier's ratio trio.
type Edge struct {
	A, B   int
	Cell   align.Cell
	Ratios classify.Ratios
}

// PhaseTiming is one named phase's wall-clock duration, recorded
// around pack/index, suffix-index construction, enumeration, and
// alignment.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// Result is everything a run produces: the edge set, the pairs whose
// scores saturated even the wide lane (reported, but never
// classified), and per-phase timings, for cmd/ binaries to report.
type Result struct {
	Edges          []Edge
	SaturatedPairs []Edge
	Timings        []PhaseTiming
	PairsExamined  int64
}

func (c Config) layout() align.Layout {
	if c.Layout != nil {
		return c.Layout
	}
	return align.Escalate(align.Scan)
}

func (c Config) width() align.Width {
	if c.Width == 0 {
		return align.Width8
	}
	return c.Width
}

func (c Config) delim() byte {
	if c.Delim == 0 {
		return seqstore.Sentinel
	}
	return c.Delim
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}

func (c Config) cutoff() int {
	if c.CutoffOverride != nil {
		return *c.CutoffOverride
	}
	return c.Params.ExactMatchLen
}

func (c Config) logger() *Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &Logger{}
}

// Run executes the full 8-phase pipeline over records: pack and index
// the sequence store, build the candidate pair
// set (filtered via suffix/LCP/BWT, or every pair in counter mode),
// partition those pairs across a work-stealing executor, align and
// classify each one, and return the edge set plus phase timings.
func Run(cfg Config, records []seqstore.Record) (*Result, error) {
	log := cfg.logger()
	res := &Result{}
	timed := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		res.Timings = append(res.Timings, PhaseTiming{Name: name, Duration: time.Since(start)})
		log.Vprintf("driver: phase %q took %s\n", name, time.Since(start))
		return err
	}

	// Phase 1: initialize. Validate parameters and the scorer up
	// front so every later phase can assume they hold.
	if err := timed("initialize", func() error {
		if err := cfg.Params.Validate(); err != nil {
			return Fail(ErrKindParams, "validating run parameters", err)
		}
		if cfg.Scorer == nil {
			return Fail(ErrKindParams, "initializing", errNilScorer)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Phase 2: pack the FASTA records into one sentinel-delimited
	// buffer and index it (seqstore.Pack + seqstore.New -- the
	// single-process, heap-backed entry point; OpenMapped is used by
	// callers that need cross-process sharing).
	var store *seqstore.Store
	if err := timed("pack+index", func() error {
		packed, err := seqstore.Pack(records, cfg.delim())
		if err != nil {
			return Fail(ErrKindMalformedInput, "packing fasta records", err)
		}
		store, err = seqstore.New(packed, cfg.delim())
		if err != nil {
			return Fail(ErrKindMalformedInput, "indexing packed buffer", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	defer store.Close()

	// Phase 3+4: decide brute-force vs. filtered mode, and build
	// whichever candidate pair set that mode needs.
	var tasks []taskqueue.Task
	if cfg.CounterMode {
		if err := timed("counter-tasks", func() error {
			tasks = counterTasks(store.Size(), cfg.Selectivity)
			return nil
		}); err != nil {
			return nil, err
		}
	} else {
		var idx *suffix.Index
		if err := timed("suffix-index", func() error {
			var err error
			idx, err = suffix.Build(store.Bytes(), cfg.delim())
			if err != nil {
				return Fail(ErrKindMalformedInput, "building suffix/LCP/BWT index", err)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		if err := timed("enumerate", func() error {
			var pairs []enumerate.Pair
			if cfg.UseTree {
				pairs = enumerate.BucketedTree(idx, cfg.Params.Alphabet,
					cfg.Params.WindowSize, cfg.cutoff(), cfg.Params.SkipPrefixes)
			} else {
				pairs = enumerate.BottomUp(idx, cfg.cutoff())
			}
			tasks = make([]taskqueue.Task, len(pairs))
			for i, p := range pairs {
				tasks[i] = taskqueue.Task{I: p.B, J: p.A}
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	res.PairsExamined = int64(len(tasks))

	// Phase 6 (handler setup): each worker aligns, scores, and
	// classifies its claimed tasks, accumulating into its own edge
	// slice so no lock is needed on the hot path.
	workerEdges := make([][]Edge, cfg.workers())
	workerSaturated := make([][]Edge, cfg.workers())
	selfScores := classify.NewSelfScores()
	layout := cfg.layout()
	width := cfg.width()
	var handleErr error
	var handleErrOnce sync.Once
	ex := taskqueue.NewExecutor(cfg.workers(), func(worker int, t taskqueue.Task) {
		a, b := int(t.J), int(t.I)
		qSeq, rSeq := store.Residues(a), store.Residues(b)
		cell, err := layout.Align(qSeq, rSeq, cfg.Scorer.Score, cfg.Params.Open, cfg.Params.Gap, cfg.Mode, width)
		if err != nil {
			handleErrOnce.Do(func() { handleErr = Fail(ErrKindAlign, "aligning pair", err) })
			return
		}
		if cell.Saturated {
			// Saturated even after escalation: the numeric score is
			// unusable for classification, so the pair is reported
			// with the flag instead of being classified.
			workerSaturated[worker] = append(workerSaturated[worker], Edge{A: a, B: b, Cell: cell})
			return
		}
		// With m, n the two lengths and m <= n, self_score =
		// nw(seq1, seq1) where seq1 is the shorter sequence, and
		// max_len = n (the longer length).
		var self int64
		var maxLen int
		if len(qSeq) <= len(rSeq) {
			self = selfScores.Get(a, func() int64 { return selfScore(layout, qSeq, cfg, width) })
			maxLen = len(rSeq)
		} else {
			self = selfScores.Get(b, func() int64 { return selfScore(layout, rSeq, cfg, width) })
			maxLen = len(qSeq)
		}
		isEdge, ratios := classify.Classify(cell, self, maxLen, cfg.Params.AOL, cfg.Params.SIM, cfg.Params.OS)
		if isEdge {
			workerEdges[worker] = append(workerEdges[worker], Edge{A: a, B: b, Cell: cell, Ratios: ratios})
		}
	})
	if cfg.StealAttempts > 0 {
		ex.StealAttempts = cfg.StealAttempts
	}
	ex.SetSpillThreshold(cfg.SpillThreshold)
	// Phase 5: partition pairs across workers, round-robin by global
	// task index.
	if err := timed("partition", func() error {
		for i, t := range tasks {
			ex.Assign(i%ex.NumWorkers(), t)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if err := timed("align+classify", func() error {
		ex.Run()
		return handleErr
	}); err != nil {
		return nil, err
	}

	// Phase 7: gather stats -- merge per-worker edge lists into one
	// deterministically ordered result.
	if err := timed("gather", func() error {
		for _, we := range workerEdges {
			res.Edges = append(res.Edges, we...)
		}
		for _, ws := range workerSaturated {
			res.SaturatedPairs = append(res.SaturatedPairs, ws...)
		}
		sort.Slice(res.Edges, func(i, j int) bool {
			if res.Edges[i].A != res.Edges[j].A {
				return res.Edges[i].A < res.Edges[j].A
			}
			return res.Edges[i].B < res.Edges[j].B
		})
		log.Vprintf("driver: %d edges from %d candidate pairs\n", len(res.Edges), res.PairsExamined)
		return nil
	}); err != nil {
		return nil, err
	}

	// Phase 8 (teardown) is the deferred store.Close() above, plus
	// whatever shared-memory Unlink the caller performs once every
	// worker on the node has exited.
	return res, nil
}

// selfScore computes nw(seq, seq): self_score is always the global
// ("nw") boundary condition regardless of the run's configured Mode.
func selfScore(layout align.Layout, seq []byte, cfg Config, width align.Width) int64 {
	c, err := layout.Align(seq, seq, cfg.Scorer.Score, cfg.Params.Open, cfg.Params.Gap, align.Global, width)
	if err != nil {
		return 0
	}
	return c.Score
}

// counterTasks builds the brute-force task list for N sequences,
// selecting the first SelectedCount(n, selectivity) task ids under the
// inverse-2-combination unranking. selectivity <= 0 means "every pair".
func counterTasks(n int, selectivity float64) []taskqueue.Task {
	c := taskqueue.NewCounter(n)
	total := c.Total()
	want := total
	if selectivity > 0 {
		want = taskqueue.SelectedCount(n, selectivity)
	}
	tasks := make([]taskqueue.Task, 0, want)
	for tid := int64(0); tid < want; tid++ {
		i, j := taskqueue.InverseCombination(tid)
		tasks = append(tasks, taskqueue.Task{I: int32(i), J: int32(j)})
	}
	return tasks
}
