// Package classify implements the edge classifier: the three-inequality
// AOL/SIM/OS test that decides whether an aligned pair is reported as
// an edge, plus the self-score memoization it depends on.
package classify

import (
	"sync"

	"github.com/Yatin-Singla/pgraph-tascel/internal/align"
)

// Ratios is the trio of percentage ratios the classifier computes
// alongside its verdict, for downstream scoring.
type Ratios struct {
	AOL float64
	SIM float64
	OS  float64
}

// Classify reports whether cell is an edge under thresholds aol, sim,
// os (percentages), given the pair's self-score and max_len = the
// longer of the two sequence lengths.
//
// The pair is an edge iff all three hold:
//
//	100*length >= AOL * max_len
//	100*matches >= SIM * length
//	100*score   >= OS  * self_score
func Classify(cell align.Cell, selfScore int64, maxLen int, aol, sim, os int) (bool, Ratios) {
	length := int64(cell.Length)
	r := Ratios{}
	if maxLen > 0 {
		r.AOL = 100 * float64(length) / float64(maxLen)
	}
	if length > 0 {
		r.SIM = 100 * float64(cell.Matches) / float64(length)
	}
	if selfScore > 0 {
		r.OS = 100 * float64(cell.Score) / float64(selfScore)
	}

	edge := 100*length >= int64(aol)*int64(maxLen) &&
		100*int64(cell.Matches) >= int64(sim)*length &&
		100*cell.Score >= int64(os)*selfScore

	return edge, r
}

// SelfScores memoizes self_score = nw(seq, seq) by sequence id. It is
// read by many workers concurrently and written
// at most once per id, so a single RWMutex-guarded map is enough --
// the same shared-singleton-with-lazy-fill shape as the substitution
// matrix is read-only once built.
type SelfScores struct {
	mu     sync.RWMutex
	scores map[int]int64
}

// NewSelfScores returns an empty memo table.
func NewSelfScores() *SelfScores {
	return &SelfScores{scores: make(map[int]int64)}
}

// Get returns the memoized self-score for sid, computing and storing
// it via compute if absent.
func (s *SelfScores) Get(sid int, compute func() int64) int64 {
	s.mu.RLock()
	v, ok := s.scores[sid]
	s.mu.RUnlock()
	if ok {
		return v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.scores[sid]; ok {
		return v
	}
	v = compute()
	s.scores[sid] = v
	return v
}
