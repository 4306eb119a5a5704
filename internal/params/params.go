// Package params holds the process-wide, immutable-after-parse run
// parameters, and the line-oriented parameter-file format they are
// read from.
//
// The parameter file is a flat key:value format read with
// encoding/csv, one key per recognized field, '#' comments and blank
// lines ignored.
package params

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parameters are the process-wide thresholds and tuning knobs for one
// run. Once parsed, a Parameters value is never mutated; every
// component takes it by value or const pointer.
type Parameters struct {
	// AOL, SIM, OS are edge-classification percentage thresholds,
	// each in [1, 100].
	AOL int
	SIM int
	OS  int

	// WindowSize (k) is the k-mer bucketing prefix length.
	WindowSize int
	// ExactMatchLen (EM) is the minimum LCP-interval depth a pair
	// generator will emit.
	ExactMatchLen int

	// Open and Gap are affine gap penalties, stored as non-negative
	// internal penalty magnitudes.
	Open int
	Gap  int

	// Alphabet is the ordered Sigma used for k-mer bucketing and
	// substitution-matrix indexing.
	Alphabet string

	// SkipPrefixes are compiled regexes; any bucket whose k-mer
	// matches one of them is discarded by the enumerator.
	SkipPrefixes []*regexp.Regexp
}

// DefaultAlphabet is the 24-letter amino-acid-plus-ambiguity alphabet
// used throughout.
const DefaultAlphabet = "ARNDCQEGHILKMFPSTWYVBZX*"

// Default returns the baseline parameter set used when no parameter
// file is supplied.
func Default() Parameters {
	return Parameters{
		AOL:           80,
		SIM:           40,
		OS:            30,
		WindowSize:    3,
		ExactMatchLen: 4,
		Open:          10,
		Gap:           1,
		Alphabet:      DefaultAlphabet,
	}
}

// Validate checks that every threshold and penalty is within its
// required range.
func (p Parameters) Validate() error {
	for _, pct := range []struct {
		name string
		val  int
	}{{"AOL", p.AOL}, {"SIM", p.SIM}, {"OS", p.OS}} {
		if pct.val < 1 || pct.val > 100 {
			return errors.Errorf("params: %s must be in [1,100], got %d", pct.name, pct.val)
		}
	}
	if p.WindowSize <= 0 {
		return errors.Errorf("params: SlideWindowSize must be positive, got %d", p.WindowSize)
	}
	if p.ExactMatchLen <= 0 {
		return errors.Errorf("params: ExactMatchLen must be positive, got %d", p.ExactMatchLen)
	}
	if p.Open < 0 || p.Gap < 0 {
		return errors.Errorf("params: Open and Gap must be non-negative penalties, got open=%d gap=%d", p.Open, p.Gap)
	}
	if len(p.Alphabet) == 0 {
		return errors.New("params: Alphabet must not be empty")
	}
	return nil
}

// set dispatches one recognized parameter-file key to its field.
func (p *Parameters) set(key, val string) error {
	atoi := func() (int, error) {
		i64, err := strconv.ParseInt(strings.TrimSpace(val), 10, 32)
		if err != nil {
			return 0, errors.Wrapf(err, "params: bad integer for %s", key)
		}
		return int(i64), nil
	}

	switch key {
	case "SlideWindowSize":
		v, err := atoi()
		if err != nil {
			return err
		}
		p.WindowSize = v
	case "ExactMatchLen":
		v, err := atoi()
		if err != nil {
			return err
		}
		p.ExactMatchLen = v
	case "AlignOverLongerSeq":
		v, err := atoi()
		if err != nil {
			return err
		}
		p.AOL = v
	case "MatchSimilarity":
		v, err := atoi()
		if err != nil {
			return err
		}
		p.SIM = v
	case "OptimalScoreOverSelfScore":
		v, err := atoi()
		if err != nil {
			return err
		}
		p.OS = v
	case "Open":
		v, err := atoi()
		if err != nil {
			return err
		}
		p.Open = v
	case "Gap":
		v, err := atoi()
		if err != nil {
			return err
		}
		p.Gap = v
	case "Alphabet":
		p.Alphabet = strings.TrimSpace(val)
	case "SkipPrefixes":
		fields := strings.Fields(val)
		p.SkipPrefixes = make([]*regexp.Regexp, 0, len(fields))
		for _, f := range fields {
			re, err := regexp.Compile(f)
			if err != nil {
				return errors.Wrapf(err, "params: bad SkipPrefixes pattern %q", f)
			}
			p.SkipPrefixes = append(p.SkipPrefixes, re)
		}
	default:
		return errors.Errorf("params: unrecognized key %q", key)
	}
	return nil
}

// Load parses a parameter file: '#' comments, blank lines ignored,
// "Key: value" pairs. Unset keys keep their Default() value.
func Load(r io.Reader) (Parameters, error) {
	p := Default()

	csvReader := csv.NewReader(r)
	csvReader.Comma = ':'
	csvReader.Comment = '#'
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	for {
		line, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p, errors.Wrap(err, "params: reading parameter file")
		}
		if len(line) == 0 {
			continue
		}
		if len(line) == 1 && strings.TrimSpace(line[0]) == "" {
			continue
		}
		if len(line) < 2 {
			return p, errors.Errorf("params: malformed line %q", strings.Join(line, ":"))
		}
		key := strings.TrimSpace(line[0])
		// SkipPrefixes values may themselves contain ':' inside a
		// regex; rejoin anything past the key with ':'.
		val := strings.Join(line[1:], ":")
		if err := p.set(key, val); err != nil {
			return p, err
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Write serializes p back to the "Key: value" parameter-file format,
// so a loaded-and-rewritten file round-trips.
func (p Parameters) Write(w io.Writer) error {
	lines := []struct {
		key string
		val string
	}{
		{"SlideWindowSize", strconv.Itoa(p.WindowSize)},
		{"ExactMatchLen", strconv.Itoa(p.ExactMatchLen)},
		{"AlignOverLongerSeq", strconv.Itoa(p.AOL)},
		{"MatchSimilarity", strconv.Itoa(p.SIM)},
		{"OptimalScoreOverSelfScore", strconv.Itoa(p.OS)},
		{"Open", strconv.Itoa(p.Open)},
		{"Gap", strconv.Itoa(p.Gap)},
		{"Alphabet", p.Alphabet},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", l.key, l.val); err != nil {
			return errors.Wrap(err, "params: writing parameter file")
		}
	}
	if len(p.SkipPrefixes) > 0 {
		pats := make([]string, len(p.SkipPrefixes))
		for i, re := range p.SkipPrefixes {
			pats[i] = re.String()
		}
		if _, err := fmt.Fprintf(w, "SkipPrefixes: %s\n", strings.Join(pats, " ")); err != nil {
			return errors.Wrap(err, "params: writing parameter file")
		}
	}
	return nil
}
