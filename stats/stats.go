// Package stats computes note-level summary statistics over scores:
// pitch-class and key-number distributions, inter-onset and duration
// histograms, Shannon entropy and pitch-class n-grams. Everything works
// on the public score accessors, so callers can analyze any score
// regardless of how it was built.
package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/jswain/partita/score"
)

// PitchClassVector returns the proportion of notes per pitch class.
// Unpitched notes are skipped. An empty score yields the zero vector.
func PitchClassVector(s *score.Score) [12]float64 {
	var counts [12]float64
	total := 0.0
	for _, n := range score.ListAll[*score.Note](s) {
		if n.Pitch == nil {
			continue
		}
		counts[n.PitchClass()]++
		total++
	}
	if total == 0 {
		return counts
	}
	for i := range counts {
		counts[i] /= total
	}
	return counts
}

// KeyNumHistogram counts notes per MIDI key number. Unpitched notes are
// skipped.
func KeyNumHistogram(s *score.Score) map[int]int {
	res := make(map[int]int)
	for _, n := range score.ListAll[*score.Note](s) {
		if n.Pitch == nil {
			continue
		}
		res[int(n.KeyNum())]++
	}
	return res
}

// DurationHistogram counts notes per duration bin of the given width.
// A note's bin is floor(duration/binWidth).
func DurationHistogram(s *score.Score, binWidth float64) map[int]int {
	res := make(map[int]int)
	if binWidth <= 0 {
		return res
	}
	for _, n := range score.ListAll[*score.Note](s) {
		res[int(n.Duration()/binWidth)]++
	}
	return res
}

// IOIHistogram counts inter-onset intervals between successive sorted
// notes, binned by binWidth. Scores with fewer than two notes yield an
// empty histogram.
func IOIHistogram(s *score.Score, binWidth float64) (map[int]int, error) {
	res := make(map[int]int)
	if binWidth <= 0 {
		return res, nil
	}
	notes, err := s.GetSortedNotes(true)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(notes); i++ {
		ioi := notes[i].Onset() - notes[i-1].Onset()
		res[int(ioi/binWidth)]++
	}
	return res, nil
}

// Entropy is the Shannon entropy of a distribution in bits. The input
// is normalized first, so raw counts work too. An all-zero distribution
// carries no information about its outcome and maps to the maximum
// entropy log2(len(dist)).
func Entropy(dist []float64) float64 {
	if len(dist) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range dist {
		total += p
	}
	if total == 0 {
		return math.Log2(float64(len(dist)))
	}
	e := 0.0
	for _, p := range dist {
		if p == 0 {
			continue
		}
		p /= total
		e -= p * math.Log2(p)
	}
	return e
}

// PitchClassEntropy is the entropy of the score's pitch-class vector.
func PitchClassEntropy(s *score.Score) float64 {
	v := PitchClassVector(s)
	return Entropy(v[:])
}

// PitchClassNGrams counts n-grams of pitch classes over the notes in
// onset order, keyed like "0-4-7". n must be positive and ties are
// followed, so a merged chain contributes one pitch class.
func PitchClassNGrams(s *score.Score, n int) (map[string]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("stats: n-gram size must be positive, got %d", n)
	}
	// sorted notes are merged copies, so a tied chain contributes once
	notes, err := s.GetSortedNotes(true)
	if err != nil {
		return nil, err
	}
	res := make(map[string]int)
	for i := 0; i+n <= len(notes); i++ {
		parts := make([]string, 0, n)
		ok := true
		for _, note := range notes[i : i+n] {
			if note.Pitch == nil {
				ok = false
				break
			}
			parts = append(parts, fmt.Sprintf("%d", note.PitchClass()))
		}
		if ok {
			res[strings.Join(parts, "-")]++
		}
	}
	return res, nil
}
