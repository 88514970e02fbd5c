package score

import (
	"fmt"

	"github.com/jswain/partita/pitch"
)

// Melody describes a single line of notes for FromMelodySpec. Pitches
// is required; the timing fields are optional:
//
//   - Durations: per-note durations in quarters. A single element is
//     repeated for all notes; nil means all quarter notes.
//   - IOIs: inter-onset intervals between successive notes, one fewer
//     than Pitches. A single element is repeated. When neither IOIs
//     nor Onsets is given, the durations serve as IOIs, placing the
//     notes back to back.
//   - Onsets: explicit start times; cannot be combined with IOIs.
//   - Ties: Ties[i] true ties note i to note i+1. The last value is
//     ignored; a short or nil slice means untied.
type Melody struct {
	Pitches   []*pitch.Pitch
	Durations []float64
	IOIs      []float64
	Onsets    []float64
	Ties      []bool
}

// FromMelody creates a flat single-part score from MIDI key numbers,
// placed sequentially with the given uniform duration.
func FromMelody(keyNums []float64, duration float64) (*Score, error) {
	pitches := make([]*pitch.Pitch, len(keyNums))
	for i, k := range keyNums {
		pitches[i] = pitch.New(k)
	}
	return FromMelodySpec(Melody{
		Pitches:   pitches,
		Durations: []float64{duration},
	})
}

// FromMelodySpec creates a flat score with one part containing the
// melody's notes. Notes must not overlap.
func FromMelodySpec(m Melody) (*Score, error) {
	n := len(m.Pitches)
	if n == 0 {
		return buildMelody(nil, nil, nil, nil)
	}
	if m.IOIs != nil && m.Onsets != nil {
		return nil, fmt.Errorf("score: cannot specify both iois and onsets")
	}

	durations := m.Durations
	switch len(durations) {
	case 0:
		durations = repeat(1.0, n)
	case 1:
		durations = repeat(durations[0], n)
	case n:
	default:
		return nil, fmt.Errorf("score: got %d durations for %d pitches", len(durations), n)
	}

	var onsets []float64
	if m.Onsets != nil {
		if len(m.Onsets) != n {
			return nil, fmt.Errorf("score: got %d onsets for %d pitches", len(m.Onsets), n)
		}
		onsets = m.Onsets
	} else {
		iois := m.IOIs
		switch len(iois) {
		case 0:
			iois = durations[:n-1]
		case 1:
			iois = repeat(iois[0], n-1)
		case n - 1:
		default:
			return nil, fmt.Errorf("score: got %d iois for %d pitches; want %d",
				len(iois), n, n-1)
		}
		onsets = make([]float64, 0, n)
		t := 0.0
		onsets = append(onsets, t)
		for _, ioi := range iois {
			t += ioi
			onsets = append(onsets, t)
		}
	}
	return buildMelody(m.Pitches, onsets, durations, m.Ties)
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func buildMelody(pitches []*pitch.Pitch, onsets, durations []float64, ties []bool) (*Score, error) {
	for i := 0; i+1 < len(onsets); i++ {
		if end := onsets[i] + durations[i]; end > onsets[i+1] {
			return nil, fmt.Errorf(
				"score: notes overlap: note %d ends at %.2f but note %d starts at %.2f",
				i, end, i+1, onsets[i+1])
		}
	}
	s := NewScore()
	part := NewPart(s, 0, "", "")
	part.sequential = true
	var prev *Note
	for i, p := range pitches {
		note := NewNote(part, onsets[i], durations[i], p)
		if prev != nil && i-1 < len(ties) && ties[i-1] {
			prev.Tie = note
		}
		prev = note
	}
	end := 0.0
	for i := range onsets {
		if off := onsets[i] + durations[i]; off > end {
			end = off
		}
	}
	s.SetDuration(end)
	return s, nil
}
