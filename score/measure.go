package score

import "fmt"

// Measure models one bar. It is a sequence of Note, Rest, Chord, Clef
// and KeySignature events and is normally an element of a Staff.
type Measure struct {
	GroupBase
	Number string
}

// NewMeasure creates a measure and inserts it into parent unless
// parent is nil. Pass Unset as onset to defer placement. The default
// duration of a measure is 4 quarters; pass Unset to use it.
func NewMeasure(parent Group, onset, duration float64, number string, content ...Event) *Measure {
	m := &Measure{Number: number}
	if IsUnset(duration) {
		duration = 4
	}
	m.initGroup(m, onset, duration, content, true)
	m.attach(parent)
	return m
}

func (m *Measure) emptyCopy() Group {
	n := &Measure{Number: m.Number}
	n.EventBase = m.copyBase(n)
	return n
}

// isWellFormed rules out members outside the strict
// Measure-(Note|Rest|Chord) hierarchy.
func (m *Measure) isWellFormed() bool {
	for _, ev := range m.content {
		switch e := ev.(type) {
		case *Score, *Part, *Staff, *Measure:
			return false
		case *Chord:
			if !e.isWellFormed() {
				return false
			}
		}
	}
	return true
}

// TimeSignature returns the score's time signature in effect at this
// measure's onset. An error is reported when the measure is not in a
// Score. The lookup nudges past the onset to dodge rounding at change
// points.
func (m *Measure) TimeSignature() (*TimeSignature, error) {
	s := ScoreOf(m)
	if s == nil {
		return nil, fmt.Errorf("score: measure has no score")
	}
	return s.findTimeSignature(m.Onset() + 0.001), nil
}

func (m *Measure) String() string {
	nstr := ""
	if m.Number != "" {
		nstr = fmt.Sprintf(", number=%s", m.Number)
	}
	return fmt.Sprintf("Measure(%s%s)", m.eventTimes(), nstr)
}
