package score

import "fmt"

// Staff models a musical staff, or one channel of a MIDI file track.
// It is a sequence of Measures and is normally an element of a Part.
// Number is 1 for the top staff of a part, 2 for the next, and so on;
// zero means unnumbered.
type Staff struct {
	GroupBase
	Number int
}

// NewStaff creates a staff and inserts it into parent unless parent is
// nil. Pass Unset as duration to cover the content.
func NewStaff(parent Group, onset, duration float64, number int, content ...Event) *Staff {
	s := &Staff{Number: number}
	s.initGroup(s, onset, duration, content, true)
	s.attach(parent)
	return s
}

func (s *Staff) emptyCopy() Group {
	n := &Staff{Number: s.Number}
	n.EventBase = s.copyBase(n)
	return n
}

// isWellFormed rules out members outside the strict
// Staff-Measure-(Note|Rest|Chord) hierarchy.
func (s *Staff) isWellFormed() bool {
	for _, ev := range s.content {
		switch e := ev.(type) {
		case *Score, *Part, *Staff, *Note, *Rest, *Chord:
			return false
		case *Measure:
			if !e.isWellFormed() {
				return false
			}
		}
	}
	return true
}

// RemoveMeasures lifts notes and key signatures out of this staff's
// measures to become direct content, discarding the measures and
// everything else they contain. The staff is modified in place, so
// ties should be merged first; see Part.RemoveMeasures.
func (s *Staff) RemoveMeasures() *Staff {
	var newContent []Event
	for _, ev := range s.content {
		if m, ok := ev.(*Measure); ok {
			for _, inner := range m.Content() {
				switch inner.(type) {
				case *Note, *KeySignature:
					newContent = append(newContent, inner)
				}
			}
		} else {
			newContent = append(newContent, ev)
		}
	}
	for _, ev := range newContent {
		ev.setParent(s)
	}
	s.content = newContent
	return s
}

func (s *Staff) String() string {
	nstr := ""
	if s.Number != 0 {
		nstr = fmt.Sprintf(", number=%d", s.Number)
	}
	return fmt.Sprintf("Staff(%s%s)", s.eventTimes(), nstr)
}
