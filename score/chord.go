package score

import "fmt"

// Chord is a concurrence of notes played together, typically the notes
// that would share a stem. Chord members usually share the chord's
// onset and duration but neither is enforced. Member notes may carry
// ties into other chords or measures.
type Chord struct {
	GroupBase
}

// NewChord creates a chord containing the given events and inserts it
// into parent unless parent is nil. Pass Unset as onset to defer
// placement, and Unset as duration to cover the content.
func NewChord(parent Group, onset, duration float64, content ...Event) *Chord {
	c := &Chord{}
	c.initGroup(c, onset, duration, content, false)
	c.attach(parent)
	return c
}

func (c *Chord) emptyCopy() Group {
	n := &Chord{}
	n.EventBase = c.copyBase(n)
	return n
}

// isWellFormed rules out members outside the Chord-Note hierarchy.
func (c *Chord) isWellFormed() bool {
	for _, ev := range c.content {
		switch ev.(type) {
		case *Score, *Part, *Staff, *Measure, *Rest, *Chord:
			return false
		}
	}
	return true
}

func (c *Chord) String() string {
	return fmt.Sprintf("Chord(%s)", c.eventTimes())
}
