package score

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnsetAccess(t *testing.T) {
	n := NewNote(nil, Unset, 1.0, nil)
	assert.False(t, n.HasOnset())
	assert.Panics(t, func() { n.Onset() })
	assert.Panics(t, func() { n.Offset() })

	n.SetOnset(2.0)
	assert.True(t, n.HasOnset())
	assert.Equal(t, 2.0, n.Onset())
	assert.Equal(t, 3.0, n.Offset())

	n.SetOffset(4.5)
	assert.Equal(t, 2.5, n.Duration())

	assert.Panics(t, func() { n.SetOnset(Unset) })
}

func TestSequentialPlacement(t *testing.T) {
	m := NewMeasure(nil, 0, Unset, "",
		NewNoteKey(nil, Unset, 1.0, 60),
		NewNoteKey(nil, Unset, 0.5, 62),
		NewNoteKey(nil, Unset, 1.5, 64),
	)
	onsets := []float64{}
	for _, ev := range m.Content() {
		onsets = append(onsets, ev.Onset())
	}
	assert.Equal(t, []float64{0, 1.0, 1.5}, onsets)
	assert.Equal(t, 4.0, m.Duration()) // measures default to 4 quarters
}

func TestConcurrentPlacement(t *testing.T) {
	c := NewChord(nil, 3.0, Unset,
		NewNoteKey(nil, Unset, 1.0, 60),
		NewNoteKey(nil, Unset, 1.0, 64),
		NewNoteKey(nil, Unset, 1.0, 67),
	)
	for _, ev := range c.Content() {
		assert.Equal(t, 3.0, ev.Onset())
	}
	assert.Equal(t, 1.0, c.Duration())
	assert.Equal(t, 4.0, c.Offset())
}

func TestDeferredShiftHappensOnce(t *testing.T) {
	m := NewMeasure(nil, Unset, Unset, "",
		NewNoteKey(nil, Unset, 1.0, 60),
		NewNoteKey(nil, Unset, 1.0, 62),
		NewNoteKey(nil, Unset, 1.0, 64),
	)
	// children are placed relative to zero while the onset is unset
	assert.Equal(t, 0.0, m.Content()[0].Onset())
	assert.Equal(t, 2.0, m.Content()[2].Onset())

	m.SetOnset(10)
	assert.Equal(t, 10.0, m.Content()[0].Onset())
	assert.Equal(t, 12.0, m.Content()[2].Onset())

	// a second assignment moves only the measure itself
	m.SetOnset(20)
	assert.Equal(t, 20.0, m.Onset())
	assert.Equal(t, 10.0, m.Content()[0].Onset())
	assert.Equal(t, 12.0, m.Content()[2].Onset())
}

func TestConstructionChecks(t *testing.T) {
	n := NewNoteKey(nil, 0, 1.0, 60)
	NewMeasure(nil, 0, Unset, "", n)
	// an owned event cannot be adopted again
	assert.Panics(t, func() { NewMeasure(nil, 0, Unset, "", n) })

	// children must arrive in onset order
	assert.Panics(t, func() {
		NewMeasure(nil, 0, Unset, "",
			NewNoteKey(nil, 2.0, 1.0, 60),
			NewNoteKey(nil, 1.0, 1.0, 62),
		)
	})

	// a child cannot start before the group's onset
	assert.Panics(t, func() {
		NewMeasure(nil, 5.0, Unset, "", NewNoteKey(nil, 1.0, 1.0, 60))
	})
}

func TestInsertKeepsOnsetOrder(t *testing.T) {
	p := NewPart(nil, 0, "", "")
	first := NewNoteKey(p, 0, 1.0, 60)
	third := NewNoteKey(p, 2.0, 1.0, 64)
	second := NewNoteKey(p, 1.0, 1.0, 62)
	assert.Equal(t, []Event{first, second, third}, p.Content())

	// equal onsets append after existing ones
	alsoSecond := NewNoteKey(p, 1.0, 1.0, 66)
	assert.Equal(t, []Event{first, second, alsoSecond, third}, p.Content())

	assert.Panics(t, func() { p.Insert(NewNoteKey(nil, Unset, 1.0, 60)) })
}

func TestRemove(t *testing.T) {
	p := NewPart(nil, 0, "", "")
	n := NewNoteKey(p, 0, 1.0, 60)
	p.Remove(n)
	assert.Nil(t, n.Parent())
	assert.Empty(t, p.Content())
	assert.Panics(t, func() { p.Remove(n) })
}

func TestTimeShiftMovesSubtree(t *testing.T) {
	m := NewMeasure(nil, 0, Unset, "",
		NewNoteKey(nil, Unset, 1.0, 60),
		NewNoteKey(nil, Unset, 1.0, 62),
	)
	m.TimeShift(1.5)
	assert.Equal(t, 1.5, m.Onset())
	assert.Equal(t, 1.5, m.Content()[0].Onset())
	assert.Equal(t, 2.5, m.Content()[1].Onset())
}

func TestFindAllDoesNotRecurseIntoMatches(t *testing.T) {
	inner := NewPart(nil, 0, "inner", "")
	NewNoteKey(inner, 0, 1.0, 60)
	outer := NewPart(nil, 0, "outer", "", inner)
	s := NewScore(outer)

	parts := ListAll[*Part](s)
	assert.Len(t, parts, 1)
	assert.Equal(t, "outer", parts[0].Number)

	// notes inside the matched part are still reachable directly
	assert.Len(t, ListAll[*Note](s), 1)
	assert.True(t, HasInstance[*Note](s))
	assert.False(t, HasInstance[*Rest](s))
}

func TestInfoMap(t *testing.T) {
	s := NewScore()
	assert.False(t, s.Has("title"))
	assert.Equal(t, "none", s.Get("title", "none"))
	s.Set("title", "Partita No. 2").Set("composer", "J. S. Bach")
	assert.True(t, s.Has("title"))
	assert.Equal(t, "Partita No. 2", s.Get("title", "none"))
}

func TestParentClimbing(t *testing.T) {
	n := NewNoteKey(nil, Unset, 1.0, 60)
	m := NewMeasure(nil, Unset, Unset, "1", n)
	st := NewStaff(nil, 0, Unset, 1, m)
	p := NewPart(nil, 0, "", "piano", st)
	s := NewScore(p)

	assert.Equal(t, m, MeasureOf(n))
	assert.Equal(t, st, StaffOf(n))
	assert.Equal(t, p, PartOf(n))
	assert.Equal(t, s, ScoreOf(n))
	assert.Equal(t, s, ScoreOf(p))

	detached := NewPart(nil, 0, "", "")
	assert.Nil(t, ScoreOf(detached))
	assert.Nil(t, PartOf(detached))
	assert.True(t, n.UnitsAreQuarters())
	assert.False(t, n.UnitsAreSeconds())
}

func TestShowWritesTree(t *testing.T) {
	s := NewScore(NewPart(nil, 0, "", "", NewNoteKey(nil, 0, 1.0, 60)))
	var buf bytes.Buffer
	s.Show(&buf, 0)
	out := buf.String()
	assert.Contains(t, out, "Score(")
	assert.Contains(t, out, "Part(")
	assert.Contains(t, out, "pitch=C4/60")
	assert.Contains(t, out, "TimeMap:")
}
