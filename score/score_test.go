package score

import (
	"testing"

	"github.com/jswain/partita/pitch"
	"github.com/jswain/partita/timemap"
	"github.com/stretchr/testify/assert"
)

func TestFromMelody(t *testing.T) {
	s, err := FromMelody([]float64{60, 62, 64, 65}, 1.0)
	assert.NoError(t, err)
	assert.True(t, s.IsFlat())
	assert.Equal(t, 4.0, s.Duration())

	notes := ListAll[*Note](s)
	assert.Len(t, notes, 4)
	for i, n := range notes {
		assert.Equal(t, float64(i), n.Onset())
		assert.Equal(t, 1.0, n.Duration())
	}
	assert.Equal(t, 60.0, notes[0].KeyNum())
}

func TestFromMelodySpec(t *testing.T) {
	pitches := func(keys ...float64) []*pitch.Pitch {
		out := make([]*pitch.Pitch, len(keys))
		for i, k := range keys {
			out[i] = pitch.New(k)
		}
		return out
	}

	s, err := FromMelodySpec(Melody{
		Pitches:   pitches(60, 62, 64),
		Durations: []float64{0.5, 1.0, 2.0},
	})
	assert.NoError(t, err)
	assert.Equal(t, 3.5, s.Duration())

	s, err = FromMelodySpec(Melody{
		Pitches:   pitches(60, 62, 64),
		Durations: []float64{1.0},
		IOIs:      []float64{2.0},
	})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, s.Duration())

	s, err = FromMelodySpec(Melody{
		Pitches: pitches(60, 62, 64),
		Onsets:  []float64{0, 2, 4},
	})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, s.Duration())

	s, err = FromMelodySpec(Melody{
		Pitches: pitches(60, 60, 62),
		Ties:    []bool{true, false},
	})
	assert.NoError(t, err)
	notes := ListAll[*Note](s)
	assert.Equal(t, notes[1], notes[0].Tie)
	assert.Nil(t, notes[1].Tie)

	s, err = FromMelodySpec(Melody{})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, s.Duration())
	assert.Equal(t, 1, s.PartCount())
}

func TestFromMelodySpecErrors(t *testing.T) {
	p := []*pitch.Pitch{pitch.New(60), pitch.New(62)}

	_, err := FromMelodySpec(Melody{Pitches: p, IOIs: []float64{1}, Onsets: []float64{0, 1}})
	assert.Error(t, err)

	_, err = FromMelodySpec(Melody{Pitches: p, Durations: []float64{1, 1, 1}})
	assert.Error(t, err)

	_, err = FromMelodySpec(Melody{Pitches: p, Onsets: []float64{0}})
	assert.Error(t, err)

	// overlapping notes are rejected
	_, err = FromMelodySpec(Melody{Pitches: p, Durations: []float64{2.0}, IOIs: []float64{1.0}})
	assert.Error(t, err)
}

func TestFlattenCollapse(t *testing.T) {
	s, _, _ := fullScore()
	flat := s.Flatten(true)

	assert.True(t, flat.IsFlatAndCollapsed())
	part := flat.Content()[0].(*Part)
	assert.Equal(t, "piano", part.Instrument)

	notes := ListAll[*Note](flat)
	assert.Len(t, notes, 3)
	assert.Equal(t, []float64{0, 0.5, 1.5},
		[]float64{notes[0].Onset(), notes[1].Onset(), notes[2].Onset()})
	assert.Equal(t, 1.0, notes[1].Duration()) // merged tie
	assert.Equal(t, 2.0, part.Duration())

	// the source score is untouched
	assert.True(t, s.HasMeasures())
}

func TestFlattenKeepsParts(t *testing.T) {
	s, _, _ := fullScore()
	NewPart(s, 0, "", "violin", NewNoteKey(nil, 0, 4.0, 72))
	flat := s.Flatten(false)

	assert.True(t, flat.IsFlat())
	assert.Equal(t, 2, flat.PartCount())

	// mixed instruments collapse to an unnamed part
	collapsed := s.Flatten(true)
	assert.Equal(t, "", collapsed.Content()[0].(*Part).Instrument)
	assert.Equal(t, 1, collapsed.PartCount())
}

func TestGetSortedNotes(t *testing.T) {
	s, _, _ := fullScore()
	notes, err := s.GetSortedNotes(true)
	assert.NoError(t, err)
	assert.Len(t, notes, 3)

	// untied access on a score with ties is an error
	_, err = s.GetSortedNotes(false)
	assert.Error(t, err)

	flat := s.Flatten(true)
	notes, err = flat.GetSortedNotes(false)
	assert.NoError(t, err)
	assert.Len(t, notes, 3)
}

func TestUnitConversionRoundTrip(t *testing.T) {
	s, err := FromMelody([]float64{60, 62, 64, 65}, 1.0)
	assert.NoError(t, err)
	s.TimeMap = timemap.New(120)
	s.TimeMap.AppendChange(2.0, 60.0)
	s.AppendTimeSignature(NewTimeSignature(2.0, 3, 4))

	s.ConvertToSeconds()
	assert.True(t, s.UnitsAreSeconds())
	notes := ListAll[*Note](s)
	// quarters 0,1 at 120qpm take 0.5s each; quarters 2,3 at 60 take 1s
	assert.InDelta(t, 0.5, notes[1].Onset(), 1e-9)
	assert.InDelta(t, 1.0, notes[2].Onset(), 1e-9)
	assert.InDelta(t, 2.0, notes[3].Onset(), 1e-9)
	assert.InDelta(t, 1.0, notes[3].Duration(), 1e-9)
	assert.InDelta(t, 1.0, s.TimeSignatures[1].Time, 1e-9)

	// converting twice is a no-op
	s.ConvertToSeconds()
	assert.InDelta(t, 0.5, notes[1].Onset(), 1e-9)

	s.ConvertToQuarters()
	assert.True(t, s.UnitsAreQuarters())
	for i, n := range notes {
		assert.InDelta(t, float64(i), n.Onset(), 1e-9)
		assert.InDelta(t, 1.0, n.Duration(), 1e-9)
	}
	assert.InDelta(t, 2.0, s.TimeSignatures[1].Time, 1e-9)
}

func TestPackSequentialAndConcurrent(t *testing.T) {
	// flat score with gaps
	s, err := FromMelodySpec(Melody{
		Pitches: []*pitch.Pitch{pitch.New(60), pitch.New(62), pitch.New(64)},
		Onsets:  []float64{0, 2, 4},
	})
	assert.NoError(t, err)
	dur := s.Pack(0, true)
	assert.Equal(t, 3.0, dur)
	notes := ListAll[*Note](s)
	assert.Equal(t, []float64{0, 1, 2},
		[]float64{notes[0].Onset(), notes[1].Onset(), notes[2].Onset()})

	// a chord packs its members concurrently
	c := NewChord(nil, 5.0, Unset,
		NewNoteKey(nil, 6.0, 1.0, 60),
		NewNoteKey(nil, 7.0, 2.0, 64),
	)
	assert.Equal(t, 2.0, c.Pack(0))
	assert.Equal(t, 0.0, c.Content()[0].Onset())
	assert.Equal(t, 0.0, c.Content()[1].Onset())
}

func TestCollapseParts(t *testing.T) {
	s, _, _ := fullScore()
	NewPart(s, 0, "2", "violin", NewNoteKey(nil, 0, 4.0, 72))

	// select by instrument
	collapsed, err := s.CollapseParts(PartInstrument("violin"), nil, true)
	assert.NoError(t, err)
	notes := ListAll[*Note](collapsed)
	assert.Len(t, notes, 1)
	assert.Equal(t, 72.0, notes[0].KeyNum())

	// select by index: the piano part with the tie chain
	collapsed, err = s.CollapseParts(PartIndex(0), nil, true)
	assert.NoError(t, err)
	assert.Len(t, ListAll[*Note](collapsed), 3)
	assert.True(t, collapsed.IsFlatAndCollapsed())

	// staff selection needs a part selection
	_, err = s.CollapseParts(nil, StaffNumber(1), true)
	assert.Error(t, err)

	collapsed, err = s.CollapseParts(PartIndex(0), StaffNumber(1), true)
	assert.NoError(t, err)
	assert.Len(t, ListAll[*Note](collapsed), 3)

	// the flat violin part has no staffs to select
	_, err = s.CollapseParts(PartNumber("2"), StaffIndex(0), true)
	assert.Error(t, err)
}

func TestCalcDifferences(t *testing.T) {
	s, err := FromMelodySpec(Melody{
		Pitches: []*pitch.Pitch{pitch.New(60), pitch.New(64), pitch.New(62)},
		Onsets:  []float64{0, 1, 3},
	})
	assert.NoError(t, err)

	all, err := s.CalcDifferences([]string{DiffIOI, DiffIOIRatio, DiffInterval})
	assert.NoError(t, err)
	assert.Len(t, all, 1)
	notes := all[0]

	assert.Nil(t, notes[0].Get(DiffIOI, "missing"))
	assert.Equal(t, 1.0, notes[1].Get(DiffIOI, nil))
	assert.Equal(t, 2.0, notes[2].Get(DiffIOI, nil))
	assert.Nil(t, notes[1].Get(DiffIOIRatio, "missing"))
	assert.Equal(t, 2.0, notes[2].Get(DiffIOIRatio, nil))
	assert.Equal(t, 4.0, notes[1].Get(DiffInterval, nil))
	assert.Equal(t, -2.0, notes[2].Get(DiffInterval, nil))

	_, err = s.CalcDifferences([]string{"bogus"})
	assert.Error(t, err)
}

func TestTimeSignatures(t *testing.T) {
	s := NewScore()
	assert.Equal(t, 4.0, s.TimeSignatures[0].Quarters())

	s.AppendTimeSignature(NewTimeSignature(8.0, 6, 8))
	assert.Len(t, s.TimeSignatures, 2)
	assert.Equal(t, 3.0, s.TimeSignatures[1].Quarters())

	// a change at (nearly) the same time replaces the last one
	s.AppendTimeSignature(NewTimeSignature(8.001, 3, 4))
	assert.Len(t, s.TimeSignatures, 2)
	assert.Equal(t, 3.0, s.TimeSignatures[1].Upper)

	m := NewMeasure(nil, Unset, Unset, "",
		NewNoteKey(nil, Unset, 1.0, 60))
	NewPart(s, 0, "", "", NewStaff(nil, 0, Unset, 1, m))
	ts, err := m.TimeSignature()
	assert.NoError(t, err)
	assert.Equal(t, 4.0, ts.Upper)

	orphan := NewMeasure(nil, 0, Unset, "")
	_, err = orphan.TimeSignature()
	assert.Error(t, err)
}

func TestNoteContainers(t *testing.T) {
	s, _, _ := fullScore()
	containers := s.NoteContainers()
	assert.Len(t, containers, 1)
	_, isStaff := containers[0].(*Staff)
	assert.True(t, isStaff)

	flat := s.Flatten(true)
	containers = flat.NoteContainers()
	assert.Len(t, containers, 1)
	_, isPart := containers[0].(*Part)
	assert.True(t, isPart)

	// empty parts are not containers
	NewPart(flat, 0, "", "")
	assert.Len(t, flat.NoteContainers(), 1)
}

func TestMonophony(t *testing.T) {
	s, err := FromMelody([]float64{60, 62, 64}, 1.0)
	assert.NoError(t, err)
	assert.True(t, s.PartsAreMonophonic())

	p := ListAll[*Part](s)[0]
	NewNoteKey(p, 0.5, 2.0, 70)
	assert.False(t, s.PartsAreMonophonic())
	assert.False(t, p.IsMonophonic())
}

func TestWellFormedFullScore(t *testing.T) {
	s, _, _ := fullScore()
	assert.True(t, s.IsWellFormedFullScore())
	assert.False(t, s.IsFlat())

	flat := s.Flatten(true)
	assert.True(t, flat.IsFlat())
	assert.False(t, flat.IsWellFormedFullScore())

	// a note directly in a score breaks the full hierarchy
	bad := NewScore(NewNoteKey(nil, 0, 1.0, 60))
	assert.False(t, bad.IsWellFormedFullScore())
	assert.False(t, bad.IsFlat())
}
