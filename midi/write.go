package midi

import (
	"math"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/exp/slices"

	"github.com/jswain/partita/score"
)

// ticksPerQuarter is the resolution used for exported files.
const ticksPerQuarter = 960

// defaultVelocity is used for notes without a dynamic marking.
const defaultVelocity = 100

// WriteMidiFile renders the score as a standard MIDI file at path.
func WriteMidiFile(s *score.Score, filepath string) error {
	mf, err := WriteSMF(s)
	if err != nil {
		return err
	}
	return errors.Wrap(mf.WriteFile(filepath), "writing midi file")
}

// WriteSMF renders the score as type-1 standard MIDI data. Track zero
// carries the tempo map and time signatures; each Part becomes one
// track. Tied note chains are merged into single notes and unpitched
// notes are skipped. The score itself is not modified.
func WriteSMF(s *score.Score) (*smf.SMF, error) {
	// merge before converting: MergeTiedNotes already yields a private
	// copy, which the conversion below may then mutate freely
	c := s.MergeTiedNotes()
	if c.UnitsAreSeconds() {
		c.ConvertToQuarters()
	}

	mf := smf.New()
	mf.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var meta smf.Track
	meta.Add(0, smf.MetaTrackSequenceName("tempo"))
	addTempoTrack(&meta, c)
	meta.Close(0)
	mf.Add(meta)

	for _, part := range score.ListAll[*score.Part](c) {
		tr, err := partTrack(part)
		if err != nil {
			return nil, err
		}
		mf.Add(tr)
	}
	return mf, nil
}

// addTempoTrack appends tempo and meter meta events in tick order.
func addTempoTrack(tr *smf.Track, s *score.Score) {
	type metaEvent struct {
		tick uint32
		msg  smf.Message
	}
	var events []metaEvent
	tm := s.TimeMap
	for i := 0; i < tm.Len(); i++ {
		events = append(events, metaEvent{
			tick: quarterToTick(tm.At(i).Quarter),
			msg:  smf.MetaTempo(tm.TempoAt(i)),
		})
	}
	for _, sig := range s.TimeSignatures {
		events = append(events, metaEvent{
			tick: quarterToTick(sig.Time),
			msg:  smf.MetaMeter(uint8(math.Round(sig.Upper)), uint8(sig.Lower)),
		})
	}
	slices.SortStableFunc(events, func(a, b metaEvent) bool {
		return a.tick < b.tick
	})
	var prev uint32
	for _, ev := range events {
		tr.Add(ev.tick-prev, ev.msg)
		prev = ev.tick
	}
}

// noteEvent is a pending note on or off, before deltas are computed.
type noteEvent struct {
	tick uint32
	off  bool // offs before ons at the same tick
	key  uint8
	vel  uint8
}

func (a noteEvent) before(b noteEvent) bool {
	if a.tick != b.tick {
		return a.tick < b.tick
	}
	return a.off && !b.off
}

// partTrack renders one Part as a MIDI track on channel zero.
func partTrack(part *score.Part) (smf.Track, error) {
	var events []noteEvent
	for _, n := range score.ListAll[*score.Note](part) {
		key := n.KeyNum()
		if key < 0 {
			continue
		}
		if key > 127 {
			return nil, errors.Errorf("key number %g out of MIDI range", key)
		}
		vel := uint8(defaultVelocity)
		if n.Dynamic > 0 && n.Dynamic < 128 {
			vel = uint8(n.Dynamic)
		}
		events = append(events,
			noteEvent{quarterToTick(n.Onset()), false, uint8(key), vel},
			noteEvent{quarterToTick(n.Offset()), true, uint8(key), 0},
		)
	}
	slices.SortStableFunc(events, noteEvent.before)

	var tr smf.Track
	if part.Instrument != "" {
		tr.Add(0, smf.MetaInstrument(part.Instrument))
	}
	if part.Number != "" {
		tr.Add(0, smf.MetaTrackSequenceName(part.Number))
	}
	if program := part.Get("midi_program", -1).(int); program >= 0 && program < 128 {
		tr.Add(0, midi.ProgramChange(0, uint8(program)))
	}
	var prev uint32
	for _, ev := range events {
		delta := ev.tick - prev
		prev = ev.tick
		if ev.off {
			tr.Add(delta, midi.NoteOff(0, ev.key))
		} else {
			tr.Add(delta, midi.NoteOn(0, ev.key, ev.vel))
		}
	}
	tr.Close(0)
	return tr, nil
}

func quarterToTick(quarter float64) uint32 {
	if quarter <= 0 {
		return 0
	}
	return uint32(math.Round(quarter * ticksPerQuarter))
}
