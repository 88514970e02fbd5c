// Package midi converts between standard MIDI files and Score objects.
// Each file track becomes a flat Part holding Notes directly; tempo
// meta events populate the score's time map and meter events its time
// signatures. Times on the imported score are in quarters.
package midi

import (
	"bytes"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jswain/partita/score"
	"github.com/jswain/partita/timemap"
)

// ReadMidiFile parses the standard MIDI file at path into a Score.
func ReadMidiFile(filepath string) (s *score.Score, e error) {
	// the smf parser panics on some malformed files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "reading midi file")
	}
	mf, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "parsing midi file")
	}
	return ReadSMF(mf)
}

// openNote is a sounding note awaiting its note-off.
type openNote struct {
	onset    float64
	velocity uint8
}

// ReadSMF converts parsed MIDI data to a Score in quarters. Tracks
// without note events (tempo tracks) contribute no Part. Overlapping
// notes on the same key and channel are closed in LIFO order; notes
// still sounding at end of track are closed there.
func ReadSMF(mf *smf.SMF) (*score.Score, error) {
	ticks, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.Errorf("unsupported SMF time format %v", mf.TimeFormat)
	}
	tpq := float64(ticks.Ticks4th())

	s := score.NewScore()
	s.TimeMap = nil // replaced below so tempo events start from scratch

	type meter struct {
		quarter float64
		num     uint8
		denom   uint8
	}
	var tempoQuarters []float64
	var tempoQPMs []float64
	var meters []meter

	for trackNum, track := range mf.Tracks {
		var absTicks int64
		name := ""
		instrument := ""
		program := -1
		var notes []*score.Note
		open := make(map[uint16][]openNote)

		for _, evt := range track {
			absTicks += int64(evt.Delta)
			quarter := float64(absTicks) / tpq
			msg := evt.Message

			var channel, key, velocity uint8
			var bpm float64
			var num, denom uint8
			var text string
			switch {
			case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				slot := uint16(channel)<<8 | uint16(key)
				open[slot] = append(open[slot], openNote{quarter, velocity})
			case msg.GetNoteOn(&channel, &key, &velocity),
				msg.GetNoteOff(&channel, &key, &velocity):
				slot := uint16(channel)<<8 | uint16(key)
				stack := open[slot]
				if len(stack) == 0 {
					continue // note-off without a matching note-on
				}
				on := stack[len(stack)-1]
				open[slot] = stack[:len(stack)-1]
				n := score.NewNoteKey(nil, on.onset, quarter-on.onset, float64(key))
				n.Dynamic = int(on.velocity)
				notes = append(notes, n)
			case msg.GetMetaTempo(&bpm):
				tempoQuarters = append(tempoQuarters, quarter)
				tempoQPMs = append(tempoQPMs, bpm)
			case msg.GetMetaMeter(&num, &denom):
				meters = append(meters, meter{quarter, num, denom})
			case msg.GetMetaTrackName(&text):
				name = text
			case msg.GetMetaInstrument(&text):
				instrument = text
			case msg.GetProgramChange(&channel, &key):
				program = int(key)
			}
		}

		// close notes left sounding at the end of the track
		endQuarter := float64(absTicks) / tpq
		for slot, stack := range open {
			key := float64(slot & 0xff)
			for _, on := range stack {
				n := score.NewNoteKey(nil, on.onset, endQuarter-on.onset, key)
				n.Dynamic = int(on.velocity)
				notes = append(notes, n)
			}
		}
		if len(notes) == 0 {
			continue
		}
		if instrument == "" {
			instrument = name
		}
		part := score.NewFlatPart(s, 0, strconv.Itoa(trackNum), instrument)
		for _, n := range notes {
			part.Insert(n)
		}
		part.InheritDuration()
		if program >= 0 {
			part.Set("midi_program", program)
		}
	}

	s.TimeMap = buildTimeMap(tempoQuarters, tempoQPMs)
	for _, m := range meters {
		s.AppendTimeSignature(score.NewTimeSignature(m.quarter, float64(m.num), int(m.denom)))
	}
	s.InheritDuration()
	return s, nil
}

// buildTimeMap folds tempo meta events into a TimeMap. MIDI defaults
// to 120 qpm until the first tempo event; an event at quarter zero
// replaces that default. Files sometimes repeat tempo events across
// tracks; non-monotonic repeats are dropped.
func buildTimeMap(quarters, qpms []float64) *timemap.TimeMap {
	tm := timemap.New(120)
	for i := range quarters {
		if quarters[i] < tm.At(tm.Len()-1).Quarter {
			continue
		}
		tm.AppendChange(quarters[i], qpms[i])
	}
	return tm
}
