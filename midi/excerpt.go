package midi

import (
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Excerpt copies the opening of a parsed MIDI file, keeping at most
// maxNotes note on/off events per track starting at ticksOffset. Meta
// and control events are kept with their deltas clamped so the excerpt
// starts almost immediately. The input is not modified.
func Excerpt(mf *smf.SMF, ticksOffset uint64, maxNotes int) *smf.SMF {
	var res smf.SMF
	res.TimeFormat = mf.TimeFormat

	for _, track := range mf.Tracks {
		var newTrack smf.Track
		var absTicks uint64
		var numNoteOnOff int
	TrackEventLoop:
		for _, evt := range track {
			absTicks += uint64(evt.Delta)
			switch {
			case evt.Message.Is(midi.NoteOnMsg),
				evt.Message.Is(midi.NoteOffMsg):
				if absTicks >= ticksOffset {
					newTrack = append(newTrack, evt)
					numNoteOnOff++
					if numNoteOnOff >= maxNotes {
						newTrack.Close(0)
						break TrackEventLoop
					}
				}
			default:
				evt.Delta = minDelta(evt.Delta, 1)
				newTrack = append(newTrack, evt)
			}
		}
		res.Tracks = append(res.Tracks, newTrack)
	}
	return &res
}

func minDelta(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
