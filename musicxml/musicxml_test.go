package musicxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jswain/partita/score"
)

const demoDoc = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <movement-title>Study</movement-title>
  <identification><creator type="composer">A. Composer</creator></identification>
  <part-list>
    <score-part id="P1"><part-name>Piano</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>2</divisions>
        <key><fifths>2</fifths></key>
        <time><beats>4</beats><beat-type>4</beat-type></time>
        <clef><sign>G</sign><line>2</line></clef>
      </attributes>
      <sound tempo="90"/>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>4</duration></note>
      <note><chord/><pitch><step>E</step><octave>4</octave></pitch><duration>4</duration></note>
      <note><rest/><duration>2</duration></note>
      <note><pitch><step>F</step><alter>1</alter><octave>4</octave></pitch><duration>2</duration><tie type="start"/></note>
    </measure>
    <measure number="2">
      <note><pitch><step>F</step><alter>1</alter><octave>4</octave></pitch><duration>2</duration><tie type="stop"/></note>
      <note><pitch><step>G</step><octave>4</octave></pitch><duration>6</duration></note>
    </measure>
  </part>
</score-partwise>`

func TestReadMusicXML(t *testing.T) {
	s, err := ReadMusicXML(strings.NewReader(demoDoc))
	assert.NoError(t, err)

	assert.Equal(t, "Study", s.Get("title", ""))
	assert.Equal(t, "A. Composer", s.Get("composer", ""))

	parts := score.ListAll[*score.Part](s)
	assert.Len(t, parts, 1)
	assert.Equal(t, "P1", parts[0].Number)
	assert.Equal(t, "Piano", parts[0].Instrument)

	measures := score.ListAll[*score.Measure](s)
	assert.Len(t, measures, 2)
	assert.Equal(t, 0.0, measures[0].Onset())
	assert.Equal(t, 4.0, measures[0].Duration())
	assert.Equal(t, 4.0, measures[1].Onset())
	assert.Equal(t, "2", measures[1].Number)
	assert.Equal(t, 8.0, s.Duration())
}

func TestReadMusicXMLNotes(t *testing.T) {
	s, err := ReadMusicXML(strings.NewReader(demoDoc))
	assert.NoError(t, err)

	// a half note at divisions=2 spans two quarters
	notes := score.ListAll[*score.Note](s)
	assert.Len(t, notes, 5)
	assert.Equal(t, "C4", notes[0].NameWithOctave())
	assert.Equal(t, 2.0, notes[0].Duration())

	chords := score.ListAll[*score.Chord](s)
	assert.Len(t, chords, 1)
	assert.Len(t, chords[0].Content(), 2)
	assert.Equal(t, 0.0, chords[0].Onset())

	rests := score.ListAll[*score.Rest](s)
	assert.Len(t, rests, 1)
	assert.Equal(t, 2.0, rests[0].Onset())
	assert.Equal(t, 1.0, rests[0].Duration())

	// F#4 ties across the bar line
	assert.Equal(t, "F#4", notes[2].NameWithOctave())
	assert.Equal(t, notes[3], notes[2].Tie)
	assert.Equal(t, 2.0, notes[2].TiedDuration())
	assert.Equal(t, 4.0, notes[3].Onset())
}

func TestReadMusicXMLSignatures(t *testing.T) {
	s, err := ReadMusicXML(strings.NewReader(demoDoc))
	assert.NoError(t, err)

	// the 4/4 at quarter zero replaces the default
	assert.Len(t, s.TimeSignatures, 1)
	assert.Equal(t, 4.0, s.TimeSignatures[0].Upper)

	keys := score.ListAll[*score.KeySignature](s)
	assert.Len(t, keys, 1)
	assert.Equal(t, 2, keys[0].Sharps)

	clefs := score.ListAll[*score.Clef](s)
	assert.Len(t, clefs, 1)

	assert.Equal(t, 90.0, s.TimeMap.QuarterToTempo(0))
}

func TestReadMusicXMLStaves(t *testing.T) {
	doc := `<score-partwise>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>1</divisions>
        <staves>2</staves>
        <time><beats>2</beats><beat-type>4</beat-type></time>
      </attributes>
      <note><pitch><step>C</step><octave>5</octave></pitch><duration>2</duration><staff>1</staff></note>
      <backup><duration>2</duration></backup>
      <note><pitch><step>C</step><octave>3</octave></pitch><duration>2</duration><staff>2</staff></note>
    </measure>
  </part>
</score-partwise>`
	s, err := ReadMusicXML(strings.NewReader(doc))
	assert.NoError(t, err)

	staffs := score.ListAll[*score.Staff](s)
	assert.Len(t, staffs, 2)
	assert.Equal(t, 1, staffs[0].Number)
	assert.Equal(t, 2, staffs[1].Number)

	// the backup rewinds the cursor, so both notes start together
	notes := score.ListAll[*score.Note](s)
	assert.Len(t, notes, 2)
	assert.Equal(t, 0.0, notes[0].Onset())
	assert.Equal(t, 0.0, notes[1].Onset())
	assert.Equal(t, 2.0, s.Duration())
}

func TestReadMusicXMLSkipsGraceNotes(t *testing.T) {
	doc := `<score-partwise>
  <part id="P1">
    <measure number="1">
      <attributes><divisions>1</divisions></attributes>
      <note><grace/><pitch><step>D</step><octave>4</octave></pitch></note>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
  </part>
</score-partwise>`
	s, err := ReadMusicXML(strings.NewReader(doc))
	assert.NoError(t, err)
	notes := score.ListAll[*score.Note](s)
	assert.Len(t, notes, 1)
	assert.Equal(t, "C4", notes[0].NameWithOctave())
}

func TestReadMusicXMLErrors(t *testing.T) {
	_, err := ReadMusicXML(strings.NewReader("<score-partwise></score-partwise>"))
	assert.ErrorContains(t, err, "no parts")

	_, err = ReadMusicXML(strings.NewReader("not xml at all <"))
	assert.Error(t, err)

	_, err = ReadMusicXMLFile("no/such/file.musicxml")
	assert.Error(t, err)
}
