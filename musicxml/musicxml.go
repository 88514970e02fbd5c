// Package musicxml imports partwise MusicXML documents as Score
// objects. Parts map to Parts, staves to Staffs, measures to Measures;
// durations are converted from divisions to quarters. Only the subset
// needed for note-level analysis is read: pitches, rests, chords, ties,
// key and time signatures, clefs and tempo directions.
package musicxml

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"

	"github.com/jswain/partita/pitch"
	"github.com/jswain/partita/score"
)

type xmlDoc struct {
	XMLName        xml.Name `xml:"score-partwise"`
	Title          string   `xml:"movement-title"`
	Identification struct {
		Composer string `xml:"creator"`
	} `xml:"identification"`
	PartList []struct {
		ID   string `xml:"id,attr"`
		Name string `xml:"part-name"`
	} `xml:"part-list>score-part"`
	Parts []xmlPart `xml:"part"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

// xmlMeasure keeps its children in document order; note timing in
// MusicXML is a running cursor that backup/forward rewind and advance,
// so order matters.
type xmlMeasure struct {
	Number string
	Events []any
}

func (m *xmlMeasure) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "number" {
			m.Number = attr.Value
		}
	}
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		t, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch t.Name.Local {
		case "attributes":
			var a xmlAttributes
			if err := d.DecodeElement(&a, &t); err != nil {
				return err
			}
			m.Events = append(m.Events, a)
		case "note":
			var n xmlNote
			if err := d.DecodeElement(&n, &t); err != nil {
				return err
			}
			m.Events = append(m.Events, n)
		case "backup":
			var b xmlBackup
			if err := d.DecodeElement(&b, &t); err != nil {
				return err
			}
			m.Events = append(m.Events, b)
		case "forward":
			var f xmlForward
			if err := d.DecodeElement(&f, &t); err != nil {
				return err
			}
			m.Events = append(m.Events, f)
		case "sound":
			var snd xmlSound
			if err := d.DecodeElement(&snd, &t); err != nil {
				return err
			}
			m.Events = append(m.Events, snd)
		case "direction":
			var dir xmlDirection
			if err := d.DecodeElement(&dir, &t); err != nil {
				return err
			}
			if dir.Sound.Tempo > 0 {
				m.Events = append(m.Events, dir.Sound)
			}
		default:
			d.Skip()
		}
	}
}

type xmlAttributes struct {
	Divisions int       `xml:"divisions"`
	Staves    int       `xml:"staves"`
	Keys      []xmlKey  `xml:"key"`
	Times     []xmlTime `xml:"time"`
	Clefs     []xmlClef `xml:"clef"`
}

type xmlKey struct {
	Fifths int `xml:"fifths"`
}

type xmlTime struct {
	Beats    float64 `xml:"beats"`
	BeatType int     `xml:"beat-type"`
}

type xmlClef struct {
	Sign   string `xml:"sign"`
	Line   int    `xml:"line"`
	Number int    `xml:"number,attr"`
}

type xmlSound struct {
	Tempo float64 `xml:"tempo,attr"`
}

type xmlDirection struct {
	Sound xmlSound `xml:"sound"`
}

type xmlBackup struct {
	Duration int `xml:"duration"`
}

type xmlForward struct {
	Duration int `xml:"duration"`
}

type xmlNote struct {
	Pitch     *xmlPitch `xml:"pitch"`
	Rest      *struct{} `xml:"rest"`
	Unpitched *struct{} `xml:"unpitched"`
	Chord     *struct{} `xml:"chord"`
	Grace     *struct{} `xml:"grace"`
	Duration  int       `xml:"duration"`
	Voice     int       `xml:"voice"`
	Staff     int       `xml:"staff"`
	Ties      []xmlTie  `xml:"tie"`
	Lyric     struct {
		Text string `xml:"text"`
	} `xml:"lyric"`
}

func (n *xmlNote) tied(kind string) bool {
	for _, t := range n.Ties {
		if t.Type == kind {
			return true
		}
	}
	return false
}

type xmlTie struct {
	Type string `xml:"type,attr"`
}

type xmlPitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter"`
	Octave int     `xml:"octave"`
}

var stepSemitones = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// keyNum is the MIDI key number of the written pitch.
func (p *xmlPitch) keyNum() float64 {
	return float64(stepSemitones[p.Step]+(p.Octave+1)*12) + p.Alter
}

// clefName maps a MusicXML sign/line pair to a clef name; empty for
// signs this package does not model.
func clefName(sign string, line int) string {
	switch sign {
	case "G":
		return "treble"
	case "F":
		return "bass"
	case "C":
		if line == 4 {
			return "tenor"
		}
		return "alto"
	case "percussion":
		return "percussion"
	}
	return ""
}

// ReadMusicXMLFile parses the MusicXML document at path into a Score.
func ReadMusicXMLFile(filepath string) (*score.Score, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "opening musicxml file")
	}
	defer f.Close()
	return ReadMusicXML(f)
}

// ReadMusicXML parses a partwise MusicXML document into a Score in
// quarters.
func ReadMusicXML(r io.Reader) (*score.Score, error) {
	var doc xmlDoc
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "parsing musicxml")
	}
	if len(doc.Parts) == 0 {
		return nil, errors.New("musicxml: document has no parts")
	}
	return buildScore(&doc)
}

func buildScore(doc *xmlDoc) (*score.Score, error) {
	s := score.NewScore()
	if doc.Title != "" {
		s.Set("title", doc.Title)
	}
	if doc.Identification.Composer != "" {
		s.Set("composer", doc.Identification.Composer)
	}
	partNames := map[string]string{}
	for _, sp := range doc.PartList {
		partNames[sp.ID] = sp.Name
	}

	for i, xp := range doc.Parts {
		if err := buildPart(s, &xp, partNames[xp.ID], i == 0); err != nil {
			return nil, err
		}
	}
	s.InheritDuration()
	return s, nil
}

// buildPart converts one partwise part. Only the first part's tempo
// directions feed the score's time map; later parts repeat them.
func buildPart(s *score.Score, xp *xmlPart, name string, firstPart bool) error {
	part := score.NewPart(s, 0, xp.ID, name)
	staffs := map[int]*score.Staff{}
	staffFor := func(num int) *score.Staff {
		if st, ok := staffs[num]; ok {
			return st
		}
		st := score.NewStaff(part, 0, score.Unset, num)
		staffs[num] = st
		return st
	}

	divisions := 4.0   // per quarter; overridden by the first attributes
	sigQuarters := 4.0 // current measure length per the time signature
	pendingTies := map[float64]*score.Note{}
	measureOnset := 0.0

	for _, xm := range xp.Measures {
		measures := map[int]*score.Measure{}
		measureFor := func(staffNum int) *score.Measure {
			if m, ok := measures[staffNum]; ok {
				return m
			}
			m := score.NewMeasure(staffFor(staffNum), measureOnset, score.Unset, xm.Number)
			measures[staffNum] = m
			return m
		}

		cursor := 0.0
		maxCursor := 0.0
		var prevNote *score.Note
		var curChord *score.Chord

		for _, ev := range xm.Events {
			switch e := ev.(type) {
			case xmlAttributes:
				if e.Divisions > 0 {
					divisions = float64(e.Divisions)
				}
				at := measureOnset + cursor
				for _, k := range e.Keys {
					score.NewKeySignature(measureFor(1), at, k.Fifths)
				}
				for _, tm := range e.Times {
					if tm.BeatType == 0 {
						return errors.Errorf("musicxml: measure %s has a time signature without a beat type", xm.Number)
					}
					sigQuarters = tm.Beats * 4 / float64(tm.BeatType)
					s.AppendTimeSignature(score.NewTimeSignature(at, tm.Beats, tm.BeatType))
				}
				for _, c := range e.Clefs {
					if name := clefName(c.Sign, c.Line); name != "" {
						staffNum := c.Number
						if staffNum == 0 {
							staffNum = 1
						}
						score.NewClef(measureFor(staffNum), at, name)
					}
				}
			case xmlSound:
				if firstPart && e.Tempo > 0 {
					appendTempo(s, measureOnset+cursor, e.Tempo)
				}
			case xmlBackup:
				cursor -= float64(e.Duration) / divisions
			case xmlForward:
				cursor += float64(e.Duration) / divisions
				if cursor > maxCursor {
					maxCursor = cursor
				}
			case xmlNote:
				if e.Grace != nil {
					continue
				}
				dq := float64(e.Duration) / divisions
				staffNum := e.Staff
				if staffNum == 0 {
					staffNum = 1
				}
				m := measureFor(staffNum)

				if e.Rest != nil {
					score.NewRest(m, measureOnset+cursor, dq)
					prevNote, curChord = nil, nil
					cursor += dq
					if cursor > maxCursor {
						maxCursor = cursor
					}
					continue
				}

				var p *pitch.Pitch
				if e.Pitch != nil {
					p = pitch.NewAlt(e.Pitch.keyNum(), e.Pitch.Alter)
				}

				if e.Chord != nil && prevNote != nil {
					if curChord == nil {
						curChord = promoteToChord(m, prevNote)
					}
					n := score.NewNote(curChord, curChord.Onset(), dq, p)
					n.Lyric = e.Lyric.Text
					wireTie(pendingTies, &e, n)
					continue
				}

				n := score.NewNote(m, measureOnset+cursor, dq, p)
				n.Lyric = e.Lyric.Text
				wireTie(pendingTies, &e, n)
				prevNote, curChord = n, nil
				cursor += dq
				if cursor > maxCursor {
					maxCursor = cursor
				}
			}
		}

		dur := maxCursor
		if dur == 0 {
			dur = sigQuarters
		}
		for _, m := range measures {
			m.SetDuration(dur)
		}
		measureOnset += dur
	}

	for _, st := range staffs {
		st.InheritDuration()
	}
	part.InheritDuration()
	return nil
}

// promoteToChord replaces a note in its measure with a Chord holding
// the note, so following <chord/> members can join it.
func promoteToChord(m *score.Measure, n *score.Note) *score.Chord {
	m.Remove(n)
	ch := score.NewChord(nil, n.Onset(), n.Duration())
	ch.Insert(n)
	m.Insert(ch)
	return ch
}

// wireTie links tie stops to the pending start on the same key. A note
// that both stops and starts a tie sits in the middle of a chain.
func wireTie(pending map[float64]*score.Note, e *xmlNote, n *score.Note) {
	key := n.KeyNum()
	if e.tied("stop") {
		if prev, ok := pending[key]; ok {
			prev.Tie = n
			delete(pending, key)
		}
	}
	if e.tied("start") {
		pending[key] = n
	}
}

// appendTempo feeds a tempo direction into the score's time map,
// ignoring out-of-order repeats.
func appendTempo(s *score.Score, quarter, qpm float64) {
	if s.TimeMap.Len() > 0 && quarter < s.TimeMap.At(s.TimeMap.Len()-1).Quarter {
		return
	}
	s.TimeMap.AppendChange(quarter, qpm)
}
