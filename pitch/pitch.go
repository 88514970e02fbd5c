// Package pitch represents symbolic musical pitches as a MIDI key number
// plus an accidental alteration, so enharmonic spellings (C# vs Db) stay
// distinct while sounding pitch comparisons remain trivial.
package pitch

import (
	"fmt"
	"math"
	"strings"
)

// Diatonic pitch classes of the unaltered letter names C D E F G A B.
var diatonic = [7]int{0, 2, 4, 5, 7, 9, 11}

var letterToNumber = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

func isDiatonic(pc int) bool {
	pc = ((pc % 12) + 12) % 12
	for _, d := range diatonic {
		if pc == d {
			return true
		}
	}
	return false
}

// Pitch is a symbolic pitch. KeyNum follows the MIDI convention (C4 = 60)
// generalized to floats (60.5 is C4 a quarter tone sharp). Alt is the
// accidental alteration in semitones: +1 sharp, -1 flat. The written note
// name is derived by subtracting Alt from KeyNum, so C#4 is {61, 1} and
// Db4 is {61, -1}.
//
// A Pitch is immutable by convention: all operations return new values,
// and Note copies share Pitch pointers freely.
type Pitch struct {
	KeyNum float64
	Alt    float64
}

// New returns a Pitch for the given key number with the default spelling
// (C#, Eb, F#, Ab and Bb for the black keys).
func New(keyNum float64) *Pitch {
	return NewAlt(keyNum, 0)
}

// NewAlt returns a Pitch for keyNum spelled with alteration alt. If
// keyNum - alt does not land on an unaltered letter name, keyNum wins and
// alt is adjusted to the smallest valid value.
func NewAlt(keyNum, alt float64) *Pitch {
	p := &Pitch{KeyNum: keyNum, Alt: alt}
	p.fixAlteration()
	return p
}

// fixAlteration restores the invariant that (KeyNum - Alt) mod 12 is one
// of {C D E F G A B}. KeyNum has priority; Alt gets the smallest valid
// magnitude, breaking enharmonic ties toward C#, Eb, F#, Ab and Bb.
func (p *Pitch) fixAlteration() {
	unaltered := p.KeyNum - p.Alt
	if math.Abs(unaltered-math.Round(unaltered)) < 1e-6 {
		unaltered = math.Round(unaltered)
		p.Alt = p.KeyNum - unaltered
	}
	if unaltered == math.Trunc(unaltered) && isDiatonic(int(unaltered)) {
		return
	}
	if p.KeyNum != math.Trunc(p.KeyNum) {
		// microtonal: keep alt below one semitone in magnitude
		closest := ((int(math.Round(p.KeyNum)) % 12) + 12) % 12
		p.Alt = p.KeyNum - math.Round(p.KeyNum)
		if !isDiatonic(closest) {
			if p.Alt > 0 {
				p.Alt--
			} else {
				p.Alt++
			}
		}
		return
	}
	pc := ((int(p.KeyNum) % 12) + 12) % 12
	switch pc {
	case 1, 6: // C#, F#
		p.Alt = 1
	case 3, 8, 10: // Eb, Ab, Bb
		p.Alt = -1
	default:
		p.Alt = 0
	}
}

// Parse converts a name like "Bb", "C#4" or "f♯2" to a Pitch. The letter
// may be followed by accidentals (all flats or all sharps; '♭', 'b', '-'
// are flats and '♯', '#', '+' are sharps) and an optional single-digit
// octave. Without an octave the result lands in octave -1, i.e. key
// numbers 0-11. Space, tab and underscore are ignored.
func Parse(name string) (*Pitch, error) {
	return ParseInOctave(name, -1)
}

// ParseInOctave is Parse with a default octave for names that do not
// carry their own octave digit (octave 4 covers key numbers 60-71).
func ParseInOctave(name string, octave int) (*Pitch, error) {
	cleaned := strings.NewReplacer(" ", "", "\t", "", "_", "").Replace(name)
	if cleaned == "" {
		return nil, fmt.Errorf("empty pitch name")
	}
	letter := cleaned[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	pc, ok := letterToNumber[letter]
	if !ok {
		return nil, fmt.Errorf("invalid pitch name %q: first character must be one of ABCDEFG", name)
	}
	rest := cleaned[1:]
	if len(rest) > 0 {
		last := rest[len(rest)-1]
		if last >= '0' && last <= '9' {
			octave = int(last - '0')
			rest = rest[:len(rest)-1]
		}
	}
	alt := 0
	if rest != "" {
		runes := []rune(rest)
		switch {
		case allIn(runes, "♭b-"):
			alt = -len(runes)
		case allIn(runes, "♯#+"):
			alt = len(runes)
		default:
			return nil, fmt.Errorf("invalid accidentals in %q: use only flats or only sharps", name)
		}
	}
	// the octave applies to the letter before alteration, so B#3 = C4
	return &Pitch{
		KeyNum: float64(pc + 12*(octave+1) + alt),
		Alt:    float64(alt),
	}, nil
}

func allIn(runes []rune, set string) bool {
	for _, r := range runes {
		if !strings.ContainsRune(set, r) {
			return false
		}
	}
	return true
}

// Equal reports whether both KeyNum and Alt match. Enharmonic spellings
// of the same sounding pitch are not equal; compare KeyNum for that.
func (p *Pitch) Equal(o *Pitch) bool {
	return p.KeyNum == o.KeyNum && p.Alt == o.Alt
}

// Less orders pitches by key number, breaking ties so that sharp
// spellings sort before flat ones (their letter names are lower).
func (p *Pitch) Less(o *Pitch) bool {
	if p.KeyNum != o.KeyNum {
		return p.KeyNum < o.KeyNum
	}
	return -p.Alt < -o.Alt
}

// Step is the letter name without accidentals, "C" through "B".
func (p *Pitch) Step() string {
	unaltered := int(math.Round(p.KeyNum-p.Alt)) % 12
	unaltered = (unaltered + 12) % 12
	steps := [12]string{"C", "?", "D", "?", "E", "F", "?", "G", "?", "A", "?", "B"}
	return steps[unaltered]
}

// Name is the letter name with accidentals, e.g. "Bb". Non-integer
// alterations render as "?" since they have no conventional symbol.
func (p *Pitch) Name() string {
	if p.Alt != math.Round(p.Alt) {
		return p.Step() + "?"
	}
	n := int(math.Round(p.Alt))
	switch {
	case n > 0:
		return p.Step() + strings.Repeat("#", n)
	case n < 0:
		return p.Step() + strings.Repeat("b", -n)
	}
	return p.Step()
}

// NameWithOctave is e.g. "C4" or "B#3". The octave refers to the written
// letter, so B#3 and C4 share a key number but print different octaves.
func (p *Pitch) NameWithOctave() string {
	return fmt.Sprintf("%s%d", p.Name(), p.Octave())
}

// Octave of the written note name, from KeyNum - Alt. C4 is octave 4,
// its enharmonic B#3 is octave 3.
func (p *Pitch) Octave() int {
	unaltered := int(math.Round(p.KeyNum - p.Alt))
	return unaltered/12 - 1
}

// Register is the sounding octave from KeyNum alone; C4 and B#3 are both
// register 4.
func (p *Pitch) Register() int {
	return int(math.Floor(p.KeyNum))/12 - 1
}

// PitchClass is round(KeyNum) mod 12.
func (p *Pitch) PitchClass() int {
	return ((int(math.Round(p.KeyNum)) % 12) + 12) % 12
}

func (p *Pitch) String() string {
	return fmt.Sprintf("Pitch(name=%s, key_num=%g)", p.NameWithOctave(), p.KeyNum)
}

// Enharmonic returns the spelling on the other side of this pitch: for a
// sharp spelling the flat one, for a flat the sharp, minimizing the new
// alteration. For an unaltered pitch it forces a respelling (C -> B#,
// B -> Cb, D -> Ebb).
func (p *Pitch) Enharmonic() *Pitch {
	alt := p.Alt
	unaltered := int(math.Round(p.KeyNum - alt))
	switch {
	case alt < 0:
		for alt < 0 || !isDiatonic(unaltered) {
			unaltered--
			alt++
		}
	case alt > 0:
		for alt > 0 || !isDiatonic(unaltered) {
			unaltered++
			alt--
		}
	default:
		switch ((unaltered % 12) + 12) % 12 {
		case 0, 5: // C->B#, F->E#
			alt = 1
		case 11, 4: // B->Cb, E->Fb
			alt = -1
		default: // A->Bbb, D->Ebb, G->Abb
			alt = -2
		}
	}
	return NewAlt(p.KeyNum, alt)
}

// UpperEnharmonic respells using the next letter up, decreasing Alt by 1
// or 2: C# -> Db, C## -> D, Cb -> Dbbb.
func (p *Pitch) UpperEnharmonic() *Pitch {
	alt := p.Alt
	unaltered := ((int(math.Round(p.KeyNum-alt)) % 12) + 12) % 12
	switch unaltered {
	case 0, 2, 5, 7, 9: // C D F G A: whole step to next letter
		alt -= 2
	default: // E->F, B->C
		alt--
	}
	return NewAlt(p.KeyNum, alt)
}

// LowerEnharmonic respells using the next letter down, increasing Alt by
// 1 or 2: Db -> C#, D -> C##.
func (p *Pitch) LowerEnharmonic() *Pitch {
	alt := p.Alt
	unaltered := ((int(math.Round(p.KeyNum-alt)) % 12) + 12) % 12
	switch unaltered {
	case 2, 4, 7, 9, 11: // D E G A B: whole step to previous letter
		alt += 2
	default: // F->E, C->B
		alt++
	}
	return NewAlt(p.KeyNum, alt)
}

// SimplestEnharmonic returns the spelling with the fewest accidentals.
// pref ("sharp" or "flat") picks the direction when one accidental is
// unavoidable; any other value uses the constructor's defaults.
func (p *Pitch) SimplestEnharmonic(pref string) *Pitch {
	if p.Alt == 0 {
		return p
	}
	if isDiatonic(p.PitchClass()) {
		return New(p.KeyNum)
	}
	switch pref {
	case "sharp":
		return NewAlt(p.KeyNum, 1)
	case "flat":
		return NewAlt(p.KeyNum, -1)
	}
	return New(p.KeyNum)
}
