package notation

import (
	"strings"

	"github.com/egonelbre/lilypond/abc2ly/abc"
)

var letterSemitone = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// Sharps (positive) or flats (negative) per key signature. Minor keys map
// through their relative major.
var keyAccidentals = map[string]int{
	"C": 0, "G": 1, "D": 2, "A": 3, "E": 4, "B": 5, "F#": 6, "C#": 7,
	"F": -1, "Bb": -2, "Eb": -3, "Ab": -4, "Db": -5, "Gb": -6, "Cb": -7,
	"Am": 0, "Em": 1, "Bm": 2, "F#m": 3, "C#m": 4, "G#m": 5,
	"Dm": -1, "Gm": -2, "Cm": -3, "Fm": -4, "Bbm": -5, "Ebm": -6, "Abm": -7,
}

var sharpOrder = []string{"F", "C", "G", "D", "A", "E", "B"}
var flatOrder = []string{"B", "E", "A", "D", "G", "C", "F"}

// keySignature returns the per-letter accidental offsets implied by a key
// name like "C", "Bb" or "F#m". Unknown keys get an empty signature.
func keySignature(key string) map[string]int {
	sig := map[string]int{}
	n, ok := keyAccidentals[strings.TrimSpace(key)]
	if !ok {
		return sig
	}
	switch {
	case n > 0:
		for _, letter := range sharpOrder[:n] {
			sig[letter] = 1
		}
	case n < 0:
		for _, letter := range flatOrder[:-n] {
			sig[letter] = -1
		}
	}
	return sig
}

// midiKey converts a parsed ABC note to a MIDI key number. Octave 0 is the
// octave starting at middle C. Explicit accidentals override the key
// signature; a natural cancels it.
func midiKey(n abc.Note, sig map[string]int) (int, string) {
	letter := strings.ToUpper(n.Pitch)
	semitone, ok := letterSemitone[letter]
	if !ok {
		return 0, letter
	}
	key := 60 + semitone + 12*n.Octave

	acc := 0
	name := letter
	if n.Accidentals != "" {
		for _, a := range n.Accidentals {
			switch a {
			case abc.AccidentalFlat:
				acc--
				name += "b"
			case abc.AccidentalSharp:
				acc++
				name += "#"
			case abc.AccidentalNatural:
				acc = 0
				name = letter
			}
		}
	} else {
		acc = sig[letter]
	}
	key += acc
	if key < 0 {
		key = 0
	}
	if key > 127 {
		key = 127
	}
	return key, name
}
