// Package notation turns generated ABC notation text into playable parts:
// it sanitizes the raw text, parses it into timed note events, remaps
// percussion symbols and shapes dynamics per song section.
package notation

import "errors"

// ErrNoNotes is returned when a built part contains no playable events.
var ErrNoNotes = errors.New("notation: part contains no notes")

// Note is a single timed event. Durations and offsets are in quarter-note
// units from the start of the part.
type Note struct {
	// Name is the pitch letter with any explicit accidental ("C", "Bb").
	Name string
	// Key is the MIDI key number. Meaningless when Rest is set.
	Key      int
	Rest     bool
	Duration float64
	Offset   float64
	Velocity int
}

// Measure groups the notes between two bar delimiters.
type Measure struct {
	// RepeatStart and RepeatEnd mark notated repeat bars surviving in the
	// input. Sanitized notation never carries them.
	RepeatStart bool
	RepeatEnd   bool
	Notes       []*Note
}

// Part is one instrument's sequence of measures plus routing metadata.
type Part struct {
	ID      string
	Channel int
	Program uint8

	Measures []*Measure
}

// Notes returns every note of the part in order.
func (p *Part) Notes() []*Note {
	var notes []*Note
	for _, m := range p.Measures {
		notes = append(notes, m.Notes...)
	}
	return notes
}

// NumNotes counts the note and rest events of the part.
func (p *Part) NumNotes() int {
	n := 0
	for _, m := range p.Measures {
		n += len(m.Notes)
	}
	return n
}

// Duration returns the total length of the part in quarter notes.
func (p *Part) Duration() float64 {
	total := 0.0
	for _, n := range p.Notes() {
		total += n.Duration
	}
	return total
}
