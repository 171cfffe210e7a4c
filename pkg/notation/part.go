package notation

import (
	"fmt"
	"math/big"
	"math/rand"
	"strings"

	"github.com/egonelbre/lilypond/abc2ly/abc"
	"github.com/scoreforge/scoreforge/pkg/instruments"
	"github.com/scoreforge/scoreforge/pkg/params"
)

const unitNoteLength = "1/8"

// Build wraps sanitized notation with canonical headers, strips inline
// quoted annotations, parses it and returns a playable part with instrument
// metadata attached. Global parameters always win over headers present in
// the input. Percussion parts are remapped to standard percussion keys.
//
// It fails when the text doesn't parse into a tune or when the result holds
// no note or rest events.
func Build(raw, name string, channel int, p params.Parameters, rnd *rand.Rand) (*Part, error) {
	headers := []string{
		"X:1",
		"M:" + p.TimeSignature,
		"L:" + unitNoteLength,
		"K:" + p.Key,
	}
	var content []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isHeader(line) || strings.HasPrefix(line, "%") {
			continue
		}
		line = stripAnnotations(line)
		if strings.Contains(line, "|") {
			content = append(content, line)
		}
	}
	text := strings.Join(append(headers, content...), "\n")

	part, err := parse(text, p)
	if err != nil {
		return nil, err
	}
	part.ID = name
	part.Channel = channel
	part.Program = instruments.Program(name)
	if part.NumNotes() == 0 {
		return nil, ErrNoNotes
	}
	for _, n := range part.Notes() {
		if !n.Rest {
			n.Velocity = 65 + rnd.Intn(21)
		}
	}
	if name == instruments.DrumSet {
		part = RemapPercussion(part)
	}
	return part, nil
}

// stripAnnotations drops inline quoted segments (chord-symbol decorations),
// keeping only the music segments between them.
func stripAnnotations(line string) string {
	segments := strings.Split(line, "\"")
	var b strings.Builder
	for i, seg := range segments {
		if i%2 == 0 {
			b.WriteString(seg)
		}
	}
	return b.String()
}

// parse converts header+content ABC text into a measure-divided part.
func parse(text string, p params.Parameters) (*Part, error) {
	book, warnings := abc.Parse(text)
	if len(book.Tunes) == 0 {
		msg := "no tune found"
		if len(warnings) > 0 {
			msg = warnings[0].Message
		}
		return nil, fmt.Errorf("notation: couldn't parse abc: %s", msg)
	}
	tune := book.Tunes[0]

	unit := big.NewRat(1, 8)
	if f, ok := tune.Fields.ByTag(abc.FieldUnitNoteLength.Tag); ok {
		u := abc.ParseNoteLength(f.Value)
		unit = &u
	}
	sig := keySignature(p.Key)

	part := &Part{}
	measure := &Measure{}
	offset := 0.0
	bars := 0
	var last abc.Symbol
	flush := func() {
		if len(measure.Notes) > 0 {
			part.Measures = append(part.Measures, measure)
			measure = &Measure{}
		}
	}
	for _, stave := range tune.Body.Staves {
		for _, sym := range stave.Symbols {
			switch sym.Kind {
			case abc.KindNote:
				if len(sym.Notes) == 0 {
					continue
				}
				dur := quarterLength(unit, &sym, &last)
				// Chords collapse to their first note.
				key, name := midiKey(sym.Notes[0], sig)
				measure.Notes = append(measure.Notes, &Note{
					Name:     name,
					Key:      key,
					Duration: dur,
					Offset:   offset,
				})
				offset += dur
				last = sym
			case abc.KindRest:
				dur := quarterLength(unit, &sym, &last)
				measure.Notes = append(measure.Notes, &Note{
					Rest:     true,
					Duration: dur,
					Offset:   offset,
				})
				offset += dur
				last = sym
			case abc.KindBar:
				bars++
				flush()
				if strings.HasPrefix(sym.Value, ":") && len(part.Measures) > 0 {
					part.Measures[len(part.Measures)-1].RepeatEnd = true
				}
				if strings.HasSuffix(sym.Value, ":") {
					measure.RepeatStart = true
				}
				last = abc.Symbol{}
			default:
				// Text, decorations and inline fields carry no events.
			}
		}
	}
	flush()

	if bars == 0 {
		forceMeasures(part, p)
	}
	return part, nil
}

// quarterLength computes a symbol's duration in quarter notes, applying
// broken-rhythm syncopation the same way for the current and previous note.
func quarterLength(unit *big.Rat, sym, last *abc.Symbol) float64 {
	dur := new(big.Rat).Set(unit)
	dur.Mul(dur, &sym.Duration)
	for i := 0; i < sym.Syncopation; i++ {
		dur.Mul(dur, big.NewRat(3, 2))
	}
	for i := 0; i < -last.Syncopation; i++ {
		dur.Mul(dur, big.NewRat(3, 2))
	}
	for i := 0; i < -sym.Syncopation; i++ {
		dur.Mul(dur, big.NewRat(1, 2))
	}
	for i := 0; i < last.Syncopation; i++ {
		dur.Mul(dur, big.NewRat(1, 2))
	}
	f, _ := dur.Float64()
	return f * 4
}

// forceMeasures splits an unbarred part into meter-sized measures.
func forceMeasures(part *Part, p params.Parameters) {
	notes := part.Notes()
	if len(notes) == 0 {
		return
	}
	beats, unit := p.Meter()
	quarters := float64(beats) * 4 / float64(unit)
	part.Measures = nil
	measure := &Measure{}
	used := 0.0
	for _, n := range notes {
		if used >= quarters && len(measure.Notes) > 0 {
			part.Measures = append(part.Measures, measure)
			measure = &Measure{}
			used = 0
		}
		measure.Notes = append(measure.Notes, n)
		used += n.Duration
	}
	if len(measure.Notes) > 0 {
		part.Measures = append(part.Measures, measure)
	}
}
