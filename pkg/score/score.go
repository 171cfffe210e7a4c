// Package score orchestrates per-instrument notation generation into a
// single synchronized score and renders it to a Standard MIDI File.
package score

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/scoreforge/scoreforge/pkg/instruments"
	"github.com/scoreforge/scoreforge/pkg/notation"
	"github.com/scoreforge/scoreforge/pkg/params"
)

// ErrNoValidParts is returned when every instrument failed to produce a
// playable part. It is the only fatal outcome of song synthesis.
var ErrNoValidParts = errors.New("score: no valid parts were generated")

// Score is the terminal artifact: global tempo and meter marks plus the
// parts accepted from each instrument, in insertion order.
type Score struct {
	Tempo         int
	TimeSignature string
	Parts         []*notation.Part
}

// Generator is the subset of the generation client used by the synthesizer.
type Generator interface {
	Notation(ctx context.Context, system, prompt string) (string, error)
}

type Synthesizer struct {
	client Generator
	rnd    *rand.Rand
	debug  bool
}

func NewSynthesizer(client Generator, rnd *rand.Rand, debug bool) *Synthesizer {
	return &Synthesizer{
		client: client,
		rnd:    rnd,
		debug:  debug,
	}
}

func (s *Synthesizer) log(format string, args ...interface{}) {
	if s.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

// Synthesize generates a part for every instrument of the setup and merges
// the successful ones into a score. Per-instrument failures are logged and
// skipped; only a total failure is returned as an error.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string, p params.Parameters, setup instruments.Setup) (*Score, error) {
	sc := &Score{
		Tempo:         p.Tempo,
		TimeSignature: p.TimeSignature,
	}
	for _, role := range setup {
		for _, a := range role.Instruments {
			log.Printf("score: generating %s part (%s group) on channel %d\n", a.Name, role.Name, a.Channel)
			part, err := s.generatePart(ctx, a, p)
			if err != nil {
				log.Printf("score: skipping %s: %v\n", a.Name, err)
				continue
			}
			if part.NumNotes() == 0 {
				log.Printf("score: skipping %s: empty part\n", a.Name)
				continue
			}
			sc.Parts = append(sc.Parts, part)
		}
	}
	if len(sc.Parts) == 0 {
		return nil, ErrNoValidParts
	}
	sc.ExpandRepeats()
	return sc, nil
}

// generatePart runs the full per-instrument pipeline: prompt, sanitize,
// build, shape.
func (s *Synthesizer) generatePart(ctx context.Context, a instruments.Assignment, p params.Parameters) (*notation.Part, error) {
	raw, err := s.client.Notation(ctx, notationSystemPrompt(p), instrumentPrompt(a.Name, p))
	if err != nil {
		return nil, err
	}
	s.log("score: abc notation for %s:\n%s", a.Name, raw)

	clean := notation.Sanitize(raw)
	part, err := notation.Build(clean, a.Name, a.Channel, p, s.rnd)
	if err != nil {
		return nil, err
	}
	notation.Shape(part, p, s.rnd)
	return part, nil
}

// ExpandRepeats unrolls any measures still marked with notated repeats and
// clears the markers. Sanitization strips repeat shorthand before parsing,
// so this is normally structural housekeeping; it only duplicates content
// when a part was built from unsanitized notation.
func (sc *Score) ExpandRepeats() {
	for _, part := range sc.Parts {
		expandRepeats(part)
	}
}

func expandRepeats(part *notation.Part) {
	var out []*notation.Measure
	start := 0
	expanded := false
	for _, m := range part.Measures {
		if m.RepeatStart {
			start = len(out)
		}
		out = append(out, m)
		if m.RepeatEnd {
			section := out[start:]
			copies := make([]*notation.Measure, 0, len(section))
			for _, sm := range section {
				dup := &notation.Measure{}
				for _, n := range sm.Notes {
					c := *n
					dup.Notes = append(dup.Notes, &c)
				}
				copies = append(copies, dup)
			}
			out = append(out, copies...)
			start = len(out)
			expanded = true
		}
	}
	if !expanded {
		return
	}
	part.Measures = out
	offset := 0.0
	for _, m := range part.Measures {
		m.RepeatStart = false
		m.RepeatEnd = false
		for _, n := range m.Notes {
			n.Offset = offset
			offset += n.Duration
		}
	}
}

// notationSystemPrompt instructs the service to emit strict ABC under the
// global parameters.
func notationSystemPrompt(p params.Parameters) string {
	return fmt.Sprintf(`You are a professional music composer creating valid ABC notation for a polished, radio-ready song. Follow these requirements strictly:

1. Compose music that follows the %s scale and the given chord progression.
2. Style: %s with professional-level rhythmic patterns, realistic phrasing, and tasteful ornamentation.
3. Use proper voice leading and maintain cohesive thematic development.
4. Include dynamics (mp, mf, f), crescendos/decrescendos (<! !>), and articulations (staccato, legato, accents).
5. Add appropriate slurs and expression marks to enhance musicality.
6. The song form: %s. Mark each section clearly in the ABC (e.g., [I:Intro], [V:Verse], [C:Chorus]).
7. Establish a memorable melodic theme for verses and a catchy, dynamic hook for choruses.
8. Use repetition and variation to create coherence, and slight rhythmic complexity for interest.
9. Exactly %d measures.
10. Key: %s.
11. Time Signature: %s.
12. Include M:, L:, and K: headers as the first three lines after X:1.
13. Output ONLY valid ABC notation with no additional text.
14. For drum parts, use only these notes: B (bass), S (snare), H (hi-hat), O (open hi-hat), C (crash), R (ride).
`, p.Scale, p.Style, p.Form, p.Measures, p.Key, p.TimeSignature)
}

// instrumentPrompt builds the per-instrument user prompt. Drums get a
// rhythm-pattern prompt restricted to the percussion symbols; everything
// else gets a melodic prompt carrying the global parameters.
func instrumentPrompt(name string, p params.Parameters) string {
	progression := strings.Join(p.ChordProgression, ", ")
	if name == instruments.DrumSet {
		return fmt.Sprintf(
			"Craft %d measures of professional drum patterns in %s for a %s style song, following %s and %s. "+
				"Use tasteful variations, realistic fills, and appropriate dynamics. Only use B,S,H,O,C,R notes.",
			p.Measures, p.TimeSignature, p.Style, progression, p.Form)
	}
	return fmt.Sprintf(
		"Craft %d measures of a %s part for a %s song. "+
			"Key: %s, Time: %s, Form: %s with chord progression %s. "+
			"Include dynamics, articulations, and tasteful melodic/harmonic content. Make the result professional, cohesive, and radio-ready.\n"+
			"Ensure M:, L:, and K: headers are present at the start, and produce ONLY ABC notation.",
		p.Measures, name, p.Style, p.Key, p.TimeSignature, p.Form, progression)
}
