package params

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Parameters are the global musical parameters shared by every part of a
// song. They are resolved once per song and read-only afterwards.
type Parameters struct {
	Tempo            int      `json:"tempo"`
	TimeSignature    string   `json:"time_signature"`
	Key              string   `json:"key"`
	Measures         int      `json:"measures"`
	Form             string   `json:"form"`
	ChordProgression []string `json:"chord_progression"`
	Scale            string   `json:"scale"`
	Style            string   `json:"style"`
}

const (
	MinTempo    = 90
	MaxTempo    = 140
	MinMeasures = 64
	MaxMeasures = 128
)

const systemPrompt = `You are a professional music theorist and composer. Analyze the user's prompt and determine appropriate musical parameters for a polished, radio-ready production.

Return ONLY a valid JSON object with these parameters (no comments):
{
    "tempo": <integer between 90-140>,
    "time_signature": "<numerator>/<denominator>",
    "key": "<key letter>[m]",
    "measures": <integer between 64-128>,
    "form": "<standard song form>",
    "chord_progression": [<array of chord symbols>],
    "scale": "<scale type>",
    "style": "<musical style>"
}
`

// Completer is the subset of the generation client used by the resolver.
type Completer interface {
	Structured(ctx context.Context, system, prompt string) (string, error)
}

// Default returns the fixed fallback parameters.
func Default() Parameters {
	return Parameters{
		Tempo:            120,
		TimeSignature:    "4/4",
		Key:              "C",
		Measures:         64,
		Form:             "Intro-Verse-Chorus-Verse-Chorus-Bridge-Chorus-Outro",
		ChordProgression: []string{"C", "G", "Am", "F"},
		Scale:            "major",
		Style:            "pop",
	}
}

// Resolve asks the generation service for musical parameters matching the
// prompt. It never fails: decode errors fall back to defaults and numeric
// fields are clamped into range.
func Resolve(ctx context.Context, c Completer, prompt string) Parameters {
	content, err := c.Structured(ctx, systemPrompt, prompt)
	if err != nil {
		log.Printf("params: couldn't determine parameters: %v\n", err)
		return Default()
	}
	p, err := Decode(content)
	if err != nil {
		log.Printf("params: invalid parameters response: %v\n", err)
		return Default()
	}
	return p
}

// raw mirrors Parameters with optional fields so missing values can be told
// apart from zero values.
type raw struct {
	Tempo            *int      `json:"tempo"`
	TimeSignature    *string   `json:"time_signature"`
	Key              *string   `json:"key"`
	Measures         *int      `json:"measures"`
	Form             *string   `json:"form"`
	ChordProgression *[]string `json:"chord_progression"`
	Scale            *string   `json:"scale"`
	Style            *string   `json:"style"`
}

// Decode parses a JSON parameters response, repairing malformed JSON,
// substituting defaults for missing fields and clamping numeric ranges.
func Decode(content string) (Parameters, error) {
	var r raw
	if err := unmarshal([]byte(content), &r); err != nil {
		return Parameters{}, err
	}
	p := Default()
	if r.Tempo != nil {
		p.Tempo = *r.Tempo
	}
	if r.TimeSignature != nil {
		p.TimeSignature = *r.TimeSignature
	}
	if r.Key != nil {
		p.Key = *r.Key
	}
	if r.Measures != nil {
		p.Measures = *r.Measures
	}
	if r.Form != nil {
		p.Form = *r.Form
	}
	if r.ChordProgression != nil {
		p.ChordProgression = *r.ChordProgression
	}
	if r.Scale != nil {
		p.Scale = *r.Scale
	}
	if r.Style != nil {
		p.Style = *r.Style
	}
	p.Tempo = clamp(p.Tempo, MinTempo, MaxTempo)
	p.Measures = clamp(p.Measures, MinMeasures, MaxMeasures)
	return p, nil
}

// unmarshal decodes JSON, attempting a repair pass if the text is not valid
// JSON as returned by the service.
func unmarshal(data []byte, v interface{}) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return err
	}
	return json.Unmarshal([]byte(fixed), v)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sections splits the form string into its section-name tokens.
func (p Parameters) Sections() []string {
	var sections []string
	for _, s := range strings.Split(p.Form, "-") {
		s = strings.TrimSpace(s)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return sections
}

// Meter parses the time signature, falling back to 4/4.
func (p Parameters) Meter() (beats, unit int) {
	parts := strings.SplitN(p.TimeSignature, "/", 2)
	if len(parts) != 2 {
		return 4, 4
	}
	beats, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || beats < 1 {
		return 4, 4
	}
	unit, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || unit < 1 {
		return 4, 4
	}
	return beats, unit
}
