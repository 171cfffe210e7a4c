package instruments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"gitlab.com/gomidi/midi/v2/gm"
)

const (
	// DrumSet is the percussion instrument name.
	DrumSet = "DrumSet"
	// DrumChannel is the fixed percussion MIDI channel.
	DrumChannel = 10
)

// Assignment pairs an instrument name with its MIDI channel (1-16).
type Assignment struct {
	Name    string
	Channel int
}

// Role groups the instruments playing one musical role.
type Role struct {
	Name        string
	Instruments []Assignment
}

// Setup is an ordered instrumentation: known roles first in a fixed order,
// any extra roles sorted by name. Iteration order is deterministic.
type Setup []Role

var knownRoles = []string{"rhythm", "harmony", "lead", "accompaniment", "backing_vocals"}

var requiredRoles = []string{"rhythm", "harmony", "lead"}

const systemPrompt = `You are a music arranger for a polished, radio-ready production. Analyze the prompt and choose appropriate instruments to create a rich, balanced track.

Return ONLY a valid JSON object with instrument groups and their MIDI channels. Format:
{
    "rhythm": [["DrumSet", 10], ["ElectricBass", 1]],
    "harmony": [["Piano", 2]],
    "lead": [["SynthLead", 3]],
    "accompaniment": [["Violin", 4]],
    "backing_vocals": [["VoiceOohs", 5]]
}

DrumSet must always use channel 10.
`

// Completer is the subset of the generation client used by the resolver.
type Completer interface {
	Structured(ctx context.Context, system, prompt string) (string, error)
}

// Default returns the fixed fallback instrumentation.
func Default() Setup {
	return Setup{
		{Name: "rhythm", Instruments: []Assignment{{Name: DrumSet, Channel: DrumChannel}, {Name: "ElectricBass", Channel: 1}}},
		{Name: "harmony", Instruments: []Assignment{{Name: "Piano", Channel: 2}}},
		{Name: "lead", Instruments: []Assignment{{Name: "SynthLead", Channel: 3}}},
		{Name: "accompaniment", Instruments: []Assignment{{Name: "Violin", Channel: 4}}},
		{Name: "backing_vocals", Instruments: []Assignment{{Name: "VoiceOohs", Channel: 5}}},
	}
}

// Resolve asks the generation service for an instrumentation matching the
// prompt. It never fails: any decode problem or missing required role falls
// back entirely to the default instrumentation.
func Resolve(ctx context.Context, c Completer, prompt string) Setup {
	content, err := c.Structured(ctx, systemPrompt, prompt)
	if err != nil {
		log.Printf("instruments: couldn't determine instruments: %v\n", err)
		return Default()
	}
	setup, err := Decode(content)
	if err != nil {
		log.Printf("instruments: invalid instruments response: %v\n", err)
		return Default()
	}
	return setup
}

// pair decodes a ["Name", channel] JSON array.
type pair struct {
	name    string
	channel int
}

func (p *pair) UnmarshalJSON(b []byte) error {
	var v []interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("instruments: expected [name, channel] pair, got %d elements", len(v))
	}
	name, ok := v[0].(string)
	if !ok {
		return fmt.Errorf("instruments: instrument name is not a string: %v", v[0])
	}
	channel, ok := v[1].(float64)
	if !ok {
		return fmt.Errorf("instruments: channel is not a number: %v", v[1])
	}
	p.name = name
	p.channel = int(channel)
	return nil
}

// Decode parses a JSON instrumentation response. The service tends to echo
// the commented example, so comment lines are dropped before decoding. The
// whole mapping is rejected if any required role is missing. The percussion
// channel is enforced, not merely requested.
func Decode(content string) (Setup, error) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		lines = append(lines, line)
	}
	content = strings.Join(lines, "\n")

	var groups map[string][]pair
	if err := unmarshal([]byte(content), &groups); err != nil {
		return nil, err
	}
	for _, role := range requiredRoles {
		if _, ok := groups[role]; !ok {
			return nil, fmt.Errorf("instruments: missing required role %q", role)
		}
	}

	var setup Setup
	add := func(name string) {
		pairs, ok := groups[name]
		if !ok {
			return
		}
		delete(groups, name)
		role := Role{Name: name}
		for _, p := range pairs {
			channel := p.channel
			if p.name == DrumSet {
				channel = DrumChannel
			}
			if channel < 1 || channel > 16 {
				channel = 1
			}
			role.Instruments = append(role.Instruments, Assignment{Name: p.name, Channel: channel})
		}
		if len(role.Instruments) > 0 {
			setup = append(setup, role)
		}
	}
	for _, name := range knownRoles {
		add(name)
	}
	var extra []string
	for name := range groups {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		add(name)
	}
	return setup, nil
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

// Program returns the General MIDI program for an instrument name. Unknown
// instruments fall back to piano. The value is meaningless for DrumSet,
// which is routed by channel.
func Program(name string) uint8 {
	switch name {
	case "Piano":
		return gm.Instr_AcousticGrandPiano.Value()
	case "Violin":
		return gm.Instr_Violin.Value()
	case "ElectricBass":
		return gm.Instr_ElectricBassFinger.Value()
	case "SynthLead":
		return gm.Instr_Lead1Square.Value()
	case "VoiceOohs":
		return gm.Instr_ChoirAahs.Value()
	case DrumSet:
		return 0
	default:
		return gm.Instr_AcousticGrandPiano.Value()
	}
}
