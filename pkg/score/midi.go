package score

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/scoreforge/scoreforge/pkg/notation"
	"github.com/scoreforge/scoreforge/pkg/params"
)

const ticksPerQuarter = 960

// SMF renders the score as a format-1 Standard MIDI File: a meta track
// carrying tempo and meter, then one track per part.
func (sc *Score) SMF() *smf.SMF {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	beats, unit := params.Parameters{TimeSignature: sc.TimeSignature}.Meter()
	var meta smf.Track
	meta.Add(0, smf.MetaMeter(uint8(beats), uint8(unit)))
	meta.Add(0, smf.MetaTempo(float64(sc.Tempo)))
	meta.Close(0)
	s.Add(meta)

	for _, part := range sc.Parts {
		s.Add(partTrack(part))
	}
	return s
}

// WriteTo serializes the score as MIDI bytes.
func (sc *Score) WriteTo(w io.Writer) (int64, error) {
	return sc.SMF().WriteTo(w)
}

// WriteFile writes the score to a .mid file.
func (sc *Score) WriteFile(path string) error {
	if err := sc.SMF().WriteFile(path); err != nil {
		return fmt.Errorf("score: couldn't write midi file: %w", err)
	}
	return nil
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

func partTrack(p *notation.Part) smf.Track {
	ch := uint8(0)
	if p.Channel >= 1 && p.Channel <= 16 {
		ch = uint8(p.Channel - 1)
	}

	var tr smf.Track
	tr.Add(0, smf.MetaInstrument(p.ID))
	if ch != 9 {
		tr.Add(0, midi.ProgramChange(ch, p.Program))
	}

	var events []timedMessage
	for _, n := range p.Notes() {
		if n.Rest {
			continue
		}
		on := toTicks(n.Offset)
		length := toTicks(n.Duration)
		if length == 0 {
			length = 1
		}
		events = append(events, timedMessage{
			tick: on,
			msg:  midi.NoteOn(ch, key(n), velocity(n)),
		})
		events = append(events, timedMessage{
			tick: on + length,
			off:  true,
			msg:  midi.NoteOff(ch, key(n)),
		})
	}
	// Note offs first on ties so equal-pitch notes don't cancel.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var last uint32
	for _, ev := range events {
		tr.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	tr.Close(0)
	return tr
}

func toTicks(quarters float64) uint32 {
	if quarters < 0 {
		quarters = 0
	}
	return uint32(math.Round(quarters * ticksPerQuarter))
}

func key(n *notation.Note) uint8 {
	if n.Key < 0 {
		return 0
	}
	if n.Key > 127 {
		return 127
	}
	return uint8(n.Key)
}

func velocity(n *notation.Note) uint8 {
	v := n.Velocity
	if v < 1 {
		v = 64
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}
