package sound

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

const (
	SampleRate = 44100
	// floor of the exponential fade applied to every tone
	fadeFloor = 0.01
)

type waveform int

const (
	sine waveform = iota
	square
	sawtooth
)

type tone struct {
	freq     float64
	wave     waveform
	start    float64
	duration float64
	gain     float64
}

func repeated(freq float64, wave waveform, duration, gain float64, reps int, interval float64) []tone {
	out := make([]tone, reps)
	for i := range out {
		out[i] = tone{freq: freq, wave: wave, start: float64(i) * (duration + interval), duration: duration, gain: gain}
	}
	return out
}

// arpeggio plays tones back to back with a 50ms gap.
func arpeggio(notes ...tone) []tone {
	offset := 0.0
	for i := range notes {
		notes[i].start = offset
		offset += notes[i].duration + 0.05
	}
	return notes
}

var presets = map[domain.SoundID][]tone{
	domain.SoundBeep:   repeated(800, sine, 0.3, 0.5, 3, 0.4),
	domain.SoundBuzzer: repeated(440, sawtooth, 0.5, 0.6, 2, 0.2),
	domain.SoundAlert:  repeated(1000, square, 0.2, 0.7, 5, 0.15),
	domain.SoundBell: arpeggio(
		tone{freq: 523.25, duration: 0.4, gain: 0.5},
		tone{freq: 659.25, duration: 0.4, gain: 0.4},
		tone{freq: 783.99, duration: 0.6, gain: 0.3},
	),
	domain.SoundChime: arpeggio(
		tone{freq: 523.25, duration: 0.3, gain: 0.4},
		tone{freq: 659.25, duration: 0.3, gain: 0.4},
		tone{freq: 783.99, duration: 0.3, gain: 0.4},
		tone{freq: 1046.50, duration: 0.5, gain: 0.5},
	),
}

// Synthesize renders a preset as mono signed 16-bit little-endian PCM.
func Synthesize(id domain.SoundID, sampleRate int) ([]byte, error) {
	tones, ok := presets[id]
	if !ok {
		return nil, fmt.Errorf("sound %q: unknown preset", id)
	}

	total := 0.0
	for _, t := range tones {
		total = math.Max(total, t.start+t.duration)
	}
	mix := make([]float64, int(math.Ceil(total*float64(sampleRate))))

	for _, t := range tones {
		first := int(t.start * float64(sampleRate))
		n := int(t.duration * float64(sampleRate))
		for i := 0; i < n && first+i < len(mix); i++ {
			sec := float64(i) / float64(sampleRate)
			env := t.gain * math.Pow(fadeFloor/t.gain, sec/t.duration)
			mix[first+i] += env * oscillate(t.wave, t.freq*sec)
		}
	}

	pcm := make([]byte, 2*len(mix))
	for i, v := range mix {
		v = math.Max(-1, math.Min(1, v))
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return pcm, nil
}

// oscillate evaluates one cycle-normalised waveform at the given phase in
// cycles.
func oscillate(w waveform, phase float64) float64 {
	frac := phase - math.Floor(phase)
	switch w {
	case square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case sawtooth:
		return 2*frac - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// Duration reports how long a preset plays, in seconds.
func Duration(id domain.SoundID) float64 {
	total := 0.0
	for _, t := range presets[id] {
		total = math.Max(total, t.start+t.duration)
	}
	return total
}
