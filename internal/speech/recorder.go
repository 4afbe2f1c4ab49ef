package speech

import (
	"fmt"
	"strings"
	"sync"

	"github.com/eyzhang1221/unity-game-controllers/pkg/audio"
)

// ScoringSampleRate is the rate the scoring API expects clips in.
const ScoringSampleRate = 16000

// Recorder accumulates one utterance of decoded mic audio and renders it
// as a 16 kHz mono WAV clip.
type Recorder struct {
	inRate   int
	channels int

	mu        sync.Mutex
	active    bool
	word      string
	pcm       []int16
	resampler *audio.StreamResampler
}

// NewRecorder executes the newRecorder function.
func NewRecorder(inRate, channels int) *Recorder {
	if inRate <= 0 {
		inRate = ScoringSampleRate
	}
	if channels <= 0 {
		channels = 1
	}
	return &Recorder{inRate: inRate, channels: channels}
}

// Start begins capturing audio for one attempted word.
func (r *Recorder) Start(word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return fmt.Errorf("record word is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return fmt.Errorf("recorder already active for word: %s", r.word)
	}

	if r.inRate != ScoringSampleRate {
		rs, err := audio.NewStreamResampler(r.inRate, ScoringSampleRate)
		if err != nil {
			return fmt.Errorf("create recorder resampler: %w", err)
		}
		r.resampler = rs
	}
	r.active = true
	r.word = word
	r.pcm = r.pcm[:0]
	return nil
}

// Append adds decoded PCM16 samples to the current utterance. Frames
// arriving while the recorder is idle are dropped.
func (r *Recorder) Append(pcm []int16) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || len(pcm) == 0 {
		return nil
	}

	mono := downmixMono(pcm, r.channels)
	if r.resampler != nil {
		return r.resampler.AppendPCM(mono)
	}
	r.pcm = append(r.pcm, mono...)
	return nil
}

// Stop closes the utterance and returns the word with its WAV clip.
func (r *Recorder) Stop() (string, []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return "", nil, fmt.Errorf("recorder is not active")
	}
	r.active = false
	word := r.word

	samples := r.pcm
	if r.resampler != nil {
		if err := r.resampler.Flush(); err != nil {
			r.resampler.Close()
			r.resampler = nil
			return "", nil, fmt.Errorf("flush recorder resampler: %w", err)
		}
		samples = r.resampler.PopAll()
		r.resampler.Close()
		r.resampler = nil
	}
	if len(samples) == 0 {
		return "", nil, fmt.Errorf("recorded no audio for word: %s", word)
	}

	wav, err := audio.EncodeWAV(samples, ScoringSampleRate, 1)
	if err != nil {
		return "", nil, err
	}
	r.pcm = r.pcm[:0]
	return word, wav, nil
}

// Active reports whether an utterance is being captured.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Word returns the word the current utterance is for.
func (r *Recorder) Word() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.word
}

func downmixMono(pcm []int16, channels int) []int16 {
	if channels <= 1 {
		return pcm
	}
	out := make([]int16, 0, len(pcm)/channels)
	for i := 0; i+channels <= len(pcm); i += channels {
		sum := 0
		for j := 0; j < channels; j++ {
			sum += int(pcm[i+j])
		}
		out = append(out, int16(sum/channels))
	}
	return out
}
