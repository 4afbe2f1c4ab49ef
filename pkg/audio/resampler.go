package audio

import (
	"errors"
	"sync"

	resampler "github.com/godeps/go-audio-soxr"
)

// StreamResampler keeps resampling state across frames.
type StreamResampler struct {
	resampler *soxrStreamResampler
	outBuf    []float32
}

// NewStreamResampler creates a streaming resampler for continuous audio.
func NewStreamResampler(inRate, outRate int) (*StreamResampler, error) {
	r, err := newSoxrStreamResampler(inRate, outRate)
	if err != nil {
		return nil, err
	}
	return &StreamResampler{resampler: r}, nil
}

// Close releases underlying resampler.
func (s *StreamResampler) Close() {
	if s == nil {
		return
	}
	if s.resampler != nil {
		s.resampler.Close()
		s.resampler = nil
	}
	s.outBuf = nil
}

// AppendPCM appends PCM16 samples for resampling.
func (s *StreamResampler) AppendPCM(pcm []int16) error {
	if s == nil || s.resampler == nil || len(pcm) == 0 {
		return nil
	}
	tmp := AcquireFloat32(len(pcm))
	tmp = Int16SliceToFloat32Into(tmp, pcm)
	out, err := s.resampler.Process(tmp)
	ReleaseFloat32(tmp)
	if err != nil {
		return err
	}
	if len(out) > 0 {
		s.outBuf = append(s.outBuf, out...)
	}
	return nil
}

// Flush flushes any remaining buffered samples.
func (s *StreamResampler) Flush() error {
	if s == nil || s.resampler == nil {
		return nil
	}
	out, err := s.resampler.Flush()
	if err != nil {
		return err
	}
	if len(out) > 0 {
		s.outBuf = append(s.outBuf, out...)
	}
	return nil
}

// PopFrame returns a fixed-size PCM16 frame if available.
func (s *StreamResampler) PopFrame(frameSize int) ([]int16, bool) {
	if s == nil || frameSize <= 0 || len(s.outBuf) < frameSize {
		return nil, false
	}
	frameFloat := s.outBuf[:frameSize]
	s.outBuf = s.outBuf[frameSize:]
	frame := AcquireInt16(frameSize)
	frame = Float32SliceToInt16SliceInto(frame, frameFloat)
	return frame, true
}

// PopRemainderPadded returns the remaining samples padded to frameSize.
func (s *StreamResampler) PopRemainderPadded(frameSize int) []int16 {
	if s == nil || frameSize <= 0 || len(s.outBuf) == 0 {
		return nil
	}
	if len(s.outBuf) > frameSize {
		s.outBuf = s.outBuf[:frameSize]
	}
	frame := AcquireInt16(frameSize)
	n := len(s.outBuf)
	if n > 0 {
		tmp := frame[:n]
		Float32SliceToInt16SliceInto(tmp, s.outBuf)
	}
	for i := n; i < frameSize; i++ {
		frame[i] = 0
	}
	s.outBuf = nil
	return frame
}

// PopAll drains everything buffered so far as PCM16 samples.
func (s *StreamResampler) PopAll() []int16 {
	if s == nil || len(s.outBuf) == 0 {
		return nil
	}
	out := make([]int16, len(s.outBuf))
	Float32SliceToInt16SliceInto(out, s.outBuf)
	s.outBuf = s.outBuf[:0]
	return out
}

type soxrKey struct {
	inRate  int
	outRate int
	quality resampler.QualityPreset
}

type soxrStreamResampler struct {
	inRate  int
	outRate int
	quality resampler.QualityPreset
	r       *resampler.SimpleResamplerFloat32
}

var soxrPools sync.Map

func getSoxrPool(key soxrKey) *sync.Pool {
	if pool, ok := soxrPools.Load(key); ok {
		return pool.(*sync.Pool)
	}
	pool := &sync.Pool{}
	actual, _ := soxrPools.LoadOrStore(key, pool)
	return actual.(*sync.Pool)
}

func acquireSoxrResampler(inRate, outRate int, quality resampler.QualityPreset) (*resampler.SimpleResamplerFloat32, error) {
	key := soxrKey{inRate: inRate, outRate: outRate, quality: quality}
	pool := getSoxrPool(key)
	if v := pool.Get(); v != nil {
		if r, ok := v.(*resampler.SimpleResamplerFloat32); ok && r != nil {
			return r, nil
		}
	}
	return resampler.NewEngineFloat32(float64(inRate), float64(outRate), quality)
}

func releaseSoxrResampler(inRate, outRate int, quality resampler.QualityPreset, r *resampler.SimpleResamplerFloat32) {
	if r == nil {
		return
	}
	r.Reset()
	key := soxrKey{inRate: inRate, outRate: outRate, quality: quality}
	getSoxrPool(key).Put(r)
}

func newSoxrStreamResampler(inRate, outRate int) (*soxrStreamResampler, error) {
	r, err := acquireSoxrResampler(inRate, outRate, resampler.QualityHigh)
	if err != nil {
		return nil, err
	}
	return &soxrStreamResampler{
		inRate:  inRate,
		outRate: outRate,
		quality: resampler.QualityHigh,
		r:       r,
	}, nil
}

func (s *soxrStreamResampler) Process(input []float32) ([]float32, error) {
	if s == nil || s.r == nil {
		return nil, errors.New("soxr resampler is nil")
	}
	return s.r.Process(input)
}

func (s *soxrStreamResampler) Flush() ([]float32, error) {
	if s == nil || s.r == nil {
		return nil, errors.New("soxr resampler is nil")
	}
	return s.r.Flush()
}

func (s *soxrStreamResampler) Close() {
	if s == nil || s.r == nil {
		return
	}
	releaseSoxrResampler(s.inRate, s.outRate, s.quality, s.r)
	s.r = nil
}
