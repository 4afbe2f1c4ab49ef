package audio

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/eyzhang1221/unity-game-controllers/pkg/audio/opusx"
)

const opusMaxFrameDurationMs = 120

// OpusEncoder represents a opusEncoder.
type OpusEncoder struct {
	encoder       *opusx.Encoder
	sampleRate    int
	channels      int
	frameDuration int
	frameSize     int
	opusBuffer    []byte
	mutex         sync.Mutex
}

// NewOpusEncoder executes the newOpusEncoder function.
func NewOpusEncoder(sampleRate, channels, frameDurationMs int) (*OpusEncoder, error) {
	enc, err := acquireRawOpusEncoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %v", err)
	}
	applyOpusEncoderOptions(enc)

	frameSize := sampleRate * frameDurationMs / 1000
	opusBuffer := make([]byte, 4000)

	return &OpusEncoder{
		encoder:       enc,
		sampleRate:    sampleRate,
		channels:      channels,
		frameDuration: frameDurationMs,
		frameSize:     frameSize,
		opusBuffer:    opusBuffer,
	}, nil
}

// Encode executes the encode method.
func (e *OpusEncoder) Encode(pcmData []byte) ([]byte, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	pcmSamples := BytesToInt16Slice(pcmData)

	expectedSamples := e.frameSize * e.channels
	if len(pcmSamples) < expectedSamples {
		paddedSamples := make([]int16, expectedSamples)
		copy(paddedSamples, pcmSamples)
		pcmSamples = paddedSamples
	} else if len(pcmSamples) > expectedSamples {
		pcmSamples = pcmSamples[:expectedSamples]
	}

	n, err := e.encoder.Encode(pcmSamples, e.opusBuffer)
	if err != nil {
		return nil, fmt.Errorf("opus encode: %v", err)
	}

	if n == 0 {
		return nil, nil
	}

	result := make([]byte, n)
	copy(result, e.opusBuffer[:n])

	return result, nil
}

// EncodeWithScratch encodes PCM bytes using a provided scratch buffer to reduce allocations.
func (e *OpusEncoder) EncodeWithScratch(pcmData []byte, scratch []int16) ([]byte, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	expectedSamples := e.frameSize * e.channels
	pcmSamples := BytesToInt16SliceInto(scratch, pcmData)

	if len(pcmSamples) < expectedSamples {
		if cap(pcmSamples) < expectedSamples {
			tmp := make([]int16, expectedSamples)
			copy(tmp, pcmSamples)
			pcmSamples = tmp
		} else {
			origLen := len(pcmSamples)
			pcmSamples = pcmSamples[:expectedSamples]
			for i := origLen; i < expectedSamples; i++ {
				pcmSamples[i] = 0
			}
		}
	} else if len(pcmSamples) > expectedSamples {
		pcmSamples = pcmSamples[:expectedSamples]
	}

	n, err := e.encoder.Encode(pcmSamples, e.opusBuffer)
	if err != nil {
		return nil, fmt.Errorf("opus encode: %v", err)
	}

	if n == 0 {
		return nil, nil
	}

	result := make([]byte, n)
	copy(result, e.opusBuffer[:n])
	return result, nil
}

// SetBitrate executes the setBitrate method.
func (e *OpusEncoder) SetBitrate(bitrate int) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.encoder.SetBitrate(bitrate)
}

// Close executes the close method.
func (e *OpusEncoder) Close() error {
	if e.encoder != nil {
		releaseRawOpusEncoder(e.sampleRate, e.channels, e.encoder)
	}
	e.encoder = nil
	e.opusBuffer = nil
	return nil
}

// GetFrameSize executes the getFrameSize method.
func (e *OpusEncoder) GetFrameSize() int {
	return e.frameSize
}

// GetFrameDuration executes the getFrameDuration method.
func (e *OpusEncoder) GetFrameDuration() int {
	return e.frameDuration
}

// GetFrameBytes executes the getFrameBytes method.
func (e *OpusEncoder) GetFrameBytes() int {
	return e.frameSize * e.channels * 2
}

// OpusDecoder represents a opusDecoder.
type OpusDecoder struct {
	decoder    *opusx.Decoder
	sampleRate int
	channels   int
	mutex      sync.Mutex
}

// NewOpusDecoder executes the newOpusDecoder function.
func NewOpusDecoder(sampleRate, channels int) (*OpusDecoder, error) {
	dec, err := opusx.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %v", err)
	}
	return &OpusDecoder{decoder: dec, sampleRate: sampleRate, channels: channels}, nil
}

// Decode decodes one opus frame into PCM16 samples.
func (d *OpusDecoder) Decode(frame []byte) ([]int16, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.decoder == nil {
		return nil, fmt.Errorf("opus decoder is not initialized")
	}

	sampleRate := d.sampleRate
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	maxSamples := sampleRate * opusMaxFrameDurationMs / 1000
	if maxSamples <= 0 {
		maxSamples = 5760
	}
	channels := d.channels
	if channels < 1 {
		channels = 1
	}

	pcm := make([]int16, maxSamples*channels)
	n, err := d.decoder.Decode(frame, pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode: %v", err)
	}
	if n <= 0 {
		return nil, nil
	}
	return pcm[:n*channels], nil
}

type opusEncoderKey struct {
	sampleRate    int
	channels      int
	frameDuration int
}

var opusEncoderPools sync.Map

func getOpusEncoderPool(key opusEncoderKey) *sync.Pool {
	if pool, ok := opusEncoderPools.Load(key); ok {
		return pool.(*sync.Pool)
	}
	pool := &sync.Pool{}
	actual, _ := opusEncoderPools.LoadOrStore(key, pool)
	return actual.(*sync.Pool)
}

// AcquireOpusEncoder reuses encoders keyed by sampleRate/channels/frameDuration.
func AcquireOpusEncoder(sampleRate, channels, frameDurationMs int) (*OpusEncoder, error) {
	key := opusEncoderKey{
		sampleRate:    sampleRate,
		channels:      channels,
		frameDuration: frameDurationMs,
	}
	pool := getOpusEncoderPool(key)
	if v := pool.Get(); v != nil {
		enc := v.(*OpusEncoder)
		if enc.encoder != nil {
			return enc, nil
		}
	}
	return NewOpusEncoder(sampleRate, channels, frameDurationMs)
}

// ReleaseOpusEncoder returns encoder to pool for reuse.
func ReleaseOpusEncoder(enc *OpusEncoder) {
	if enc == nil {
		return
	}
	enc.mutex.Lock()
	if enc.encoder != nil {
		_ = enc.encoder.Reset()
	}
	enc.mutex.Unlock()
	key := opusEncoderKey{
		sampleRate:    enc.sampleRate,
		channels:      enc.channels,
		frameDuration: enc.frameDuration,
	}
	getOpusEncoderPool(key).Put(enc)
}

type opusRawKey struct {
	sampleRate int
	channels   int
}

var opusRawEncoderPools sync.Map

func getOpusRawEncoderPool(key opusRawKey) *sync.Pool {
	if pool, ok := opusRawEncoderPools.Load(key); ok {
		return pool.(*sync.Pool)
	}
	pool := &sync.Pool{}
	actual, _ := opusRawEncoderPools.LoadOrStore(key, pool)
	return actual.(*sync.Pool)
}

func acquireRawOpusEncoder(sampleRate, channels int) (*opusx.Encoder, error) {
	key := opusRawKey{sampleRate: sampleRate, channels: channels}
	pool := getOpusRawEncoderPool(key)
	if v := pool.Get(); v != nil {
		if enc, ok := v.(*opusx.Encoder); ok && enc != nil {
			return enc, nil
		}
	}
	return opusx.NewEncoder(sampleRate, channels, opusx.AppAudio)
}

func releaseRawOpusEncoder(sampleRate, channels int, enc *opusx.Encoder) {
	if enc == nil {
		return
	}
	if err := enc.Reset(); err != nil {
		// Ignore reset errors; encoder will be reused or recreated later.
	}
	key := opusRawKey{sampleRate: sampleRate, channels: channels}
	getOpusRawEncoderPool(key).Put(enc)
}

type opusEncodeOptions struct {
	bitrate        int
	complexity     int
	vbr            *bool
	vbrConstraint  *bool
	fec            *bool
	dtx            *bool
	packetLossPerc int
	maxBandwidth   string
}

var (
	opusOptionsOnce sync.Once
	opusOptions     opusEncodeOptions
	opusLogOnce     sync.Once
)

func getOpusEncodeOptions() opusEncodeOptions {
	opusOptionsOnce.Do(func() {
		opusOptions = opusEncodeOptions{
			bitrate:        getenvInt("OPUS_BITRATE", 0),
			complexity:     getenvInt("OPUS_COMPLEXITY", 0),
			vbr:            getenvBoolPtr("OPUS_VBR"),
			vbrConstraint:  getenvBoolPtr("OPUS_VBR_CONSTRAINT"),
			fec:            getenvBoolPtr("OPUS_FEC"),
			dtx:            getenvBoolPtr("OPUS_DTX"),
			packetLossPerc: getenvInt("OPUS_PACKET_LOSS_PERC", 0),
			maxBandwidth:   strings.ToLower(strings.TrimSpace(os.Getenv("OPUS_MAX_BANDWIDTH"))),
		}
	})
	return opusOptions
}

func applyOpusEncoderOptions(enc *opusx.Encoder) {
	if enc == nil {
		return
	}
	opts := getOpusEncodeOptions()

	if opts.bitrate > 0 {
		_ = enc.SetBitrate(opts.bitrate)
	}
	if opts.complexity > 0 {
		_ = enc.SetComplexity(opts.complexity)
	}
	if opts.vbr != nil {
		_ = enc.SetVBR(*opts.vbr)
	}
	if opts.vbrConstraint != nil {
		_ = enc.SetVBRConstraint(*opts.vbrConstraint)
	}
	if opts.fec != nil {
		_ = enc.SetInBandFEC(*opts.fec)
	}
	if opts.dtx != nil {
		_ = enc.SetDTX(*opts.dtx)
	}
	if opts.packetLossPerc > 0 {
		_ = enc.SetPacketLossPerc(opts.packetLossPerc)
	}
	if bw := parseOpusBandwidth(opts.maxBandwidth); bw != nil {
		_ = enc.SetMaxBandwidth(*bw)
	}

	opusLogOnce.Do(func() {
		log.Printf(
			"Opus encoder options: bitrate=%d complexity=%d vbr=%s vbr_constraint=%s fec=%s dtx=%s packet_loss=%d max_bw=%s",
			opts.bitrate,
			opts.complexity,
			boolPtrString(opts.vbr),
			boolPtrString(opts.vbrConstraint),
			boolPtrString(opts.fec),
			boolPtrString(opts.dtx),
			opts.packetLossPerc,
			opts.maxBandwidth,
		)
	})
}

// LogOpusBackend logs which opus implementation the build linked in.
func LogOpusBackend() {
	opusLogOnce.Do(func() {
		log.Printf("Opus backend: %s", opusx.Backend())
	})
}

func parseOpusBandwidth(v string) *opusx.Bandwidth {
	switch v {
	case "", "auto":
		return nil
	case "narrowband", "nb":
		bw := opusx.Narrowband
		return &bw
	case "mediumband", "mb":
		bw := opusx.Mediumband
		return &bw
	case "wideband", "wb":
		bw := opusx.Wideband
		return &bw
	case "superwideband", "swb":
		bw := opusx.SuperWideband
		return &bw
	case "fullband", "fb":
		bw := opusx.Fullband
		return &bw
	default:
		return nil
	}
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBoolPtr(key string) *bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func boolPtrString(v *bool) string {
	if v == nil {
		return "unset"
	}
	if *v {
		return "true"
	}
	return "false"
}
