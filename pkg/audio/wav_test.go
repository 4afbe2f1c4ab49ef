package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []int16{1, 2, 3, 4}
	data, err := EncodeWAV(pcm, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(data) != wavHeaderSize+len(pcm)*2 {
		t.Fatalf("len=%d, want %d", len(data), wavHeaderSize+len(pcm)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad riff/wave magic: %q %q", data[0:4], data[8:12])
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("sample rate=%d, want 16000", rate)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != 1 {
		t.Errorf("channels=%d, want 1", ch)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits per sample=%d, want 16", bits)
	}
}

func TestEncodeWAVRejectsBadParams(t *testing.T) {
	if _, err := EncodeWAV(nil, 0, 1); err == nil {
		t.Errorf("EncodeWAV accepted zero sample rate")
	}
	if _, err := EncodeWAV(nil, 16000, 0); err == nil {
		t.Errorf("EncodeWAV accepted zero channels")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := []int16{0, 100, -100, 32767, -32768}
	data, err := EncodeWAV(pcm, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	back, rate, channels, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate=%d, want 16000", rate)
	}
	if channels != 1 {
		t.Errorf("channels=%d, want 1", channels)
	}
	if len(back) != len(pcm) {
		t.Fatalf("len=%d, want %d", len(back), len(pcm))
	}
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Errorf("sample %d = %d, want %d", i, back[i], pcm[i])
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, _, err := DecodeWAV([]byte("not a wav")); err == nil {
		t.Errorf("DecodeWAV accepted short garbage")
	}
	long := make([]byte, 64)
	copy(long, "RIFFxxxxJUNK")
	if _, _, _, err := DecodeWAV(long); err == nil {
		t.Errorf("DecodeWAV accepted non-wave riff")
	}
}

func TestDecodeWAVSkipsExtraChunks(t *testing.T) {
	pcm := []int16{7, -7}
	data, err := EncodeWAV(pcm, 8000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	// Splice a LIST chunk between fmt and data.
	list := make([]byte, 12)
	copy(list[0:4], "LIST")
	binary.LittleEndian.PutUint32(list[4:8], 4)
	copy(list[8:12], "INFO")

	spliced := append([]byte{}, data[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, data[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	back, rate, _, err := DecodeWAV(spliced)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 8000 {
		t.Errorf("rate=%d, want 8000", rate)
	}
	if len(back) != 2 || back[0] != 7 || back[1] != -7 {
		t.Errorf("samples=%v, want [7 -7]", back)
	}
}
