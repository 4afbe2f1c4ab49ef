package audio

import "testing"

func TestBytesToInt16Slice(t *testing.T) {
	data := []byte{0x01, 0x00, 0xFF, 0x7F, 0x00, 0x80}
	got := BytesToInt16Slice(data)
	want := []int16{1, 32767, -32768}
	if len(got) != len(want) {
		t.Fatalf("len=%d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBytesToInt16SlicePadsOddLength(t *testing.T) {
	data := []byte{0x01, 0x00, 0x02}
	got := BytesToInt16Slice(data)
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[1] != 2 {
		t.Errorf("sample 1 = %d, want 2", got[1])
	}
}

func TestBytesToInt16SliceInto(t *testing.T) {
	scratch := make([]int16, 0, 8)
	data := []byte{0x34, 0x12, 0x78, 0x56}
	got := BytesToInt16SliceInto(scratch, data)
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0] != 0x1234 || got[1] != 0x5678 {
		t.Errorf("samples=%v, want [0x1234 0x5678]", got)
	}
}

func TestInt16SliceToBytesIntoRoundTrip(t *testing.T) {
	pcm := []int16{0, 1, -1, 32767, -32768, 256}
	buf := make([]byte, len(pcm)*2)
	Int16SliceToBytesInto(buf, pcm)
	back := BytesToInt16Slice(buf)
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Errorf("sample %d = %d, want %d", i, back[i], pcm[i])
		}
	}
}

func TestFloat32SliceToInt16SliceIntoClamps(t *testing.T) {
	in := []float32{0, 0.5, 1.5, -1.5}
	out := make([]int16, len(in))
	out = Float32SliceToInt16SliceInto(out, in)
	if out[0] != 0 {
		t.Errorf("out[0]=%d, want 0", out[0])
	}
	if out[2] != 32767 {
		t.Errorf("out[2]=%d, want 32767", out[2])
	}
	if out[3] != -32768 {
		t.Errorf("out[3]=%d, want -32768", out[3])
	}
}

func TestInt16SliceToFloat32IntoRange(t *testing.T) {
	in := []int16{0, 16384, -16384, 32767}
	out := make([]float32, len(in))
	out = Int16SliceToFloat32Into(out, in)
	if out[0] != 0 {
		t.Errorf("out[0]=%v, want 0", out[0])
	}
	if out[1] <= 0.49 || out[1] >= 0.51 {
		t.Errorf("out[1]=%v, want ~0.5", out[1])
	}
	if out[2] >= -0.49 || out[2] <= -0.51 {
		t.Errorf("out[2]=%v, want ~-0.5", out[2])
	}
}

func TestAcquireBytesLength(t *testing.T) {
	buf := AcquireBytes(100)
	if len(buf) != 100 {
		t.Fatalf("len=%d, want 100", len(buf))
	}
	ReleaseBytes(buf)

	again := AcquireBytes(10)
	if len(again) != 10 {
		t.Fatalf("len=%d, want 10", len(again))
	}
	ReleaseBytes(again)
}

func TestAcquireInt16Length(t *testing.T) {
	buf := AcquireInt16(320)
	if len(buf) != 320 {
		t.Fatalf("len=%d, want 320", len(buf))
	}
	ReleaseInt16(buf)
}
