package codec

import (
	"encoding/binary"
	"testing"
)

func TestPackDecodeV2Audio(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	frame := Pack(Version2, PayloadKindAudio, payload)

	got, kind, err := Decode(Version2, frame)
	if err != nil {
		t.Fatalf("Decode(v2) returned error: %v", err)
	}
	if kind != PayloadKindAudio {
		t.Fatalf("Decode(v2) kind=%v, want %v", kind, PayloadKindAudio)
	}
	if string(got) != string(payload) {
		t.Fatalf("Decode(v2) payload=%v, want %v", got, payload)
	}
}

func TestPackDecodeV3Event(t *testing.T) {
	payload := []byte(`{"event":31}`)
	frame := Pack(Version3, PayloadKindEvent, payload)

	got, kind, err := Decode(Version3, frame)
	if err != nil {
		t.Fatalf("Decode(v3) returned error: %v", err)
	}
	if kind != PayloadKindEvent {
		t.Fatalf("Decode(v3) kind=%v, want %v", kind, PayloadKindEvent)
	}
	if string(got) != string(payload) {
		t.Fatalf("Decode(v3) payload=%q, want %q", string(got), string(payload))
	}
}

func TestPackDecodeV2Command(t *testing.T) {
	payload := []byte(`{"command":20,"properties":"[]"}`)
	frame := Pack(Version2, PayloadKindCommand, payload)

	got, kind, err := Decode(Version2, frame)
	if err != nil {
		t.Fatalf("Decode(v2 cmd) returned error: %v", err)
	}
	if kind != PayloadKindCommand {
		t.Fatalf("Decode(v2 cmd) kind=%v, want %v", kind, PayloadKindCommand)
	}
	if string(got) != string(payload) {
		t.Fatalf("Decode(v2 cmd) payload=%q, want %q", string(got), string(payload))
	}
}

func TestDecodeV1PassThrough(t *testing.T) {
	payload := []byte{0xAA, 0xBB}
	got, kind, err := Decode(Version1, payload)
	if err != nil {
		t.Fatalf("Decode(v1) returned error: %v", err)
	}
	if kind != PayloadKindAudio {
		t.Fatalf("Decode(v1) kind=%v, want %v", kind, PayloadKindAudio)
	}
	if string(got) != string(payload) {
		t.Fatalf("Decode(v1) payload=%v, want %v", got, payload)
	}
}

func TestDecodeV2InvalidPayloadSize(t *testing.T) {
	frame := make([]byte, 16)
	binary.BigEndian.PutUint16(frame[0:2], Version2)
	binary.BigEndian.PutUint16(frame[2:4], payloadTypeAudio)
	binary.BigEndian.PutUint32(frame[12:16], 10)

	_, _, err := Decode(Version2, frame)
	if err == nil {
		t.Fatal("Decode(v2) error=nil, want non-nil")
	}
}

func TestDecodeV3UnsupportedType(t *testing.T) {
	frame := []byte{9, 0, 0, 0}
	_, _, err := Decode(Version3, frame)
	if err == nil {
		t.Fatal("Decode(v3) error=nil, want non-nil")
	}
}

func TestDecodeV3TooShort(t *testing.T) {
	_, _, err := Decode(Version3, []byte{1, 0})
	if err == nil {
		t.Fatal("Decode(v3) error=nil, want non-nil")
	}
}
