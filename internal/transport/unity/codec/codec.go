package codec

import (
	"encoding/binary"
	"errors"
	"time"
)

const (
	// Version1 uses raw audio payload frames.
	Version1 = 1
	// Version2 uses a fixed-width header with payload type, timestamp and size.
	Version2 = 2
	// Version3 uses a compact fixed-width header with payload type and size.
	Version3 = 3

	payloadTypeAudio = 0
	payloadTypeCmd   = 1
	payloadTypeEvent = 2
)

// PayloadKind describes the decoded payload category.
type PayloadKind int

const (
	// PayloadKindAudio indicates microphone or playback audio bytes.
	PayloadKindAudio PayloadKind = iota
	// PayloadKindCommand indicates JSON game command bytes.
	PayloadKindCommand
	// PayloadKindEvent indicates JSON game event bytes.
	PayloadKindEvent
)

// NormalizeVersion returns a supported protocol version.
func NormalizeVersion(version int) int {
	switch version {
	case Version2, Version3:
		return version
	default:
		return Version1
	}
}

// Decode parses a binary frame according to protocol version. Version 1
// frames carry raw audio with no header.
func Decode(version int, frame []byte) ([]byte, PayloadKind, error) {
	switch NormalizeVersion(version) {
	case Version2:
		return decodeV2(frame)
	case Version3:
		return decodeV3(frame)
	default:
		return frame, PayloadKindAudio, nil
	}
}

// Pack creates a binary frame according to protocol version. Version 1
// drops the kind and emits the payload as-is.
func Pack(version int, kind PayloadKind, payload []byte) []byte {
	switch NormalizeVersion(version) {
	case Version2:
		return packV2(kind, payload)
	case Version3:
		return packV3(kind, payload)
	default:
		return payload
	}
}

func kindToWire(kind PayloadKind) byte {
	switch kind {
	case PayloadKindCommand:
		return payloadTypeCmd
	case PayloadKindEvent:
		return payloadTypeEvent
	default:
		return payloadTypeAudio
	}
}

func wireToKind(wire uint16) (PayloadKind, bool) {
	switch wire {
	case payloadTypeAudio:
		return PayloadKindAudio, true
	case payloadTypeCmd:
		return PayloadKindCommand, true
	case payloadTypeEvent:
		return PayloadKindEvent, true
	default:
		return PayloadKindAudio, false
	}
}

func decodeV2(frame []byte) ([]byte, PayloadKind, error) {
	const headerSize = 16
	if len(frame) < headerSize {
		return nil, PayloadKindAudio, errors.New("game binary v2 frame too short")
	}
	msgType := binary.BigEndian.Uint16(frame[2:4])
	payloadSize := binary.BigEndian.Uint32(frame[12:16])
	if int(payloadSize) > len(frame)-headerSize {
		return nil, PayloadKindAudio, errors.New("game binary v2 invalid payload size")
	}
	kind, ok := wireToKind(msgType)
	if !ok {
		return nil, PayloadKindAudio, errors.New("game binary v2 unsupported payload type")
	}
	return frame[headerSize : headerSize+int(payloadSize)], kind, nil
}

func decodeV3(frame []byte) ([]byte, PayloadKind, error) {
	const headerSize = 4
	if len(frame) < headerSize {
		return nil, PayloadKindAudio, errors.New("game binary v3 frame too short")
	}
	msgType := frame[0]
	payloadSize := binary.BigEndian.Uint16(frame[2:4])
	if int(payloadSize) > len(frame)-headerSize {
		return nil, PayloadKindAudio, errors.New("game binary v3 invalid payload size")
	}
	kind, ok := wireToKind(uint16(msgType))
	if !ok {
		return nil, PayloadKindAudio, errors.New("game binary v3 unsupported payload type")
	}
	return frame[headerSize : headerSize+int(payloadSize)], kind, nil
}

func packV2(kind PayloadKind, payload []byte) []byte {
	const headerSize = 16
	head := make([]byte, headerSize)
	binary.BigEndian.PutUint16(head[0:2], Version2)
	binary.BigEndian.PutUint16(head[2:4], uint16(kindToWire(kind)))
	binary.BigEndian.PutUint32(head[4:8], 0)
	binary.BigEndian.PutUint32(head[8:12], uint32(time.Now().UnixMilli()))
	binary.BigEndian.PutUint32(head[12:16], uint32(len(payload)))
	return append(head, payload...)
}

func packV3(kind PayloadKind, payload []byte) []byte {
	head := make([]byte, 4)
	head[0] = kindToWire(kind)
	head[1] = 0
	binary.BigEndian.PutUint16(head[2:4], uint16(len(payload)))
	return append(head, payload...)
}
