package protocol

import (
	"errors"
	"testing"
)

func TestEventCodeValues(t *testing.T) {
	tests := []struct {
		code EventCode
		want int8
	}{
		{EventHello, 0},
		{EventSceneLoaded, 1},
		{EventRecordComplete, 10},
		{EventSpeechHeard, 11},
		{EventTaskChosen, 20},
		{EventTaskDone, 21},
		{EventObjectFound, 30},
		{EventObjectClicked, 31},
		{EventObjectPronounced, 32},
		{EventButtonPressed, 33},
		{EventTurnFinished, 34},
		{EventGameQuit, 99},
	}
	for _, tt := range tests {
		if int8(tt.code) != tt.want {
			t.Fatalf("%s=%d, want %d", tt.code, int8(tt.code), tt.want)
		}
		if !tt.code.Known() {
			t.Fatalf("Known(%s)=false, want true", tt.code)
		}
	}
}

func TestGameEventRoundTrip(t *testing.T) {
	header := Header{Seq: 42, Stamp: Time{Secs: 1700000001, Nsecs: 42}, Origin: "tablet"}
	ev := NewGameEvent(header, EventObjectClicked, `{"object":"cat","correct":true}`)

	data, err := EncodeGameEvent(ev)
	if err != nil {
		t.Fatalf("EncodeGameEvent returned error: %v", err)
	}
	got, err := DecodeGameEvent(data)
	if err != nil {
		t.Fatalf("DecodeGameEvent returned error: %v", err)
	}
	if got != ev {
		t.Fatalf("round trip=%+v, want %+v", got, ev)
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	data, err := EncodeGameEvent(GameEvent{Event: EventCode(-5)})
	if err != nil {
		t.Fatalf("EncodeGameEvent returned error: %v", err)
	}
	got, err := DecodeGameEvent(data)
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("error=%v, want ErrUnknownEvent", err)
	}
	if got.Event != EventCode(-5) {
		t.Fatalf("event=%d, want -5", int8(got.Event))
	}
}
