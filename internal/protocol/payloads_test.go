package protocol

import "testing"

func TestAccuracyMapMergesRepeats(t *testing.T) {
	results := []PhonemeResult{
		{Phoneme: "b", Passed: true},
		{Phoneme: "ah", Passed: true},
		{Phoneme: "n", Passed: true},
		{Phoneme: "ae", Passed: true},
		{Phoneme: "n", Passed: true},
		{Phoneme: "ah", Passed: false},
	}
	props, err := EncodeAccuracyMap(results)
	if err != nil {
		t.Fatalf("EncodeAccuracyMap returned error: %v", err)
	}
	got, err := DecodeAccuracyMap(props)
	if err != nil {
		t.Fatalf("DecodeAccuracyMap returned error: %v", err)
	}
	want := map[string]bool{"b": true, "ah": false, "n": true, "ae": true}
	if len(got) != len(want) {
		t.Fatalf("len(accuracy)=%d, want %d", len(got), len(want))
	}
	for phoneme, passed := range want {
		if got[phoneme] != passed {
			t.Fatalf("accuracy[%q]=%v, want %v", phoneme, got[phoneme], passed)
		}
	}
}

func TestDecodeAccuracyMapInvalid(t *testing.T) {
	if _, err := DecodeAccuracyMap("[1,2]"); err == nil {
		t.Fatal("DecodeAccuracyMap error=nil, want non-nil")
	}
}

func TestDecodeTaskListInvalid(t *testing.T) {
	if _, err := DecodeTaskList(`{"task_id":1}`); err == nil {
		t.Fatal("DecodeTaskList error=nil, want non-nil")
	}
}

func TestEncodeDecodePayload(t *testing.T) {
	in := ClickInfo{Object: "balloon", Correct: true}
	s, err := EncodePayload(in)
	if err != nil {
		t.Fatalf("EncodePayload returned error: %v", err)
	}
	var out ClickInfo
	if err := DecodePayload(s, &out); err != nil {
		t.Fatalf("DecodePayload returned error: %v", err)
	}
	if out != in {
		t.Fatalf("payload=%+v, want %+v", out, in)
	}
}
