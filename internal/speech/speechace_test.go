package speech

import "testing"

const sampleScoreResponse = `{
  "status": "success",
  "text_score": {
    "text": "giraffe",
    "word_score_list": [
      {
        "word": "giraffe",
        "quality_score": 78,
        "phone_score_list": [
          {"phone": "jh", "quality_score": 92.1},
          {"phone": "er", "quality_score": 85.0},
          {"phone": "ae", "quality_score": 71.4},
          {"phone": "f", "quality_score": 44.9}
        ]
      }
    ]
  }
}`

func TestParseScoreResponse(t *testing.T) {
	phones, err := parseScoreResponse([]byte(sampleScoreResponse), "giraffe")
	if err != nil {
		t.Fatalf("parseScoreResponse: %v", err)
	}
	if len(phones) != 4 {
		t.Fatalf("phones=%d, want 4", len(phones))
	}
	if phones[0].Phone != "jh" {
		t.Errorf("phone 0 = %q, want jh", phones[0].Phone)
	}
	if phones[3].QualityScore != 44.9 {
		t.Errorf("score 3 = %v, want 44.9", phones[3].QualityScore)
	}
}

func TestParseScoreResponseWrongWord(t *testing.T) {
	if _, err := parseScoreResponse([]byte(sampleScoreResponse), "monkey"); err == nil {
		t.Errorf("parseScoreResponse found scores for a word not in the response")
	}
}

func TestParseScoreResponseAPIError(t *testing.T) {
	body := `{"status": "error", "short_message": "invalid api key"}`
	_, err := parseScoreResponse([]byte(body), "giraffe")
	if err == nil {
		t.Fatalf("parseScoreResponse accepted error status")
	}
}

func TestParseScoreResponseGarbage(t *testing.T) {
	if _, err := parseScoreResponse([]byte("<html>"), "giraffe"); err == nil {
		t.Errorf("parseScoreResponse accepted non-json body")
	}
}
