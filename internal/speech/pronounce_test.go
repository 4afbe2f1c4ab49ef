package speech

import (
	"math"
	"testing"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(0)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func TestScorerAlignment(t *testing.T) {
	s := newTestScorer(t)

	graphemes, phonemes, err := s.Alignment("Giraffe")
	if err != nil {
		t.Fatalf("Alignment: %v", err)
	}
	wantG := []string{"g", "ir", "a", "ffe"}
	wantP := []string{"JH", "ER", "AE", "F"}
	if len(graphemes) != len(wantG) || len(phonemes) != len(wantP) {
		t.Fatalf("lens=%d/%d, want %d/%d", len(graphemes), len(phonemes), len(wantG), len(wantP))
	}
	for i := range wantG {
		if graphemes[i] != wantG[i] {
			t.Errorf("grapheme %d = %q, want %q", i, graphemes[i], wantG[i])
		}
		if phonemes[i] != wantP[i] {
			t.Errorf("phoneme %d = %q, want %q", i, phonemes[i], wantP[i])
		}
	}

	if _, _, err := s.Alignment("xylophone"); err == nil {
		t.Errorf("Alignment accepted unknown word")
	}
}

func TestScorerScoreFansOutLetters(t *testing.T) {
	s := newTestScorer(t)

	phones := []PhoneScore{
		{Phone: "jh", QualityScore: 92},
		{Phone: "er", QualityScore: 85},
		{Phone: "ae", QualityScore: 70},
		{Phone: "f", QualityScore: 41},
	}
	result, err := s.Score("giraffe", phones)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if result.Passed() {
		t.Errorf("Passed()=true with a failing phoneme")
	}
	if len(result.Phonemes) != 4 {
		t.Fatalf("phonemes=%d, want 4", len(result.Phonemes))
	}
	// Exactly 70 meets the threshold.
	if !result.Phonemes[2].Passed {
		t.Errorf("phoneme %q failed at threshold", result.Phonemes[2].Phoneme)
	}
	if result.Phonemes[3].Passed {
		t.Errorf("phoneme %q passed below threshold", result.Phonemes[3].Phoneme)
	}

	wantLetters := []string{"g", "i", "r", "a", "f", "f", "e"}
	wantPassed := []bool{true, true, true, true, false, false, false}
	if len(result.Letters) != len(wantLetters) {
		t.Fatalf("letters=%d, want %d", len(result.Letters), len(wantLetters))
	}
	for i := range wantLetters {
		if result.Letters[i].Phoneme != wantLetters[i] {
			t.Errorf("letter %d = %q, want %q", i, result.Letters[i].Phoneme, wantLetters[i])
		}
		if result.Letters[i].Passed != wantPassed[i] {
			t.Errorf("letter %q passed=%v, want %v", wantLetters[i], result.Letters[i].Passed, wantPassed[i])
		}
	}
}

func TestScorerScoreCountMismatch(t *testing.T) {
	s := newTestScorer(t)
	if _, err := s.Score("cat", []PhoneScore{{QualityScore: 90}}); err == nil {
		t.Errorf("Score accepted wrong phone count")
	}
}

func TestScorerSimilarity(t *testing.T) {
	s := newTestScorer(t)

	same, err := s.Similarity("cat", "cat")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if same != 0 {
		t.Errorf("Similarity(cat,cat)=%v, want 0", same)
	}

	// cat -> k@t, boat -> bot: two substitutions over three phones.
	catBoat, err := s.Similarity("cat", "boat")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if math.Abs(catBoat-2.0/3.0) > 1e-9 {
		t.Errorf("Similarity(cat,boat)=%v, want %v", catBoat, 2.0/3.0)
	}

	boatCat, err := s.Similarity("boat", "cat")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if boatCat != catBoat {
		t.Errorf("similarity is not symmetric: %v vs %v", boatCat, catBoat)
	}

	if _, err := s.Similarity("cat", "xylophone"); err == nil {
		t.Errorf("Similarity accepted unknown word")
	}
}

func TestScorerKnows(t *testing.T) {
	s := newTestScorer(t)
	if !s.Knows("Seashell") {
		t.Errorf("Knows(Seashell)=false")
	}
	if s.Knows("xylophone") {
		t.Errorf("Knows(xylophone)=true")
	}
}

func TestParseWordAlignmentsRejectsMisaligned(t *testing.T) {
	bad := []byte(`{"cat": {"graphemes": ["c", "a", "t"], "phonemes": ["K", "AE"]}}`)
	if _, err := parseWordAlignments(bad); err == nil {
		t.Errorf("parseWordAlignments accepted misaligned entry")
	}
}

func TestParseArpabetMappingRejectsBadRow(t *testing.T) {
	if _, err := parseArpabetMapping([]byte("a,AA,extra\n")); err == nil {
		t.Errorf("parseArpabetMapping accepted three column row")
	}
	if _, err := parseArpabetMapping([]byte(",AA\n")); err == nil {
		t.Errorf("parseArpabetMapping accepted empty transcription rune")
	}
}
