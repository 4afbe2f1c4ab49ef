// Package speech turns recorded child audio into per-letter pronunciation
// feedback for the tablet app.
package speech

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/eyzhang1221/unity-game-controllers/internal/protocol"
	"github.com/eyzhang1221/unity-game-controllers/resources"
)

// DefaultPassThreshold is the SpeechAce quality score a phoneme must reach
// to count as pronounced correctly.
const DefaultPassThreshold = 70

// Scorer maps phone quality scores onto the letters of the attempted word.
type Scorer struct {
	threshold  float64
	arpabet    map[string]string
	alignments map[string]wordAlignment
}

type wordAlignment struct {
	Graphemes []string `json:"graphemes"`
	Phonemes  []string `json:"phonemes"`
}

// Result bundles one scored pronunciation attempt.
type Result struct {
	Word     string
	Phonemes []protocol.PhonemeResult
	Letters  []protocol.PhonemeResult
}

// Passed reports whether every phoneme of the attempt met the threshold.
func (r *Result) Passed() bool {
	if r == nil {
		return false
	}
	for _, p := range r.Phonemes {
		if !p.Passed {
			return false
		}
	}
	return true
}

// NewScorer executes the newScorer function.
func NewScorer(threshold float64) (*Scorer, error) {
	if threshold <= 0 {
		threshold = DefaultPassThreshold
	}

	rawMap, err := resources.ArpabetMapping()
	if err != nil {
		return nil, err
	}
	arpabet, err := parseArpabetMapping(rawMap)
	if err != nil {
		return nil, err
	}

	rawAlign, err := resources.WordAlignments()
	if err != nil {
		return nil, err
	}
	alignments, err := parseWordAlignments(rawAlign)
	if err != nil {
		return nil, err
	}

	return &Scorer{
		threshold:  threshold,
		arpabet:    arpabet,
		alignments: alignments,
	}, nil
}

// parseArpabetMapping reads rows of "transcription rune, CMU arpabet phone"
// into a phone keyed map.
func parseArpabetMapping(data []byte) (map[string]string, error) {
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse arpabet mapping: %w", err)
	}
	out := make(map[string]string, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("arpabet mapping row %d has %d columns, want 2", i+1, len(row))
		}
		char := strings.TrimSpace(row[0])
		phone := strings.ToUpper(strings.TrimSpace(row[1]))
		if char == "" || phone == "" {
			return nil, fmt.Errorf("arpabet mapping row %d is incomplete", i+1)
		}
		out[phone] = char
	}
	return out, nil
}

func parseWordAlignments(data []byte) (map[string]wordAlignment, error) {
	var raw map[string]wordAlignment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse word alignments: %w", err)
	}
	out := make(map[string]wordAlignment, len(raw))
	for word, al := range raw {
		if len(al.Graphemes) != len(al.Phonemes) {
			return nil, fmt.Errorf("misaligned entry for %q: %d graphemes, %d phonemes",
				word, len(al.Graphemes), len(al.Phonemes))
		}
		out[strings.ToLower(word)] = al
	}
	return out, nil
}

// Alignment returns the grapheme and phoneme sequences for a word.
func (s *Scorer) Alignment(word string) (graphemes, phonemes []string, err error) {
	al, ok := s.alignments[strings.ToLower(strings.TrimSpace(word))]
	if !ok {
		return nil, nil, fmt.Errorf("no alignment for word: %s", word)
	}
	return al.Graphemes, al.Phonemes, nil
}

// Knows reports whether the scorer has an alignment for the word.
func (s *Scorer) Knows(word string) bool {
	_, ok := s.alignments[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// Score zips phone quality scores with the word's phoneme alignment and
// fans each grapheme's outcome out to its letters.
func (s *Scorer) Score(word string, phones []PhoneScore) (*Result, error) {
	graphemes, phonemes, err := s.Alignment(word)
	if err != nil {
		return nil, err
	}
	if len(phones) != len(phonemes) {
		return nil, fmt.Errorf("phone scores for %q: got %d, want %d", word, len(phones), len(phonemes))
	}

	result := &Result{
		Word:     strings.ToLower(strings.TrimSpace(word)),
		Phonemes: make([]protocol.PhonemeResult, len(phonemes)),
	}
	for i, phoneme := range phonemes {
		result.Phonemes[i] = protocol.PhonemeResult{
			Phoneme: phoneme,
			Passed:  phones[i].QualityScore >= s.threshold,
		}
	}

	// Multi letter graphemes share one phoneme outcome per letter.
	for i, grapheme := range graphemes {
		for _, letter := range strings.ToLower(grapheme) {
			result.Letters = append(result.Letters, protocol.PhonemeResult{
				Phoneme: string(letter),
				Passed:  result.Phonemes[i].Passed,
			})
		}
	}
	return result, nil
}

// Similarity measures how close two words sound, 0 meaning identical
// transcriptions and 1 meaning nothing shared.
func (s *Scorer) Similarity(word1, word2 string) (float64, error) {
	t1, err := s.transcription(word1)
	if err != nil {
		return 0, err
	}
	t2, err := s.transcription(word2)
	if err != nil {
		return 0, err
	}

	longest := len([]rune(t1))
	if n := len([]rune(t2)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0, nil
	}
	dist := levenshtein.ComputeDistance(t1, t2)
	return float64(dist) / float64(longest), nil
}

// transcription renders a word's phonemes as a compact string with one
// rune per phone.
func (s *Scorer) transcription(word string) (string, error) {
	_, phonemes, err := s.Alignment(word)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, phoneme := range phonemes {
		char, ok := s.arpabet[strings.ToUpper(phoneme)]
		if !ok {
			return "", fmt.Errorf("phone not in arpabet map: %s", phoneme)
		}
		sb.WriteString(char)
	}
	return sb.String(), nil
}
