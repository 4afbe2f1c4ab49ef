package robot

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/eyzhang1221/unity-game-controllers/resources"
)

// Question query paths into the embedded bank.
const (
	QuestionOfferHelp   = "offer_help"
	QuestionWhyChooseIt = "ask_why_choose_it"
	QuestionWantLearn   = "want_learn"
	QuestionAskHelp     = "ask_help"
	QuestionWhyWrong    = "ask_why_wrong"
	QuestionEndOfTurn   = "end_of_turn"
)

type answerEntry struct {
	Keywords []string `json:"keywords"`
	Response []string `json:"response"`
}

type questionEntry struct {
	Question  []string      `json:"question"`
	UserInput []answerEntry `json:"user_input"`
}

// QuestionBank represents a questionBank.
type QuestionBank struct {
	entries map[string]questionEntry
}

// NewQuestionBank loads the embedded question and response bank.
func NewQuestionBank() (*QuestionBank, error) {
	data, err := resources.QuestionAnswers()
	if err != nil {
		return nil, err
	}
	var entries map[string]questionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	return &QuestionBank{entries: entries}, nil
}

// Question returns a question clip path for a query path, picking randomly
// among the variants.
func (b *QuestionBank) Question(queryPath string) (string, error) {
	entry, ok := b.entries[queryPath]
	if !ok || len(entry.Question) == 0 {
		return "", fmt.Errorf("unknown question query: %s", queryPath)
	}
	name := entry.Question[rand.IntN(len(entry.Question))]
	return speechRoot + "questions/" + name + ".wav", nil
}

// ResponseTo matches a child's answer against the bank and returns the
// robot's contingent behaviors. An unmatched answer returns no behaviors
// and no error.
func (b *QuestionBank) ResponseTo(queryPath string, childAnswer string) ([]string, error) {
	entry, ok := b.entries[queryPath]
	if !ok {
		return nil, fmt.Errorf("unknown question query: %s", queryPath)
	}
	answer := strings.ToLower(strings.TrimSpace(childAnswer))
	for _, input := range entry.UserInput {
		for _, keyword := range input.Keywords {
			if matchesKeyword(answer, strings.ToLower(keyword)) {
				return input.Response, nil
			}
		}
	}
	return nil, nil
}

// matchesKeyword reports whether the answer contains the keyword. Keywords
// of four letters or more also match any answer token within one edit.
func matchesKeyword(answer string, keyword string) bool {
	if keyword == "" {
		return false
	}
	if strings.Contains(answer, keyword) {
		return true
	}
	if len(keyword) < 4 {
		return false
	}
	for _, token := range strings.Fields(answer) {
		if levenshtein.ComputeDistance(token, keyword) <= 1 {
			return true
		}
	}
	return false
}
