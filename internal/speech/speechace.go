package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PhoneScore is one phone level entry from a SpeechAce word result.
type PhoneScore struct {
	Phone        string  `json:"phone"`
	QualityScore float64 `json:"quality_score"`
}

// ScoreClient represents a scoreClient for the SpeechAce scoring API.
type ScoreClient struct {
	apiURL  string
	key     string
	dialect string
	client  *http.Client
}

// NewScoreClient executes the newScoreClient function.
func NewScoreClient(apiURL, key, dialect string) *ScoreClient {
	if dialect == "" {
		dialect = "en-us"
	}
	return &ScoreClient{
		apiURL:  apiURL,
		key:     key,
		dialect: dialect,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Score uploads one recorded word and returns its phone quality scores.
func (c *ScoreClient) Score(ctx context.Context, word string, wav []byte) ([]PhoneScore, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, fmt.Errorf("score word is empty")
	}
	if len(wav) == 0 {
		return nil, fmt.Errorf("score audio is empty")
	}
	if c.apiURL == "" {
		return nil, fmt.Errorf("speech api url is not configured")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("text", word); err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	part, err := form.CreateFormFile("user_audio_file", word+".wav")
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}

	query := url.Values{}
	query.Set("key", c.key)
	query.Set("dialect", c.dialect)
	endpoint := c.apiURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + query.Encode()
	} else {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call speech api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read speech api response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return parseScoreResponse(raw, word)
}

// parseScoreResponse extracts the phone score list for word from a
// SpeechAce response body.
func parseScoreResponse(raw []byte, word string) ([]PhoneScore, error) {
	var payload struct {
		Status       string `json:"status"`
		ShortMessage string `json:"short_message"`
		TextScore    struct {
			WordScoreList []struct {
				Word           string       `json:"word"`
				QualityScore   float64      `json:"quality_score"`
				PhoneScoreList []PhoneScore `json:"phone_score_list"`
			} `json:"word_score_list"`
		} `json:"text_score"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse speech api response: %w", err)
	}
	if payload.Status != "success" {
		msg := payload.ShortMessage
		if msg == "" {
			msg = payload.Status
		}
		return nil, fmt.Errorf("speech api error: %s", msg)
	}

	for _, entry := range payload.TextScore.WordScoreList {
		if strings.EqualFold(strings.TrimSpace(entry.Word), word) {
			if len(entry.PhoneScoreList) == 0 {
				return nil, fmt.Errorf("no phone scores for word: %s", word)
			}
			return entry.PhoneScoreList, nil
		}
	}
	return nil, fmt.Errorf("no score for word: %s", word)
}
