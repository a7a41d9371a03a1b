package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jiaming2012/rsa-tracker/src/models"
)

// MaxMessageLength is the chat platform's hard limit on a single message.
const MaxMessageLength = 2000

// SplitMessage breaks msg into chunks that each fit inside the platform
// limit. Splitting is rune-aware so multi-byte characters are never cut in
// half.
func SplitMessage(msg string) []string {
	runes := []rune(msg)
	if len(runes) <= MaxMessageLength {
		return []string{msg}
	}

	var chunks []string
	for len(runes) > 0 {
		n := MaxMessageLength
		if n > len(runes) {
			n = len(runes)
		}

		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}

// SendMessage posts msg to the chat webhook, splitting it first if it
// exceeds the platform limit.
func SendMessage(msg string, url string) error {
	for _, chunk := range SplitMessage(msg) {
		body := make(map[string]interface{})
		body["content"] = chunk

		if _, err := PostJSON(url, body); err != nil {
			return fmt.Errorf("SendMessage: %w", err)
		}
	}

	return nil
}

func PostJSON(url string, body map[string]interface{}) ([]byte, error) {
	client := http.Client{
		Timeout: 60 * time.Second,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("PostJSON (Marshal): %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("PostJSON (NewRequest): %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, getErr := client.Do(req)
	if getErr != nil {
		return nil, fmt.Errorf("PostJSON (Do): %w", getErr)
	}

	if res.Body != nil {
		defer res.Body.Close()
	}

	bodyBytes, readErr := io.ReadAll(res.Body)
	if readErr != nil {
		return nil, fmt.Errorf("PostJSON (ReadAll): %w", readErr)
	}

	if res.StatusCode >= 400 {
		var errDTO models.ErrorDTO
		if jsonErr := json.Unmarshal(bodyBytes, &errDTO); jsonErr != nil {
			return nil, fmt.Errorf("PostJSON (jsonErr): %w. payload: %s", jsonErr, string(bodyBytes))
		}

		return nil, fmt.Errorf("errDTO.Msg: %v", errDTO.Msg)
	}

	return bodyBytes, nil
}
