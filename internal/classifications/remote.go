package classifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Remote classifies text by POSTing it to an external tagging service.
// The service answers with a JSON array of predictions carrying
// code-point offsets.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote creates a Remote classifier targeting endpoint. A nil client
// selects http.DefaultClient.
func NewRemote(endpoint string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

// Classify sends text to the tagging service.
func (r *Remote) Classify(ctx context.Context, text string) ([]Prediction, error) {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tagging service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tagging service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var preds []Prediction
	if err := json.NewDecoder(resp.Body).Decode(&preds); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if preds == nil {
		return nil, ErrEmptyResponse
	}
	return preds, nil
}
