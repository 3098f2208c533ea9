package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPEngine talks to an external synthesis service. Estimation stays local
// (same model as LocalEngine) so request_floor and speak admission checks
// never wait on the network.
type HTTPEngine struct {
	http        *http.Client
	apiKey      string
	base        string
	charsPerSec float64
}

func NewHTTPEngine(base, apiKey string, charsPerSec float64) *HTTPEngine {
	if charsPerSec <= 0 {
		charsPerSec = 20
	}
	return &HTTPEngine{
		http:        &http.Client{},
		apiKey:      apiKey,
		base:        base,
		charsPerSec: charsPerSec,
	}
}

func (e *HTTPEngine) EstimateDuration(p Payload) time.Duration {
	secs := float64(len(p.Text)) / e.charsPerSec / p.speed()
	return time.Duration(secs * float64(time.Second))
}

func (e *HTTPEngine) Synthesize(ctx context.Context, roomID string, p Payload) error {
	body := map[string]any{
		"room_id":        roomID,
		"text":           p.Text,
		"emotion":        p.Emotion,
		"speed":          p.speed(),
		"target_aituber": p.TargetAITuber,
	}
	var out bytes.Buffer
	if err := json.NewEncoder(&out).Encode(body); err != nil {
		return &TransportError{Op: "synthesize", Err: err, Retryable: false}
	}
	req, err := http.NewRequestWithContext(ctx, "POST", e.base+"/v1/synthesize", &out)
	if err != nil {
		return &TransportError{Op: "synthesize", Err: err, Retryable: false}
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return &TransportError{Op: "synthesize", Err: err, Retryable: true}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("%s: %s", resp.Status, string(b))
		// 5xx is worth retrying within the lease window; 4xx is not.
		return &TransportError{Op: "synthesize", Err: err, Retryable: resp.StatusCode >= 500}
	}
	return nil
}
