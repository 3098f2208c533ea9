package speech

import (
	"context"
	"fmt"
	"time"
)

// Payload is one utterance to synthesize.
type Payload struct {
	Text          string  `json:"text"`
	TargetAITuber string  `json:"target_aituber,omitempty"`
	Emotion       string  `json:"emotion,omitempty"`
	Speed         float64 `json:"speed,omitempty"` // 0.5-2.0, 0 means 1.0
}

// Engine is the synthesis collaborator consumed by floor arbitration.
// EstimateDuration must be fast and synchronous; Synthesize may block up to
// the caller's context deadline.
type Engine interface {
	EstimateDuration(p Payload) time.Duration
	Synthesize(ctx context.Context, roomID string, p Payload) error
}

// TransportError wraps a collaborator failure. Retryable marks transient
// faults (network, 5xx); permanent rejections (bad payload) are not
// retryable.
type TransportError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("speech %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (p Payload) speed() float64 {
	if p.Speed < 0.5 || p.Speed > 2.0 {
		return 1.0
	}
	return p.Speed
}
