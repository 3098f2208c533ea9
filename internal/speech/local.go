package speech

import (
	"context"
	"time"
)

// LocalEngine estimates and "plays" speech without any external service.
// Useful for the demo binary and tests. Duration model: fixed rate of
// characters per second, scaled by the payload speed.
type LocalEngine struct {
	CharsPerSec float64
	// Sleep toggles whether Synthesize actually waits out the estimate.
	Sleep bool
}

func NewLocalEngine(charsPerSec float64) *LocalEngine {
	if charsPerSec <= 0 {
		charsPerSec = 20
	}
	return &LocalEngine{CharsPerSec: charsPerSec}
}

func (e *LocalEngine) EstimateDuration(p Payload) time.Duration {
	secs := float64(len(p.Text)) / e.CharsPerSec / p.speed()
	return time.Duration(secs * float64(time.Second))
}

func (e *LocalEngine) Synthesize(ctx context.Context, roomID string, p Payload) error {
	if !e.Sleep {
		return nil
	}
	select {
	case <-time.After(e.EstimateDuration(p)):
		return nil
	case <-ctx.Done():
		return &TransportError{Op: "synthesize", Err: ctx.Err(), Retryable: true}
	}
}
