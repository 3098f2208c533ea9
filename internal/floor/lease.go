package floor

import "time"

// Lease is a time-bounded grant of the floor to one participant. At most one
// live lease exists per room. Callers receive copies; the machine keeps the
// authoritative record.
type Lease struct {
	ID          string        `json:"lease_id"`
	RoomID      string        `json:"room_id"`
	HolderID    string        `json:"holder_id"`
	GrantedAt   time.Time     `json:"granted_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
	MaxDuration time.Duration `json:"max_duration"`
}

// Live reports whether the lease is still valid at now. Comparisons use the
// monotonic reading carried by the clock's timestamps.
func (l Lease) Live(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}

// Remaining returns the unexpired portion of the lease window, floored at 0.
func (l Lease) Remaining(now time.Time) time.Duration {
	if !l.Live(now) {
		return 0
	}
	return l.ExpiresAt.Sub(now)
}

// ReleaseReason records why a lease ended.
type ReleaseReason string

const (
	ReleaseVoluntary    ReleaseReason = "voluntary"
	ReleaseExpired      ReleaseReason = "expired"
	ReleaseDisconnected ReleaseReason = "disconnected"
)
