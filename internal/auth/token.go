package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat = errors.New("invalid token format")
	ErrTokenSig    = errors.New("invalid token signature")
	ErrTokenExp    = errors.New("token expired")
	ErrTokenRoom   = errors.New("room id mismatch")
	ErrTokenPID    = errors.New("participant id mismatch")
)

// GenerateParticipantToken builds a token authorizing a participant in a room.
// Format: base64url(room_id "." participant_id "." exp_unix "." hex(hmac_sha256(secret, claims)))
func GenerateParticipantToken(secret, roomID, participantID string, expUnix int64) (string, error) {
	msg := roomID + "." + participantID + "." + strconv.FormatInt(expUnix, 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	sig := hex.EncodeToString(mac.Sum(nil))
	raw := msg + "." + sig
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// ValidateParticipantToken parses and validates the token against the
// expected room and participant. Empty expectations skip that check.
// Returns the embedded room id, participant id and expiry.
func ValidateParticipantToken(secret, token, expectRoomID, expectParticipantID string, now time.Time, skewSeconds int) (string, string, int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", 0, ErrTokenFormat
	}
	parts := strings.Split(string(b), ".")
	if len(parts) != 4 {
		return "", "", 0, ErrTokenFormat
	}
	roomID, pid, expStr, sigHex := parts[0], parts[1], parts[2], parts[3]
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", "", 0, ErrTokenFormat
	}
	if expectRoomID != "" && roomID != expectRoomID {
		return "", "", 0, ErrTokenRoom
	}
	if expectParticipantID != "" && pid != expectParticipantID {
		return "", "", 0, ErrTokenPID
	}
	msg := roomID + "." + pid + "." + expStr
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	want := mac.Sum(nil)
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", "", 0, ErrTokenFormat
	}
	// constant-time compare
	if !hmac.Equal(want, got) {
		return "", "", 0, ErrTokenSig
	}
	skew := int64(skewSeconds)
	if now.Unix() > exp+skew {
		return "", "", 0, ErrTokenExp
	}
	return roomID, pid, exp, nil
}
