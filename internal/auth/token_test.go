package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(5 * time.Minute).Unix()

	tok, err := GenerateParticipantToken(sec, "room-1", "p-1", exp)
	if err != nil {
		t.Fatalf("gen: %v", err)
	}

	gotRoom, gotPID, gotExp, err := ValidateParticipantToken(sec, tok, "room-1", "p-1", time.Now(), 60)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotRoom != "room-1" || gotPID != "p-1" || gotExp != exp {
		t.Fatalf("mismatch: %s/%s/%d", gotRoom, gotPID, gotExp)
	}
}

func TestBadSignature(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(5 * time.Minute).Unix()
	tok, _ := GenerateParticipantToken(sec, "room-1", "p-1", exp)

	// flip a char
	if tok[0] == 'A' {
		tok = "B" + tok[1:]
	} else {
		tok = "A" + tok[1:]
	}

	if _, _, _, err := ValidateParticipantToken(sec, tok, "room-1", "p-1", time.Now(), 60); err == nil {
		t.Fatalf("expected error for bad token")
	}
}

func TestRoomMismatch(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(5 * time.Minute).Unix()
	tok, _ := GenerateParticipantToken(sec, "room-1", "p-1", exp)

	if _, _, _, err := ValidateParticipantToken(sec, tok, "room-2", "p-1", time.Now(), 60); err != ErrTokenRoom {
		t.Fatalf("expected ErrTokenRoom, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(-10 * time.Minute).Unix()
	tok, _ := GenerateParticipantToken(sec, "room-1", "p-1", exp)

	if _, _, _, err := ValidateParticipantToken(sec, tok, "room-1", "p-1", time.Now(), 60); err != ErrTokenExp {
		t.Fatalf("expected ErrTokenExp, got %v", err)
	}
}
