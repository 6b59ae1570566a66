package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec("secret")
	value, err := codec.Encode("session-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	id, err := codec.Decode(value)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if id != "session-1" {
		t.Fatalf("expected session-1, got %s", id)
	}
}

func TestCodecRejectsForeignSecret(t *testing.T) {
	value, _ := NewCodec("secret").Encode("session-1", time.Now().Add(time.Hour))
	if _, err := NewCodec("other").Decode(value); !errors.Is(err, ErrInvalidCookie) {
		t.Fatalf("expected ErrInvalidCookie, got %v", err)
	}
}

func TestCodecRejectsTamperedValue(t *testing.T) {
	codec := NewCodec("secret")
	value, _ := codec.Encode("session-1", time.Now().Add(time.Hour))
	parts := strings.Split(value, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := codec.Decode(tampered); !errors.Is(err, ErrInvalidCookie) {
		t.Fatalf("expected ErrInvalidCookie, got %v", err)
	}
	if _, err := codec.Decode("not-a-token"); !errors.Is(err, ErrInvalidCookie) {
		t.Fatalf("expected ErrInvalidCookie for garbage, got %v", err)
	}
}

func TestCodecRejectsExpired(t *testing.T) {
	codec := NewCodec("secret")
	value, _ := codec.Encode("session-1", time.Now().Add(-time.Minute))
	if _, err := codec.Decode(value); !errors.Is(err, ErrInvalidCookie) {
		t.Fatalf("expected ErrInvalidCookie for expired cookie, got %v", err)
	}
}
