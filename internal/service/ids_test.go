package service

import (
	"encoding/hex"
	"testing"
)

func TestNewLinkTokenShape(t *testing.T) {
	token := newLinkToken()
	if len(token) != 32 {
		t.Fatalf("token length = %d, want 32", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("token is not hex: %v", err)
	}
}

func TestNewLinkTokenNoCollisions(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token := newLinkToken()
		if _, ok := seen[token]; ok {
			t.Fatalf("duplicate token after %d generations", i)
		}
		seen[token] = struct{}{}
	}
}
