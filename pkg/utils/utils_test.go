package utils

import "testing"

func TestHashInviteToken(t *testing.T) {
	raw := "qwerty123456"

	h1 := HashInviteToken(raw)
	h2 := HashInviteToken(raw)
	if h1 != h2 {
		t.Fatal("hash is not deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("expected sha256 hex digest, got %d chars", len(h1))
	}
	if h1 == raw {
		t.Fatal("raw token must not equal its hash")
	}

	if HashInviteToken("other") == h1 {
		t.Fatal("different tokens produced the same hash")
	}
}

func TestRandomStr(t *testing.T) {
	s := RandomStr(32)
	if len(s) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(s))
	}
}
