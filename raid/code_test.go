package raid

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestGenerateRoomCodeShape(t *testing.T) {
	randGen := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		code := generateRoomCode(randGen)
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(roomCodeAlphabet, r) {
				t.Fatalf("code %q contains %q, not in alphabet", code, r)
			}
		}
	}
}

func TestRoomCodeAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	if len(roomCodeAlphabet) != 32 {
		t.Fatalf("expected 32 symbols, got %d", len(roomCodeAlphabet))
	}
	for _, forbidden := range "0O1I" {
		if strings.ContainsRune(roomCodeAlphabet, forbidden) {
			t.Fatalf("alphabet must not contain %q", forbidden)
		}
	}
}

func TestGeneratePlayerTokenShape(t *testing.T) {
	randGen := rand.New(rand.NewSource(42))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token := generatePlayerToken(randGen, now)
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	// 末尾はミリ秒タイムスタンプの36進数表現
	timePart := strconv.FormatInt(now.UnixMilli(), 36)
	if !strings.HasSuffix(token, timePart) {
		t.Fatalf("token %q should end with time fragment %q", token, timePart)
	}

	// 先頭の乱数断片も36進数として解釈できること
	randomPart := strings.TrimSuffix(token, timePart)
	if randomPart == "" {
		t.Fatal("expected a random fragment before the time fragment")
	}
	if _, err := strconv.ParseInt(randomPart, 36, 64); err != nil {
		t.Fatalf("random fragment %q is not base36: %v", randomPart, err)
	}
}

func TestGeneratePlayerTokenDiffers(t *testing.T) {
	randGen := rand.New(rand.NewSource(7))
	now := time.Now()
	a := generatePlayerToken(randGen, now)
	b := generatePlayerToken(randGen, now)
	if a == b {
		t.Fatalf("two tokens from the same instant should still differ: %q", a)
	}
}
