package infra

import (
	"testing"
	"time"
)

func TestWindowBounds_AlignsToWallClock(t *testing.T) {
	// 90s após um múltiplo de 60 => janela começou há 30s, faltam 30s
	now := time.Unix(1_700_000_000-(1_700_000_000%60)+90, 0)

	start, reset := windowBounds(now, 60*time.Second)
	if start.Unix()%60 != 0 {
		t.Fatalf("expected window start aligned to 60s, got %d", start.Unix())
	}
	if reset != 30*time.Second {
		t.Fatalf("expected reset=30s, got %s", reset)
	}
}

func TestWindowBounds_SubSecondWindowClampsToOneSecond(t *testing.T) {
	now := time.Unix(1_700_000_000, 500_000_000)

	_, reset := windowBounds(now, 100*time.Millisecond)
	if reset < 0 {
		t.Fatalf("expected non-negative reset, got %s", reset)
	}
}
