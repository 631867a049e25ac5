package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/cppla/officing/config"
)

func TestInitOTelDisabled(t *testing.T) {
	shutdown := InitOTel(context.Background(), zap.NewNop(), config.AppConfig{})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0.25: 0.25, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v)=%v, want %v", in, got, want)
		}
	}
}
