package rewards

import (
	"errors"
	"testing"
)

func TestXPRequiredForLevel(t *testing.T) {
	cases := []struct {
		level int
		want  int
	}{
		{1, 100},
		{2, 282},
		{3, 519},
		{4, 800},
		{10, 3162},
	}
	for _, tc := range cases {
		got, err := XPRequiredForLevel(tc.level)
		if err != nil {
			t.Fatalf("level %d: %v", tc.level, err)
		}
		if got != tc.want {
			t.Fatalf("XPRequiredForLevel(%d)=%d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestXPRequiredForLevelRejectsInvalid(t *testing.T) {
	for _, level := range []int{0, -1, -100} {
		if _, err := XPRequiredForLevel(level); !errors.Is(err, ErrInvalidLevel) {
			t.Fatalf("level %d: expected ErrInvalidLevel, got %v", level, err)
		}
	}
}

func TestXPRequiredForLevelIsMonotonic(t *testing.T) {
	prev, _ := XPRequiredForLevel(1)
	for level := 2; level <= 500; level++ {
		cur, _ := XPRequiredForLevel(level)
		if cur <= prev {
			t.Fatalf("requirement not increasing at level %d: %d <= %d", level, cur, prev)
		}
		prev = cur
	}
}

func TestApplyXPBelowThreshold(t *testing.T) {
	res, err := ApplyXP(1, 0, 99)
	if err != nil {
		t.Fatal(err)
	}
	if res.Level != 1 || res.XP != 99 || res.LeveledUp || res.LevelsGained != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestApplyXPSingleLevelUp(t *testing.T) {
	res, err := ApplyXP(1, 0, 300)
	if err != nil {
		t.Fatal(err)
	}
	if res.Level != 2 || res.XP != 18 || !res.LeveledUp || res.LevelsGained != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestApplyXPExactThreshold(t *testing.T) {
	res, _ := ApplyXP(1, 232, 50)
	if res.Level != 2 || res.XP != 0 {
		t.Fatalf("exact threshold should level up with zero remainder, got %+v", res)
	}
}

func TestApplyXPMultiLevelJump(t *testing.T) {
	// 282 (->2) + 519 (->3) + 800 (->4) = 1601
	res, err := ApplyXP(1, 0, 1601+5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Level != 4 || res.XP != 5 || res.LevelsGained != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	next, _ := XPRequiredForLevel(res.Level + 1)
	if res.XP >= next {
		t.Fatalf("remainder %d not below next requirement %d", res.XP, next)
	}
}

func TestApplyXPRejectsInvalidInput(t *testing.T) {
	if _, err := ApplyXP(0, 0, 10); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
	if _, err := ApplyXP(1, -1, 10); !errors.Is(err, ErrNegativeXP) {
		t.Fatalf("expected ErrNegativeXP, got %v", err)
	}
	if _, err := ApplyXP(1, 0, -10); !errors.Is(err, ErrNegativeXP) {
		t.Fatalf("expected ErrNegativeXP, got %v", err)
	}
}

func TestNextLevelXP(t *testing.T) {
	if got := NextLevelXP(1); got != 282 {
		t.Fatalf("NextLevelXP(1)=%d", got)
	}
	if got := NextLevelXP(-5); got != 0 {
		t.Fatalf("NextLevelXP(-5)=%d", got)
	}
}
