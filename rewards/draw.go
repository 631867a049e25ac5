package rewards

import (
	"crypto/rand"
	"encoding/binary"
	"errors"

	"github.com/cppla/officing/models"
)

// ErrEmptyPool is returned when there is nothing to draw from.
var ErrEmptyPool = errors.New("no prizes available")

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// CryptoSource reads from crypto/rand.
type CryptoSource struct{}

// Float64 returns a uniform value in [0, 1) built from 53 random bits.
// crypto/rand.Read does not return errors as of Go 1.24 (it aborts the
// process instead), so there is no fallback value.
func (CryptoSource) Float64() float64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// IsHighRank reports whether rank resets the pity counter.
func IsHighRank(rank string) bool {
	return rank == models.RankS || rank == models.RankA
}

// Drawable reports whether a prize may be drawn right now.
func Drawable(p models.Prize) bool {
	return p.IsAvailable && (p.Stock == nil || *p.Stock > 0)
}

// SelectPool filters the drawable prizes. Once pityCounter reaches threshold the
// pool is narrowed to S and A ranks; if none of those are drawable the full pool
// is used. pityApplied is true only when the narrowed pool was used.
func SelectPool(prizes []models.Prize, pityCounter, threshold int) (pool []models.Prize, pityApplied bool) {
	for _, p := range prizes {
		if Drawable(p) {
			pool = append(pool, p)
		}
	}
	if threshold <= 0 || pityCounter < threshold {
		return pool, false
	}
	var high []models.Prize
	for _, p := range pool {
		if IsHighRank(p.Rank) {
			high = append(high, p)
		}
	}
	if len(high) == 0 {
		return pool, false
	}
	return high, true
}

// WeightedPick runs a roulette-wheel selection over pool. The first prize whose
// cumulative weight reaches the drawn value wins; if rounding leaves the value
// positive the first prize is returned.
func WeightedPick(pool []models.Prize, src RandomSource) (int, error) {
	if len(pool) == 0 {
		return -1, ErrEmptyPool
	}
	total := 0.0
	for _, p := range pool {
		total += p.Weight
	}
	r := src.Float64() * total
	for i, p := range pool {
		r -= p.Weight
		if r <= 0 {
			return i, nil
		}
	}
	return 0, nil
}

// NextPity resets the counter on an S or A rank and increments it otherwise.
func NextPity(counter int, rank string) int {
	if IsHighRank(rank) {
		return 0
	}
	return counter + 1
}
