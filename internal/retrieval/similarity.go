package retrieval

import (
	"errors"
	"fmt"
	"math"
)

type Match struct {
	Index int
	Score float64
}

func norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, clamped to [-1, 1].
func Cosine(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0, ErrDegenerateVector
	}
	return math.Max(-1, math.Min(1, dot/(na*nb))), nil
}

// Rank picks the chunk vector closest to q. The first of equal scores wins.
// Zero-norm chunk vectors are skipped; a zero-norm question is an error.
func Rank(chunks []Vector, q Vector) (Match, error) {
	if len(chunks) == 0 {
		return Match{}, errors.New("no chunk vectors to rank")
	}
	if norm(q) == 0 {
		return Match{}, fmt.Errorf("%w: question vector has zero norm", ErrDegenerateVector)
	}

	best := Match{Index: -1}
	for i, v := range chunks {
		score, err := Cosine(v, q)
		if errors.Is(err, ErrDegenerateVector) {
			continue
		}
		if err != nil {
			return Match{}, fmt.Errorf("chunk %d: %w", i, err)
		}
		if best.Index < 0 || score > best.Score {
			best = Match{Index: i, Score: score}
		}
	}

	if best.Index < 0 {
		return Match{}, fmt.Errorf("%w: every chunk vector has zero norm", ErrDegenerateVector)
	}
	return best, nil
}
