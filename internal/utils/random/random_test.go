package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func shuffled(seed int64) []int {
	s := []int{1, 2, 3, 4, 5, 6, 7, 8}
	New(seed).Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	return s
}

func TestNew_FixedSeedIsReproducible(t *testing.T) {
	assert.Equal(t, shuffled(42), shuffled(42))
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, shuffled(7))
}

func TestIntn_InRange(t *testing.T) {
	src := New(0)
	for i := 0; i < 100; i++ {
		n := src.Intn(3)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 3)
	}
}
