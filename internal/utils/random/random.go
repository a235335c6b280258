package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the subset of *rand.Rand the feeds need.
type Source interface {
	Shuffle(n int, swap func(i, j int))
	Intn(n int) int
}

// Locked guards a *rand.Rand so it can be shared across requests.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a goroutine-safe source. A zero seed picks one from the clock.
func New(seed int64) *Locked {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Locked{r: rand.New(rand.NewSource(seed))}
}

func (l *Locked) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
