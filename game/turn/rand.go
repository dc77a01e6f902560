package turn

import "math/rand"

// RandSource supplies the director's random choices: neutral wandering and the
// hostile pick among adjacent allies.
type RandSource interface {
	Intn(n int) int
}

// NewRand returns a seeded source. Equal seeds replay equal matches.
func NewRand(seed int64) RandSource {
	return rand.New(rand.NewSource(seed))
}

// Sequence replays fixed choices, wrapping around. Each value is reduced modulo n.
type Sequence struct {
	Values []int
	next   int
}

// Intn returns the next value modulo n.
func (s *Sequence) Intn(n int) int {
	if n <= 0 || len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
