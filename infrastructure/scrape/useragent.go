package scrape

import "math/rand/v2"

// DefaultUserAgents is the browser User-Agent pool used when no scrape
// profile overrides it.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 6.2; WOW64) AppleWebKit/537.13 (KHTML, like Gecko) Chrome/24.0.1290.1 Safari/537.13",
	"Mozilla/5.0 (Windows NT 6.2) AppleWebKit/537.13 (KHTML, like Gecko) Chrome/24.0.1290.1 Safari/537.13",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_8_2) AppleWebKit/537.13 (KHTML, like Gecko) Chrome/24.0.1290.1 Safari/537.13",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_7_4) AppleWebKit/537.13 (KHTML, like Gecko) Chrome/24.0.1290.1 Safari/537.13",
	"Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.13 (KHTML, like Gecko) Chrome/24.0.1284.0 Safari/537.13",
	"Mozilla/5.0 (Windows NT 5.1) AppleWebKit/537.11 (KHTML, like Gecko) Chrome/23.0.1271.6 Safari/537.11",
}

// UserAgents is a pool of User-Agent strings.
type UserAgents struct {
	pool []string
}

// NewUserAgents creates a pool. An empty list falls back to DefaultUserAgents.
func NewUserAgents(agents []string) UserAgents {
	pool := make([]string, 0, len(agents))
	for _, a := range agents {
		if a != "" {
			pool = append(pool, a)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, DefaultUserAgents...)
	}
	return UserAgents{pool: pool}
}

// Random returns a uniformly chosen User-Agent.
func (u UserAgents) Random() string {
	if len(u.pool) == 0 {
		return DefaultUserAgents[rand.IntN(len(DefaultUserAgents))]
	}
	return u.pool[rand.IntN(len(u.pool))]
}

// All returns a copy of the pool.
func (u UserAgents) All() []string {
	out := make([]string, len(u.pool))
	copy(out, u.pool)
	return out
}
