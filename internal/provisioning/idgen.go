package provisioning

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"strconv"
)

const (
	// Numeric identifier range handed out to teams and users.
	idLower = 10000
	idUpper = 99999

	// Random probing gives up after this many collisions.
	maxIDAttempts = 10000

	passwordAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	defaultPasswordLength = 10

	usernamePrefix = "T"
)

// AllocateID draws a uniformly random identifier in [lower, upper] that is
// absent from used, reserves it there and returns it. Random probing keeps
// allocation O(1) expected while the namespace is sparse; the attempt cap
// turns saturation into a deterministic ErrIDSpaceExhausted instead of an
// unbounded loop.
func AllocateID(used map[int]struct{}, lower, upper int) (int, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := mrand.IntN(upper-lower+1) + lower
		if _, taken := used[id]; taken {
			continue
		}
		used[id] = struct{}{}
		return id, nil
	}
	return 0, fmt.Errorf("no free id after %d attempts in range %d-%d: %w", maxIDAttempts, lower, upper, ErrIDSpaceExhausted)
}

// UsernameForID derives the default username for an identifier.
func UsernameForID(id int) string {
	return usernamePrefix + strconv.Itoa(id)
}

// ResolveUsername returns base if it is free in used, otherwise the first
// free base+N for N = 1, 2, ... The winning value is reserved in used before
// returning; nothing is reserved on intermediate probes.
func ResolveUsername(base string, used map[string]struct{}) string {
	if _, taken := used[base]; !taken {
		used[base] = struct{}{}
		return base
	}
	for suffix := 1; ; suffix++ {
		candidate := base + strconv.Itoa(suffix)
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}
}

// GeneratePassword returns a random alphanumeric string of the given length.
// Each character is drawn from crypto/rand; the result is unguessable but
// carries no uniqueness guarantee.
func GeneratePassword(length int) string {
	max := big.NewInt(int64(len(passwordAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken.
			panic(fmt.Sprintf("provisioning: read random source: %v", err))
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf)
}
