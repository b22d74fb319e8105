package password

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies user passwords with bcrypt.
type Hasher struct {
	Cost int // bcrypt cost factor

	dummyOnce sync.Once
	dummy     []byte // compared against when there is no stored digest
}

// New creates a Hasher with the given bcrypt cost.
// A cost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns a salted bcrypt digest of plain.
// The salt and cost are encoded in the returned string.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest.
// A malformed digest never matches. An empty digest never matches either,
// but is compared against a throwaway digest of the same cost first.
func (h *Hasher) Verify(plain, digest string) bool {
	if digest == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummyDigest(), []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

func (h *Hasher) dummyDigest() []byte {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("no such user"), h.Cost)
	})
	return h.dummy
}
