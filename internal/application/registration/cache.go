package registration

import (
	"fmt"
	"sync"
	"time"

	"github.com/cashflow-api/internal/domain"
)

// Cache holds unconfirmed signups keyed by email. All methods are safe for
// concurrent use and hold the lock only for the map access itself.
//
// Entries expire lazily when a verify observes them past their deadline.
// Nothing sweeps abandoned entries and the map is unbounded.
type Cache struct {
	mu      sync.Mutex
	entries map[string]domain.PendingRegistration
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]domain.PendingRegistration)}
}

// Put inserts or overwrites the entry for email.
func (c *Cache) Put(email string, p domain.PendingRegistration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[email] = p
}

func (c *Cache) Get(email string) (domain.PendingRegistration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[email]
	return p, ok
}

func (c *Cache) Delete(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, email)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Refresh replaces the code and deadline of an existing entry, expired or
// not, and returns the updated copy. It reports false when no entry exists.
func (c *Cache) Refresh(email, otp string, expiresAt time.Time) (domain.PendingRegistration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[email]
	if !ok {
		return domain.PendingRegistration{}, false
	}
	p.OTP = otp
	p.ExpiresAt = expiresAt
	c.entries[email] = p
	return p, true
}

// Claim consumes the entry for email when code matches and the entry is
// unexpired at now. An expired entry is removed whatever the code; a wrong
// code leaves a live entry in place.
func (c *Cache) Claim(email, code string, now time.Time) (domain.PendingRegistration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[email]
	if !ok {
		return domain.PendingRegistration{}, fmt.Errorf("no pending registration for %s: %w", email, domain.ErrNoPendingRegistration)
	}
	if p.Expired(now) {
		delete(c.entries, email)
		return domain.PendingRegistration{}, fmt.Errorf("code for %s expired: %w", email, domain.ErrOTPExpired)
	}
	if p.OTP != code {
		return domain.PendingRegistration{}, fmt.Errorf("code mismatch for %s: %w", email, domain.ErrInvalidOTP)
	}
	delete(c.entries, email)
	return p, nil
}

// Restore puts back a claimed entry whose promotion failed, unless a newer
// registration for the same email has arrived since.
func (c *Cache) Restore(p domain.PendingRegistration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[p.Email]; exists {
		return false
	}
	c.entries[p.Email] = p
	return true
}
