// Package directory is UserDirectory (C5): read-only lookup of applicant
// and approver contact addresses. The core never writes through this
// interface; it only resolves an id to an email address for the mail-shaped
// C9 listener.
package directory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "ringi.sh/ringi/internal/pkg/errors"
)

// Account is one demo/reference directory entry. PasswordHash is only
// populated by DemoAccounts; authentication itself sits outside this core
// (spec.md §1).
type Account struct {
	ID           string
	Email        string
	Roles        []string
	PasswordHash string
}

// UserDirectory is C5.
type UserDirectory interface {
	EmailOfApplicant(ctx context.Context, id string) (string, error)
	AnyApproverEmail(ctx context.Context) (string, error)
}

// cacheEntry pairs a resolved email with the instant it was looked up, so
// InMemoryDirectory can demonstrate the "short TTL, staleness never
// violates an invariant" cache spec.md allows without needing a real
// external directory service behind it.
type cacheEntry struct {
	email     string
	fetchedAt time.Time
}

// InMemoryDirectory is the reference UserDirectory: a fixed set of seeded
// accounts plus a short-TTL cache in front of the lookup, standing in for
// whatever real directory/identity service a deployment would wire here.
type InMemoryDirectory struct {
	ttl time.Duration

	mu       sync.RWMutex
	accounts map[string]Account
	cache    map[string]cacheEntry
}

// NewInMemoryDirectory builds a directory seeded with accounts, caching
// resolved lookups for ttl.
func NewInMemoryDirectory(accounts []Account, ttl time.Duration) *InMemoryDirectory {
	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InMemoryDirectory{
		ttl:      ttl,
		accounts: byID,
		cache:    make(map[string]cacheEntry),
	}
}

// EmailOfApplicant resolves an applicant id to an email address.
func (d *InMemoryDirectory) EmailOfApplicant(_ context.Context, id string) (string, error) {
	if email, ok := d.cached(id); ok {
		return email, nil
	}

	d.mu.RLock()
	account, ok := d.accounts[id]
	d.mu.RUnlock()
	if !ok {
		return "", apperrors.NotFoundError("no directory entry for applicant")
	}

	d.store(id, account.Email)
	return account.Email, nil
}

// AnyApproverEmail returns the email of some account holding ROLE_APPROVER.
// The core only needs "a" reachable approver, not a specific one, to
// satisfy "notifies the relevant parties" for C9's mail listener.
func (d *InMemoryDirectory) AnyApproverEmail(_ context.Context) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.accounts {
		for _, role := range a.Roles {
			if role == "ROLE_APPROVER" {
				return a.Email, nil
			}
		}
	}
	return "", apperrors.NotFoundError("no approver in directory")
}

func (d *InMemoryDirectory) cached(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.cache[id]
	if !ok || time.Since(entry.fetchedAt) > d.ttl {
		return "", false
	}
	return entry.email, true
}

func (d *InMemoryDirectory) store(id, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache[id] = cacheEntry{email: email, fetchedAt: time.Now()}
}

// HashPassword hashes a plaintext password at the given bcrypt cost, for
// use by DemoAccounts when materializing demo accounts.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
