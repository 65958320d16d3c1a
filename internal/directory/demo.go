package directory

import "fmt"

// DemoAccount is the fixed (ID, email, roles, plaintext password) tuple one
// demo seed account is built from. The plaintext is only ever used to
// produce a bcrypt hash or to print alongside a generated token; it is
// never stored.
type DemoAccount struct {
	ID       string
	Email    string
	Roles    []string
	Password string
}

// DemoAccountSeeds is the handful of demo actors bootstrap wires the
// reference UserDirectory from, and cmd/seed prints credentials for.
var DemoAccountSeeds = []DemoAccount{
	{ID: "applicant-1", Email: "applicant@example.com", Roles: []string{"ROLE_APPLICANT"}, Password: "demo-applicant-pw"},
	{ID: "approver-1", Email: "approver@example.com", Roles: []string{"ROLE_APPROVER"}, Password: "demo-approver-pw"},
	{ID: "admin-1", Email: "admin@example.com", Roles: []string{"ROLE_ADMIN"}, Password: "demo-admin-pw"},
}

// DemoAccounts hashes DemoAccountSeeds' passwords at cost and returns the
// resulting Account set, ready to hand to NewInMemoryDirectory.
func DemoAccounts(cost int) ([]Account, error) {
	accounts := make([]Account, 0, len(DemoAccountSeeds))
	for _, seed := range DemoAccountSeeds {
		hash, err := HashPassword(seed.Password, cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", seed.ID, err)
		}
		accounts = append(accounts, Account{
			ID:           seed.ID,
			Email:        seed.Email,
			Roles:        seed.Roles,
			PasswordHash: hash,
		})
	}
	return accounts, nil
}
