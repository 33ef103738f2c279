package fixture

import "context"

// RemoteStore is the tabular store fixtures are reconciled against.
type RemoteStore interface {
	// Lookup returns one page of rows whose FixtureID is in identities.
	// An empty offset requests the first page.
	Lookup(ctx context.Context, identities []string, offset string) (LookupPage, error)
	BatchCreate(ctx context.Context, plans []CreatePlan) ([]RemoteRow, error)
	BatchUpdate(ctx context.Context, plans []UpdatePlan) ([]RemoteRow, error)
}
