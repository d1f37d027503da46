package clients

import "context"

// Repo persists client applications. Lookups of unknown clients return an error
// wrapping ErrNotFound; storing an existing ID returns one wrapping ErrAlreadyExists.
type Repo interface {
	StoreClientCredentials(ctx context.Context, creds *ClientCredentials) error
	FindClientCredentials(ctx context.Context, clientID string) (*ClientCredentials, error)
	UpdateClientCredentials(ctx context.Context, creds *ClientCredentials) error
	DeleteClientApp(ctx context.Context, clientID string) error
	ListClientCredentials(ctx context.Context) ([]*ClientCredentials, error)
	// ValidClient compares the secret in constant time, ignoring the client's status.
	ValidClient(ctx context.Context, clientID, clientSecret string) (bool, error)
}
