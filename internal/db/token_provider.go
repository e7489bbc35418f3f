package db

import (
	"context"
	"time"
)

// AzurePostgreSQLScope is the OAuth2 scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// TokenProvider acquires short-lived authentication tokens for cloud-managed
// PostgreSQL services. The token is used in place of a password.
type TokenProvider interface {
	// GetToken returns a valid token and its expiry time.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)
}
