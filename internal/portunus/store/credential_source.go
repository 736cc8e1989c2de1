package store

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// CredentialSource supplies the authorized credential list. It is read
// once at startup; the controller never writes back.
type CredentialSource interface {
	LoadCredentials(ctx context.Context) ([]types.Credential, error)
}
