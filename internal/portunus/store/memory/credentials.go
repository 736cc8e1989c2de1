package memory

import (
	"context"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// CredentialSource serves a fixed list, typically parsed from config.
type CredentialSource struct {
	creds []types.Credential
}

func NewCredentialSource(creds []types.Credential) *CredentialSource {
	cp := make([]types.Credential, len(creds))
	copy(cp, creds)
	return &CredentialSource{creds: cp}
}

func (s *CredentialSource) LoadCredentials(_ context.Context) ([]types.Credential, error) {
	out := make([]types.Credential, len(s.creds))
	copy(out, s.creds)
	return out, nil
}
