package service

import (
	"context"
	"fmt"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// CredentialStore answers membership queries against the authorized list.
// The list is fixed when the store is built.
type CredentialStore struct {
	creds []types.Credential
}

func NewCredentialStore(creds []types.Credential) *CredentialStore {
	cp := make([]types.Credential, len(creds))
	copy(cp, creds)
	return &CredentialStore{creds: cp}
}

// LoadCredentialStore builds a store from the union of srcs.
func LoadCredentialStore(ctx context.Context, srcs ...store.CredentialSource) (*CredentialStore, error) {
	var all []types.Credential
	for _, src := range srcs {
		creds, err := src.LoadCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
		all = append(all, creds...)
	}
	return NewCredentialStore(all), nil
}

func (s *CredentialStore) IsAuthorized(c types.Credential) bool {
	for _, a := range s.creds {
		if a == c {
			return true
		}
	}
	return false
}

func (s *CredentialStore) Len() int { return len(s.creds) }
