package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// CredentialSource reads the authorized list from the credentials table.
type CredentialSource struct {
	db *sql.DB
}

func NewCredentialSource(db *sql.DB) *CredentialSource {
	return &CredentialSource{db: db}
}

// LoadCredentials returns enabled, unrevoked credentials.  Rows whose uid
// is not exactly CredentialLen bytes are skipped.
func (s *CredentialSource) LoadCredentials(ctx context.Context) ([]types.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT uid FROM credentials
WHERE enabled = 1 AND revoked_at_ms IS NULL
ORDER BY created_at_ms, uid;
`)
	if err != nil {
		return nil, fmt.Errorf("LoadCredentials query: %w", err)
	}
	defer rows.Close()

	var out []types.Credential
	for rows.Next() {
		var uid []byte
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("LoadCredentials scan: %w", err)
		}
		c, err := types.CredentialFromBytes(uid)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadCredentials rows: %w", err)
	}
	return out, nil
}
