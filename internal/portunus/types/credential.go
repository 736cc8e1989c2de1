package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// CredentialLen is the UID length of the tags this controller accepts.
const CredentialLen = 4

var ErrMalformedCredential = errors.New("malformed credential")

// Credential is a tag UID. It is a value type; == compares byte-wise.
type Credential [CredentialLen]byte

// CredentialFromBytes copies b into a Credential. Any length other than
// CredentialLen is rejected.
func CredentialFromBytes(b []byte) (Credential, error) {
	var c Credential
	if len(b) != CredentialLen {
		return c, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedCredential, len(b), CredentialLen)
	}
	copy(c[:], b)
	return c, nil
}

// ParseCredential accepts "01A3B2C4", "01:A3:B2:C4", "01-a3-b2-c4" or
// "01 a3 b2 c4".
func ParseCredential(s string) (Credential, error) {
	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(clean)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %q: %v", ErrMalformedCredential, s, err)
	}
	return CredentialFromBytes(b)
}

func (c Credential) Bytes() []byte {
	out := make([]byte, CredentialLen)
	copy(out, c[:])
	return out
}

func (c Credential) String() string {
	return strings.ToUpper(hex.EncodeToString(c[:]))
}
