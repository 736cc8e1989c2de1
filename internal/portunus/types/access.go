package types

import "time"

// Decision reasons, recorded verbatim in the audit log.
const (
	ReasonCardAllowed    = "card_allowed"
	ReasonCardNotAllowed = "card_not_allowed"
	ReasonMalformedCard  = "malformed_card"
	ReasonAllowAll       = "allow_all"
)

// AccessDecision is produced once per scan event. Raw holds the bytes the
// reader returned; Credential is only meaningful when Reason is not
// ReasonMalformedCard.
type AccessDecision struct {
	ID         string     `json:"id"`
	ModuleID   string     `json:"module_id"`
	Credential Credential `json:"-"`
	Raw        []byte     `json:"-"`
	Granted    bool       `json:"granted"`
	Reason     string     `json:"reason"`
	Timestamp  time.Time  `json:"timestamp"`
}

// CardID returns the hex form of the presented credential, or of the raw
// bytes for a malformed read.
func (d AccessDecision) CardID() string {
	if d.Reason == ReasonMalformedCard {
		return hexUpper(d.Raw)
	}
	return d.Credential.String()
}
