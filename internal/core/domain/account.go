package domain

import "time"

// DefaultServerBinding is assigned to accounts that are not pinned to a
// specific game server.
const DefaultServerBinding = "default"

// Account mirrors the persisted representation in the accounts table.
// One launcher account is owned by exactly one Discord user.
type Account struct {
	Username          string
	PasswordHash      string
	IdentityToken     string
	ExternalAccountID string
	ServerBinding     string
	RegisteredAt      time.Time
}

// AssetKind enumerates the cosmetic asset slots an account can upload into.
type AssetKind string

const (
	AssetSkin  AssetKind = "skin"
	AssetCloak AssetKind = "cloak"
)

// Valid reports whether the kind is part of the closed asset set.
func (k AssetKind) Valid() bool {
	return k == AssetSkin || k == AssetCloak
}

// AssetUpload records the content hashes of the cosmetic assets owned by an
// account, keyed by its identity token.
type AssetUpload struct {
	IdentityToken string
	SkinHash      *string
	CloakHash     *string
	UpdatedAt     time.Time
}
