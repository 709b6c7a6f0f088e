package entity

import (
	"time"
)

// User is the canonical identity record. Every login path (local password or
// any federated provider) resolves to exactly one User.
//
// Optional columns are represented by the empty string. PasswordHash is
// "hex(salt):hex(key)" and is never serialized to clients.
type User struct {
	ID           string
	Email        string
	PasswordHash string

	GoogleID string
	NaverID  string
	KakaoID  string

	Role            Role
	Nickname        string
	FirstName       string
	LastName        string
	ProfileImageURL string

	// Verification metadata, changed only by the explicit verify action.
	IsVerified  bool
	RealName    string
	PhoneNumber string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderID returns the linked account id for p, or "" when unlinked.
func (u *User) ProviderID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderNaver:
		return u.NaverID
	case ProviderKakao:
		return u.KakaoID
	}
	return ""
}

// SetProviderID links the user to the provider account id.
func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderNaver:
		u.NaverID = id
	case ProviderKakao:
		u.KakaoID = id
	}
}

// LinkedProviders lists the strategies the user can sign in with.
func (u *User) LinkedProviders() []Provider {
	var out []Provider
	if u.PasswordHash != "" {
		out = append(out, ProviderLocal)
	}
	for _, p := range FederatedProviders {
		if u.ProviderID(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
