package identity

import "slices"

// Profile is the user description supplied by the identity provider.
// It is replaced wholesale on every synchronisation and never mutated in place.
type Profile struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"emailVerified"`
	FirstName     string   `json:"firstName,omitempty"`
	LastName      string   `json:"lastName,omitempty"`
	Roles         []string `json:"roles,omitempty"`
}

// Equal reports whether both profiles describe the same user with the same fields.
func (p *Profile) Equal(other *Profile) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID &&
		p.Username == other.Username &&
		p.Email == other.Email &&
		p.EmailVerified == other.EmailVerified &&
		p.FirstName == other.FirstName &&
		p.LastName == other.LastName &&
		slices.Equal(p.Roles, other.Roles)
}

// DisplayName prefers the full name and falls back to the username.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.Username
	}
}

// HasRole reports whether the realm granted role to the user.
func (p *Profile) HasRole(role string) bool {
	return p != nil && slices.Contains(p.Roles, role)
}
