package models

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RolePremium Role = "premium"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RolePremium
}

type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGitHub Provider = "github"
)

// Document kinds required for premium promotion, in reporting order.
const (
	DocumentDNI       = "DNI"
	DocumentCuenta    = "CUENTA"
	DocumentDomicilio = "DOMICILIO"
)

var RequiredPremiumDocuments = []string{DocumentDNI, DocumentCuenta, DocumentDomicilio}

type Document struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Age          int        `json:"age"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Provider     Provider   `json:"provider"`
	CartID       string     `json:"cart_id,omitempty"`
	Documents    []Document `json:"documents"`

	LastConnection       *time.Time `json:"last_connection,omitempty"`
	LastConnectionGitHub *time.Time `json:"last_connection_github,omitempty"`

	ResetToken        string     `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
