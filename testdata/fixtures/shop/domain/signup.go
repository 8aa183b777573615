package domain

import "time"

// Signup is the payload creating an account.
//
//projgen:request policy=snake bag=true
type Signup struct {
	ID       int64     `gorm:"primaryKey" json:"id"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `projgen:"skipnullcheck"`
	Birthday time.Time `projgen:"layout=2006-01-02"`
	Plan     string    `projgen:"default=\"free\""`
	Notes    []string
	Internal string `dto:"-"`
}

// Invoice cannot be projected: it has no zero-argument constructor.
//
//projgen:abstract
//projgen:response
type Invoice struct {
	number string
}

func NewInvoice(number string) *Invoice {
	return &Invoice{number: number}
}

// Legacy is kept for old clients.
//
// Deprecated: use Signup.
//
//projgen:request
type Legacy struct {
	Name string
}
