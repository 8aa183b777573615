package domain

import (
	"strings"
	"time"

	"example.com/shop/store"
)

// Base carries columns every entity shares.
type Base struct {
	id        int64     `gorm:"primaryKey"`
	createdAt time.Time `gorm:"<-:create"`
}

// Account is a customer account.
//
//projgen:abstract
//projgen:response from=store.AccountRow policy=camel serializer=true
type Account struct {
	Base
	email      string
	tags       []string
	ownerID    int64
	ownerName  string
	groups     []*Group
	labels     map[string]struct{}
	secretHash string `projgen:"-"`
}

func (a *Account) FromAccountRow(row *store.AccountRow) {
	a.email = strings.ToLower(row.Email)
	if row.Owner != nil {
		a.ownerName = "owner: " + row.Owner.Name
	}
}

// Group is a named set of accounts.
//
//projgen:abstract
//projgen:response from=store.GroupRow
type Group struct {
	id   int64
	name string
}
