package models

import (
	"fmt"
	"strings"
	"time"
)

type Address struct {
	Street     string `gorm:"type:varchar(255)" json:"street"`
	Number     string `gorm:"type:varchar(20)" json:"number"`
	District   string `gorm:"type:varchar(100)" json:"district"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
}

// Equal compares addresses field by field, ignoring surrounding spaces and case.
func (a Address) Equal(b Address) bool {
	eq := func(x, y string) bool { return strings.EqualFold(strings.TrimSpace(x), strings.TrimSpace(y)) }
	return eq(a.Street, b.Street) &&
		eq(a.Number, b.Number) &&
		eq(a.District, b.District) &&
		eq(a.City, b.City) &&
		eq(a.PostalCode, b.PostalCode)
}

func (a Address) IsZero() bool {
	return a.Equal(Address{})
}

func (a Address) String() string {
	return fmt.Sprintf("%s, %s - %s, %s - %s", a.Street, a.Number, a.District, a.City, a.PostalCode)
}

// Customer never stores its orders; they are queried by CustomerID.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"phone"`
	Address   Address   `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
