package models

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

type Country struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Code     string `gorm:"size:2;uniqueIndex;not null" json:"code"`
	Name     string `gorm:"not null" json:"name"`
	Currency string `gorm:"size:3;not null" json:"currency"`
	DialCode string `gorm:"size:6;not null" json:"dial_code"`
}

type User struct {
	gorm.Model
	FirstName    string   `gorm:"not null" json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        *string  `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone        string   `gorm:"uniqueIndex;not null" json:"phone"`
	CountryID    uint     `gorm:"not null" json:"country_id"`
	Country      *Country `json:"country,omitempty"`
	Role         string   `gorm:"default:'user'" json:"role"`
	Status       string   `gorm:"default:'active'" json:"status"`
	ReferredByID *uint    `json:"referred_by_id,omitempty"`
}

// IsActive reports whether the user may receive wallet rewards.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive && !u.DeletedAt.Valid
}

// FullPhone returns the phone number with the country dial code.
func (u *User) FullPhone() string {
	if u.Country == nil {
		return u.Phone
	}
	return u.Country.DialCode + u.Phone
}
