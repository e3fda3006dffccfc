package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleFriend = "friend"
)

// User is the lender account. Friends never get a row here; they reach
// their view through the tracking link instead.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Name              string    `gorm:"not null" json:"name"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	Password          string    `gorm:"not null" json:"-"`
	Role              string    `gorm:"size:16;not null;default:admin" json:"role"` // "admin", "friend"
	PreferredCurrency string    `gorm:"size:3;not null;default:USD" json:"preferred_currency"`

	Friends []Friend `gorm:"foreignKey:AdminID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
