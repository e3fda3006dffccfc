package models

import "time"

// Friend is a contact the admin lends to. Totals are never stored here;
// they are derived from Transactions on every read.
type Friend struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	FullName       string    `gorm:"not null" json:"full_name"`
	WhatsappNumber string    `gorm:"not null;uniqueIndex:idx_friends_admin_number" json:"whatsapp_number"`
	AdminID        uint      `gorm:"not null;index;uniqueIndex:idx_friends_admin_number" json:"admin_id"`

	// Both stay nil until generated.
	TrackingURL  *string `gorm:"uniqueIndex" json:"tracking_url,omitempty"`
	TrackingCode *string `gorm:"size:4" json:"tracking_code,omitempty"`

	Transactions []Transaction `gorm:"foreignKey:FriendID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// FirstName is what the locked tracking page shows before the code is entered.
func (f Friend) FirstName() string {
	for i, r := range f.FullName {
		if r == ' ' {
			return f.FullName[:i]
		}
	}
	return f.FullName
}
