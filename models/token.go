package models

import "time"

// RefreshToken is a server-stored opaque token exchanged for a new access
// token. Rotated (hard-deleted and reissued) on every refresh.
type RefreshToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Token     string    `gorm:"size:64;uniqueIndex;not null"`
	UserID    uint      `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
