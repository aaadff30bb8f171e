package user

import "time"

// Profile is the locally cached copy of an identity-provider user. It exists
// so the app can render a signed-in user without a provider round trip.
type Profile struct {
	UserID      string    `gorm:"primaryKey"`
	Email       *string   `gorm:"type:text"`
	DisplayName *string   `gorm:"type:text"`
	AvatarURL   *string   `gorm:"type:text"`
	Provider    *string   `gorm:"type:varchar(16)"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	LastLoginAt *time.Time
}

func (Profile) TableName() string {
	return "user_profiles"
}
