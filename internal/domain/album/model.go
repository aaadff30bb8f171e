package album

import "time"

const (
	RoleCreator = "creator"
	RoleMember  = "member"

	StatusActive    = "active"
	StatusMarinated = "marinated"
	StatusArchived  = "archived"
)

// Album is an event-scoped photo collection. Its ID is the 6-character join
// code handed out to invitees.
type Album struct {
	ID                 string    `gorm:"size:6;primaryKey"`
	Name               string    `gorm:"not null"`
	Description        string    `gorm:"type:text"`
	EventDate          time.Time `gorm:"not null"`
	MarinationEndDate  time.Time `gorm:"not null"`
	CreatorID          string    `gorm:"not null;index"`
	CreatorDisplayName string
	IsPrivate          bool
	AllowGuestUploads  bool
	MaxPhotosPerUser   *int
	PhotoCount         int
	Status             string `gorm:"type:varchar(16);not null"`
	IsMarinated        bool
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`

	Members []Member `gorm:"foreignKey:AlbumID;references:ID;constraint:OnDelete:CASCADE"`
}

type Member struct {
	AlbumID     string `gorm:"size:6;primaryKey"`
	UserID      string `gorm:"primaryKey"`
	DisplayName string `gorm:"not null"`
	PhotoURL    *string
	Role        string    `gorm:"type:varchar(16);not null"`
	PhotoCount  int       `gorm:"column:member_photo_count"`
	JoinedAt    time.Time `gorm:"autoCreateTime"`
}

func (Member) TableName() string {
	return "album_members"
}

// Identity is the authenticated caller as seen by the album service. The
// transport layer builds it from the verified token; the service does not
// re-verify it.
type Identity struct {
	ID          string
	DisplayName string
	PhotoURL    string
}

func (a *Album) MemberIDs() []string {
	ids := make([]string, 0, len(a.Members))
	for _, member := range a.Members {
		ids = append(ids, member.UserID)
	}
	return ids
}

func (a *Album) HasMember(userID string) bool {
	for _, member := range a.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the member's role, or "" when the user is not a member.
func (a *Album) RoleOf(userID string) string {
	for _, member := range a.Members {
		if member.UserID == userID {
			return member.Role
		}
	}
	return ""
}
