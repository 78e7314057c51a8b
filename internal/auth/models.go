package auth

import "time"

// SessionTTL bounds both the sessions row and the cookie.
const SessionTTL = 6 * time.Hour

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	UserID         string  `gorm:"primaryKey" json:"user_id"`
	Email          string  `gorm:"uniqueIndex;not null" json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Password       string  `json:"password" gorm:"-"`
	HashedPassword string  `json:"-"`
	Role           string  `gorm:"default:'standard'" json:"role"`
	APITokenID     string  `json:"-"`
	Session        Session `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }
