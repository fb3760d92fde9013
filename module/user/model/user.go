package model

import (
	"strings"
	"time"
)

const UserTableName = "user_profiles"

// UserProfile is the identity collaborator's record. The chat core reads
// it for sender display attributes and existence checks; all writes happen
// in the profile service.
type UserProfile struct {
	ID           int64     `bson:"_id" json:"id"`
	FirstName    string    `bson:"first_name" json:"first_name"`
	LastName     string    `bson:"last_name" json:"last_name"`
	Email        string    `bson:"email" json:"email"`
	ProfileImage string    `bson:"profile_image" json:"profile_image,omitempty"`
	IsLoggedIn   bool      `bson:"is_logged_in" json:"is_logged_in"`
	LastLogin    time.Time `bson:"last_login" json:"last_login"`
}

func (*UserProfile) TableName() string { return UserTableName }

func (u *UserProfile) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
