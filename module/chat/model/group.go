package model

import "time"

const (
	GroupTableName       = "chat_groups"
	GroupMemberTableName = "group_members"
)

// Group holds group metadata only; members and messages live in their own
// collections.
type Group struct {
	ID        int64     `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatorID int64     `bson:"creator_id" json:"creator_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (*Group) TableName() string { return GroupTableName }

// GroupMember is one membership record, unique per (group_id, user_id).
type GroupMember struct {
	GroupID  int64     `bson:"group_id" json:"group_id"`
	UserID   int64     `bson:"user_id" json:"user_id"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
	IsAdmin  bool      `bson:"is_admin" json:"is_admin"`
}

func (*GroupMember) TableName() string { return GroupMemberTableName }

// GroupSummary is the read-side aggregate for a user's group list: group
// metadata plus last-message preview and the derived unread count (messages
// posted after the user joined, not authored by the user; no read receipts
// are modeled).
type GroupSummary struct {
	Group           *Group     `json:"group"`
	LastMessage     string     `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	UnreadCount     int64      `json:"unread_count"`
}
