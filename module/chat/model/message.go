package model

import "time"

const (
	DirectMsgTableName = "messages"
	GroupMsgTableName  = "group_messages"
)

// DirectMessage is one persisted point-to-point message. Immutable once
// written; the id is a snowflake so insertion order and timestamp order
// agree per conversation.
type DirectMessage struct {
	ID         int64     `bson:"_id" json:"id"`
	SenderID   int64     `bson:"sender_id" json:"sender_id"`
	ReceiverID int64     `bson:"receiver_id" json:"receiver_id"`
	Content    string    `bson:"content" json:"content"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

func (*DirectMessage) TableName() string { return DirectMsgTableName }

// GroupMessage is one persisted group message. SenderID is a pointer: an
// anonymized or deleted sender leaves orphaned messages behind with a nil
// sender rather than cascading the delete.
type GroupMessage struct {
	ID        int64     `bson:"_id" json:"id"`
	GroupID   int64     `bson:"group_id" json:"group_id"`
	SenderID  *int64    `bson:"sender_id" json:"sender_id"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

func (*GroupMessage) TableName() string { return GroupMsgTableName }
