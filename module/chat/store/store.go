package store

import (
	chatmodel "RoomieChat/module/chat/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Store bundles the chat collections. Messages are append-only; the member
// collection is the explicit (group_id, user_id) table queried directly.
type Store struct {
	MsgColl      *mongo.Collection // messages
	GroupMsgColl *mongo.Collection // group_messages
	GroupColl    *mongo.Collection // chat_groups
	MemberColl   *mongo.Collection // group_members
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		MsgColl:      db.Collection(chatmodel.DirectMsgTableName),
		GroupMsgColl: db.Collection(chatmodel.GroupMsgTableName),
		GroupColl:    db.Collection(chatmodel.GroupTableName),
		MemberColl:   db.Collection(chatmodel.GroupMemberTableName),
	}
}
