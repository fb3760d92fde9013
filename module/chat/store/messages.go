package store

import (
	"context"
	"time"

	chatmodel "RoomieChat/module/chat/model"
	"RoomieChat/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func pageOpts(skip, limit int64) *options.FindOptions {
	if limit <= 0 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}
	return options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
}

// InsertDirect appends one direct message. The record is never updated
// afterwards.
func (s *Store) InsertDirect(ctx context.Context, m *chatmodel.DirectMessage) error {
	if _, err := s.MsgColl.InsertOne(ctx, m); err != nil {
		return errs.WrapStorage(err, "insert direct message")
	}
	return nil
}

// HistoryBetween returns the conversation between a and b, newest first,
// matching the pair in either direction.
func (s *Store) HistoryBetween(ctx context.Context, a, b int64, skip, limit int64) ([]*chatmodel.DirectMessage, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	cur, err := s.MsgColl.Find(ctx, filter, pageOpts(skip, limit))
	if err != nil {
		return nil, errs.WrapStorage(err, "find history")
	}
	defer cur.Close(ctx)

	out := make([]*chatmodel.DirectMessage, 0, limit)
	for cur.Next(ctx) {
		var m chatmodel.DirectMessage
		if err := cur.Decode(&m); err != nil {
			return nil, errs.WrapStorage(err, "decode message")
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

// ContactIDs returns every identity that ever exchanged a direct message
// with user, in either direction, deduplicated.
func (s *Store) ContactIDs(ctx context.Context, user int64) ([]int64, error) {
	sentTo, err := s.MsgColl.Distinct(ctx, "receiver_id", bson.M{"sender_id": user})
	if err != nil {
		return nil, errs.WrapStorage(err, "distinct receivers")
	}
	recvFrom, err := s.MsgColl.Distinct(ctx, "sender_id", bson.M{"receiver_id": user})
	if err != nil {
		return nil, errs.WrapStorage(err, "distinct senders")
	}

	seen := make(map[int64]struct{}, len(sentTo)+len(recvFrom))
	out := make([]int64, 0, len(sentTo)+len(recvFrom))
	for _, raw := range append(sentTo, recvFrom...) {
		id, ok := asInt64(raw)
		if !ok || id == user {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// InsertGroupMessage appends one group message.
func (s *Store) InsertGroupMessage(ctx context.Context, m *chatmodel.GroupMessage) error {
	if _, err := s.GroupMsgColl.InsertOne(ctx, m); err != nil {
		return errs.WrapStorage(err, "insert group message")
	}
	return nil
}

// ListGroupMessages returns a group's messages newest first.
func (s *Store) ListGroupMessages(ctx context.Context, groupID int64, skip, limit int64) ([]*chatmodel.GroupMessage, error) {
	cur, err := s.GroupMsgColl.Find(ctx, bson.M{"group_id": groupID}, pageOpts(skip, limit))
	if err != nil {
		return nil, errs.WrapStorage(err, "find group messages")
	}
	defer cur.Close(ctx)

	out := make([]*chatmodel.GroupMessage, 0, limit)
	for cur.Next(ctx) {
		var m chatmodel.GroupMessage
		if err := cur.Decode(&m); err != nil {
			return nil, errs.WrapStorage(err, "decode group message")
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

// LastGroupMessage returns the most recent message of a group, or nil when
// the group has none.
func (s *Store) LastGroupMessage(ctx context.Context, groupID int64) (*chatmodel.GroupMessage, error) {
	opt := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	var m chatmodel.GroupMessage
	err := s.GroupMsgColl.FindOne(ctx, bson.M{"group_id": groupID}, opt).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapStorage(err, "find last group message")
	}
	return &m, nil
}

// UnreadCount counts messages posted after joinedAt and not authored by
// user. Rejoining resets joinedAt, so older messages count again; that
// matches the historical behavior and is accepted.
func (s *Store) UnreadCount(ctx context.Context, groupID, user int64, joinedAt time.Time) (int64, error) {
	n, err := s.GroupMsgColl.CountDocuments(ctx, bson.M{
		"group_id":  groupID,
		"timestamp": bson.M{"$gt": joinedAt},
		"sender_id": bson.M{"$ne": user},
	})
	if err != nil {
		return 0, errs.WrapStorage(err, "count unread")
	}
	return n, nil
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	}
	return 0, false
}
