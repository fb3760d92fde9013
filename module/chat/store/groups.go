package store

import (
	"context"
	"time"

	chatmodel "RoomieChat/module/chat/model"
	"RoomieChat/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// InsertGroup writes the group row and its initial membership rows. The
// caller has already ensured the creator is present in members with the
// admin flag.
func (s *Store) InsertGroup(ctx context.Context, g *chatmodel.Group, members []chatmodel.GroupMember) error {
	n, err := s.GroupColl.CountDocuments(ctx, bson.M{"name": g.Name, "creator_id": g.CreatorID})
	if err != nil {
		return errs.WrapStorage(err, "check group name")
	}
	if n > 0 {
		return errs.ErrDuplicateName
	}

	if _, err := s.GroupColl.InsertOne(ctx, g); err != nil {
		return errs.WrapStorage(err, "insert group")
	}
	docs := make([]any, 0, len(members))
	for i := range members {
		docs = append(docs, members[i])
	}
	if len(docs) > 0 {
		if _, err := s.MemberColl.InsertMany(ctx, docs); err != nil {
			return errs.WrapStorage(err, "insert members")
		}
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id int64) (*chatmodel.Group, error) {
	var g chatmodel.Group
	err := s.GroupColl.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrGroupNotFound
	}
	if err != nil {
		return nil, errs.WrapStorage(err, "find group")
	}
	return &g, nil
}

func (s *Store) RenameGroup(ctx context.Context, id int64, name string) error {
	res, err := s.GroupColl.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return errs.WrapStorage(err, "rename group")
	}
	if res.MatchedCount == 0 {
		return errs.ErrGroupNotFound
	}
	return nil
}

// AddMember inserts a membership row; conflict when the pair exists.
func (s *Store) AddMember(ctx context.Context, m chatmodel.GroupMember) error {
	n, err := s.MemberColl.CountDocuments(ctx, bson.M{"group_id": m.GroupID, "user_id": m.UserID})
	if err != nil {
		return errs.WrapStorage(err, "check membership")
	}
	if n > 0 {
		return errs.ErrAlreadyMember
	}
	if _, err := s.MemberColl.InsertOne(ctx, m); err != nil {
		return errs.WrapStorage(err, "insert member")
	}
	return nil
}

// RemoveMember deletes the pair; not-found when it never existed. The group
// row stays even when the last member leaves.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID int64) error {
	res, err := s.MemberColl.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return errs.WrapStorage(err, "delete member")
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotMember
	}
	return nil
}

func (s *Store) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	n, err := s.MemberColl.CountDocuments(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return false, errs.WrapStorage(err, "check membership")
	}
	return n > 0, nil
}

// MemberIDs returns the current member identities of a group.
func (s *Store) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	cur, err := s.MemberColl.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, errs.WrapStorage(err, "find members")
	}
	defer cur.Close(ctx)

	var out []int64
	for cur.Next(ctx) {
		var m chatmodel.GroupMember
		if err := cur.Decode(&m); err != nil {
			return nil, errs.WrapStorage(err, "decode member")
		}
		out = append(out, m.UserID)
	}
	return out, cur.Err()
}

// Memberships returns every membership row of a user.
func (s *Store) Memberships(ctx context.Context, userID int64) ([]chatmodel.GroupMember, error) {
	cur, err := s.MemberColl.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errs.WrapStorage(err, "find memberships")
	}
	defer cur.Close(ctx)

	var out []chatmodel.GroupMember
	for cur.Next(ctx) {
		var m chatmodel.GroupMember
		if err := cur.Decode(&m); err != nil {
			return nil, errs.WrapStorage(err, "decode membership")
		}
		out = append(out, m)
	}
	return out, cur.Err()
}

// GroupsForUser assembles the group list aggregate: metadata, last-message
// preview and unread count per membership.
func (s *Store) GroupsForUser(ctx context.Context, userID int64) ([]*chatmodel.GroupSummary, error) {
	memberships, err := s.Memberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*chatmodel.GroupSummary, 0, len(memberships))
	for _, mb := range memberships {
		g, err := s.GetGroup(ctx, mb.GroupID)
		if err != nil {
			// membership row can outlive a hard-deleted group
			if errs.Is(err, errs.ErrGroupNotFound) {
				continue
			}
			return nil, err
		}
		sum := &chatmodel.GroupSummary{Group: g}

		last, err := s.LastGroupMessage(ctx, mb.GroupID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			sum.LastMessage = last.Content
			t := last.Timestamp
			sum.LastMessageTime = &t
		}

		unread, err := s.UnreadCount(ctx, mb.GroupID, userID, mb.JoinedAt)
		if err != nil {
			return nil, err
		}
		sum.UnreadCount = unread
		out = append(out, sum)
	}
	return out, nil
}

// DeleteGroup removes a group and cascades its messages and memberships.
func (s *Store) DeleteGroup(ctx context.Context, groupID int64) error {
	res, err := s.GroupColl.DeleteOne(ctx, bson.M{"_id": groupID})
	if err != nil {
		return errs.WrapStorage(err, "delete group")
	}
	if res.DeletedCount == 0 {
		return errs.ErrGroupNotFound
	}
	if _, err := s.MemberColl.DeleteMany(ctx, bson.M{"group_id": groupID}); err != nil {
		return errs.WrapStorage(err, "delete members")
	}
	if _, err := s.GroupMsgColl.DeleteMany(ctx, bson.M{"group_id": groupID}); err != nil {
		return errs.WrapStorage(err, "delete group messages")
	}
	return nil
}
