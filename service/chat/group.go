package chat

import (
	"context"
	"time"

	chatmodel "RoomieChat/module/chat/model"
	usersvc "RoomieChat/module/user/service"
	"RoomieChat/tools/errs"
	"RoomieChat/tools/ids"
)

// GroupStore is the persistence collaborator for groups, memberships and
// group messages.
type GroupStore interface {
	InsertGroup(ctx context.Context, g *chatmodel.Group, members []chatmodel.GroupMember) error
	GetGroup(ctx context.Context, id int64) (*chatmodel.Group, error)
	RenameGroup(ctx context.Context, id int64, name string) error
	AddMember(ctx context.Context, m chatmodel.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	GroupsForUser(ctx context.Context, userID int64) ([]*chatmodel.GroupSummary, error)
	DeleteGroup(ctx context.Context, groupID int64) error
	InsertGroupMessage(ctx context.Context, m *chatmodel.GroupMessage) error
	ListGroupMessages(ctx context.Context, groupID int64, skip, limit int64) ([]*chatmodel.GroupMessage, error)
}

// GroupService owns membership management and the group send path:
// authorize, persist, fan out to current members, acknowledge.
type GroupService struct {
	store GroupStore
	dir   usersvc.Directory
	push  Pusher
}

func NewGroupService(store GroupStore, dir usersvc.Directory, push Pusher) *GroupService {
	return &GroupService{store: store, dir: dir, push: push}
}

// CreateGroup validates every referenced identity, then writes the group
// with its initial membership set. The creator is always included as an
// admin member, listed or not.
func (s *GroupService) CreateGroup(ctx context.Context, creator int64, name string, memberIDs []int64) (*chatmodel.Group, error) {
	if name == "" {
		return nil, errs.ErrInvalidPayload.WithDetail("name must not be empty")
	}
	if ok, err := s.dir.Exists(ctx, creator); err != nil {
		return nil, err
	} else if !ok {
		return nil, errs.ErrUserNotFound.WithDetail("creator")
	}
	for _, id := range memberIDs {
		if ok, err := s.dir.Exists(ctx, id); err != nil {
			return nil, err
		} else if !ok {
			return nil, errs.ErrUserNotFound.WrapMsg("member", "user_id", id)
		}
	}

	now := time.Now().UTC()
	g := &chatmodel.Group{
		ID:        ids.Generate(),
		Name:      name,
		CreatorID: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}

	members := make([]chatmodel.GroupMember, 0, len(memberIDs)+1)
	creatorListed := false
	seen := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if id == creator {
			creatorListed = true
		}
		members = append(members, chatmodel.GroupMember{
			GroupID:  g.ID,
			UserID:   id,
			JoinedAt: now,
			IsAdmin:  id == creator,
		})
	}
	if !creatorListed {
		members = append(members, chatmodel.GroupMember{
			GroupID: g.ID, UserID: creator, JoinedAt: now, IsAdmin: true,
		})
	}

	if err := s.store.InsertGroup(ctx, g, members); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GroupService) GetGroup(ctx context.Context, id int64) (*chatmodel.Group, error) {
	return s.store.GetGroup(ctx, id)
}

func (s *GroupService) Rename(ctx context.Context, groupID int64, name string) error {
	if name == "" {
		return errs.ErrInvalidPayload.WithDetail("name must not be empty")
	}
	return s.store.RenameGroup(ctx, groupID, name)
}

func (s *GroupService) AddMember(ctx context.Context, groupID, userID int64, isAdmin bool) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if ok, err := s.dir.Exists(ctx, userID); err != nil {
		return err
	} else if !ok {
		return errs.ErrUserNotFound
	}
	return s.store.AddMember(ctx, chatmodel.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
		IsAdmin:  isAdmin,
	})
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID int64) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return s.store.RemoveMember(ctx, groupID, userID)
}

// DeleteGroup removes the group and everything under it. Only the creator
// may delete.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, requester int64) error {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if g.CreatorID != requester {
		return errs.ErrNotGroupMember.WithDetail("only the creator can delete a group")
	}
	return s.store.DeleteGroup(ctx, groupID)
}

func (s *GroupService) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.store.IsMember(ctx, groupID, userID)
}

// SendMessage runs the group send state machine: membership gate, durable
// write, fan-out to every current member but the sender. Per-recipient
// delivery failures never fail the send; the returned record is the
// sender's acknowledgment.
func (s *GroupService) SendMessage(ctx context.Context, groupID, sender int64, content string) (*chatmodel.GroupMessage, error) {
	if content == "" {
		return nil, errs.ErrInvalidPayload.WithDetail("content must not be empty")
	}
	ok, err := s.store.IsMember(ctx, groupID, sender)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotGroupMember
	}

	senderID := sender
	m := &chatmodel.GroupMessage{
		ID:        ids.Generate(),
		GroupID:   groupID,
		SenderID:  &senderID,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.InsertGroupMessage(ctx, m); err != nil {
		return nil, err
	}

	var name, avatar string
	if u, err := s.dir.Resolve(ctx, sender); err == nil {
		name, avatar = u.DisplayName(), u.ProfileImage
	}
	payload := BuildGroupDelivery(m, name, avatar)

	// the member list is resolved after the write so late joins see the
	// message via history, not necessarily via push
	memberIDs, err := s.store.MemberIDs(ctx, groupID)
	if err == nil {
		for _, id := range memberIDs {
			if id == sender {
				continue
			}
			s.push.Push(id, payload)
		}
	}
	return m, nil
}

func (s *GroupService) GroupsForUser(ctx context.Context, userID int64) ([]*chatmodel.GroupSummary, error) {
	return s.store.GroupsForUser(ctx, userID)
}

// Messages returns a page of group history, each record enriched with the
// sender's current display attributes (not stored on the message, since a
// profile can change after the write).
func (s *GroupService) Messages(ctx context.Context, groupID int64, skip, limit int64) ([]*GroupDelivery, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListGroupMessages(ctx, groupID, skip, limit)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]int64, 0, len(msgs))
	seen := make(map[int64]struct{}, len(msgs))
	for _, m := range msgs {
		if m.SenderID == nil {
			continue
		}
		if _, dup := seen[*m.SenderID]; dup {
			continue
		}
		seen[*m.SenderID] = struct{}{}
		senderIDs = append(senderIDs, *m.SenderID)
	}
	profiles, err := s.dir.ResolveMany(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*GroupDelivery, 0, len(msgs))
	for _, m := range msgs {
		d := &GroupDelivery{GroupMessage: m}
		if m.SenderID != nil {
			if p, ok := profiles[*m.SenderID]; ok {
				d.SenderName, d.SenderAvatar = p.DisplayName(), p.ProfileImage
			}
		}
		out = append(out, d)
	}
	return out, nil
}
