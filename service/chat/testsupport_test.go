package chat

import (
	"context"
	"sync"

	chatmodel "RoomieChat/module/chat/model"
	usermodel "RoomieChat/module/user/model"
	"RoomieChat/tools/errs"
)

// In-memory fakes for the persistence and delivery collaborators.

type fakeDirectory struct {
	users map[int64]*usermodel.UserProfile
}

func newFakeDirectory(users ...*usermodel.UserProfile) *fakeDirectory {
	d := &fakeDirectory{users: make(map[int64]*usermodel.UserProfile)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) Resolve(_ context.Context, id int64) (*usermodel.UserProfile, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return u, nil
}

func (d *fakeDirectory) ResolveMany(_ context.Context, ids []int64) (map[int64]*usermodel.UserProfile, error) {
	out := make(map[int64]*usermodel.UserProfile, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *fakeDirectory) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := d.users[id]
	return ok, nil
}

type push struct {
	userID  int64
	payload []byte
}

type fakePusher struct {
	mu     sync.Mutex
	result DeliveryResult
	pushes []push
}

func (p *fakePusher) Push(userID int64, payload []byte) DeliveryResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, push{userID: userID, payload: payload})
	return p.result
}

func (p *fakePusher) recipients() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, 0, len(p.pushes))
	for _, ps := range p.pushes {
		out = append(out, ps.userID)
	}
	return out
}

type fakeMessageStore struct {
	insertErr error
	inserted  []*chatmodel.DirectMessage
	history   []*chatmodel.DirectMessage
	contacts  []int64
}

func (s *fakeMessageStore) InsertDirect(_ context.Context, m *chatmodel.DirectMessage) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, m)
	return nil
}

func (s *fakeMessageStore) HistoryBetween(_ context.Context, a, b, skip, limit int64) ([]*chatmodel.DirectMessage, error) {
	return s.history, nil
}

func (s *fakeMessageStore) ContactIDs(_ context.Context, user int64) ([]int64, error) {
	return s.contacts, nil
}

type fakeGroupStore struct {
	groups   map[int64]*chatmodel.Group
	members  map[int64][]int64
	messages []*chatmodel.GroupMessage
	created  []chatmodel.GroupMember
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{
		groups:  make(map[int64]*chatmodel.Group),
		members: make(map[int64][]int64),
	}
}

func (s *fakeGroupStore) InsertGroup(_ context.Context, g *chatmodel.Group, members []chatmodel.GroupMember) error {
	s.groups[g.ID] = g
	for _, m := range members {
		s.members[g.ID] = append(s.members[g.ID], m.UserID)
	}
	s.created = append(s.created, members...)
	return nil
}

func (s *fakeGroupStore) GetGroup(_ context.Context, id int64) (*chatmodel.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, errs.ErrGroupNotFound
	}
	return g, nil
}

func (s *fakeGroupStore) RenameGroup(_ context.Context, id int64, name string) error {
	g, ok := s.groups[id]
	if !ok {
		return errs.ErrGroupNotFound
	}
	g.Name = name
	return nil
}

func (s *fakeGroupStore) AddMember(_ context.Context, m chatmodel.GroupMember) error {
	for _, id := range s.members[m.GroupID] {
		if id == m.UserID {
			return errs.ErrAlreadyMember
		}
	}
	s.members[m.GroupID] = append(s.members[m.GroupID], m.UserID)
	return nil
}

func (s *fakeGroupStore) RemoveMember(_ context.Context, groupID, userID int64) error {
	list := s.members[groupID]
	for i, id := range list {
		if id == userID {
			s.members[groupID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotMember
}

func (s *fakeGroupStore) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	for _, id := range s.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeGroupStore) MemberIDs(_ context.Context, groupID int64) ([]int64, error) {
	return s.members[groupID], nil
}

func (s *fakeGroupStore) GroupsForUser(_ context.Context, userID int64) ([]*chatmodel.GroupSummary, error) {
	var out []*chatmodel.GroupSummary
	for gid, list := range s.members {
		for _, id := range list {
			if id == userID {
				out = append(out, &chatmodel.GroupSummary{Group: s.groups[gid]})
			}
		}
	}
	return out, nil
}

func (s *fakeGroupStore) DeleteGroup(_ context.Context, groupID int64) error {
	delete(s.groups, groupID)
	delete(s.members, groupID)
	return nil
}

func (s *fakeGroupStore) InsertGroupMessage(_ context.Context, m *chatmodel.GroupMessage) error {
	s.messages = append(s.messages, m)
	return nil
}

func (s *fakeGroupStore) ListGroupMessages(_ context.Context, groupID int64, skip, limit int64) ([]*chatmodel.GroupMessage, error) {
	var out []*chatmodel.GroupMessage
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].GroupID == groupID {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}
