package chat

import (
	"context"
	"sort"
	"time"

	chatmodel "RoomieChat/module/chat/model"
	usermodel "RoomieChat/module/user/model"
	usersvc "RoomieChat/module/user/service"
	"RoomieChat/tools/errs"
	"RoomieChat/tools/ids"
)

// MessageStore is the persistence collaborator for direct messages.
type MessageStore interface {
	InsertDirect(ctx context.Context, m *chatmodel.DirectMessage) error
	HistoryBetween(ctx context.Context, a, b int64, skip, limit int64) ([]*chatmodel.DirectMessage, error)
	ContactIDs(ctx context.Context, user int64) ([]int64, error)
}

// Pusher is the best-effort realtime delivery path. Implementations must
// absorb transport faults; the result is advisory only.
type Pusher interface {
	Push(userID int64, payload []byte) DeliveryResult
}

// DirectService drives point-to-point messaging: persist first, push
// best-effort, acknowledge unconditionally once the write is durable.
type DirectService struct {
	store MessageStore
	dir   usersvc.Directory
	push  Pusher
}

func NewDirectService(store MessageStore, dir usersvc.Directory, push Pusher) *DirectService {
	return &DirectService{store: store, dir: dir, push: push}
}

// Send persists and then attempts delivery. The returned record is the
// sender's acknowledgment; an offline or failing receiver never turns into
// an error here.
func (s *DirectService) Send(ctx context.Context, sender, receiver int64, content string) (*chatmodel.DirectMessage, error) {
	if content == "" {
		return nil, errs.ErrInvalidPayload.WithDetail("content must not be empty")
	}
	if receiver <= 0 {
		return nil, errs.ErrInvalidPayload.WithDetail("receiver_id is required")
	}

	m := &chatmodel.DirectMessage{
		ID:         ids.Generate(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.store.InsertDirect(ctx, m); err != nil {
		return nil, err
	}

	// sender attributes are a read-time nicety; a failed lookup does not
	// hold up delivery
	var name, avatar string
	if u, err := s.dir.Resolve(ctx, sender); err == nil {
		name, avatar = u.DisplayName(), u.ProfileImage
	}
	s.push.Push(receiver, BuildDirectDelivery(m, name, avatar))
	return m, nil
}

// History reads the conversation between a and b, newest first.
func (s *DirectService) History(ctx context.Context, a, b int64, skip, limit int64) ([]*chatmodel.DirectMessage, error) {
	return s.store.HistoryBetween(ctx, a, b, skip, limit)
}

// Contacts resolves every identity the user ever exchanged messages with.
func (s *DirectService) Contacts(ctx context.Context, user int64) ([]*usermodel.UserProfile, error) {
	idsList, err := s.store.ContactIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	profiles, err := s.dir.ResolveMany(ctx, idsList)
	if err != nil {
		return nil, err
	}
	out := make([]*usermodel.UserProfile, 0, len(profiles))
	for _, id := range idsList {
		if p, ok := profiles[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
