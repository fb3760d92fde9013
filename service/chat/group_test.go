package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	chatmodel "RoomieChat/module/chat/model"
	usermodel "RoomieChat/module/user/model"
	"RoomieChat/tools/errs"

	"github.com/stretchr/testify/require"
)

func newGroupFixture() (*GroupService, *fakeGroupStore, *fakePusher) {
	store := newFakeGroupStore()
	dir := newFakeDirectory(
		&usermodel.UserProfile{ID: 1, FirstName: "Ada", LastName: "Lovelace"},
		&usermodel.UserProfile{ID: 2, FirstName: "Grace", LastName: "Hopper"},
		&usermodel.UserProfile{ID: 3, FirstName: "Edsger", LastName: "Dijkstra"},
	)
	pusher := &fakePusher{result: Delivered}
	return NewGroupService(store, dir, pusher), store, pusher
}

func seedGroup(store *fakeGroupStore, id int64, memberIDs ...int64) {
	store.groups[id] = &chatmodel.Group{ID: id, Name: "flat 4b", CreatorID: memberIDs[0], CreatedAt: time.Now().UTC()}
	store.members[id] = memberIDs
}

func TestCreateGroupCreatorIsAlwaysAdminMember(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newGroupFixture()

	// creator not listed, one member duplicated
	g, err := svc.CreateGroup(context.Background(), 1, "flat 4b", []int64{2, 3, 2})
	req.NoError(err)
	req.Equal("flat 4b", g.Name)
	req.Equal(int64(1), g.CreatorID)

	req.Len(store.created, 3)
	var creatorSeen bool
	for _, m := range store.created {
		if m.UserID == 1 {
			creatorSeen = true
			req.True(m.IsAdmin)
		} else {
			req.False(m.IsAdmin)
		}
	}
	req.True(creatorSeen)
}

func TestCreateGroupRejectsUnknownMember(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newGroupFixture()

	_, err := svc.CreateGroup(context.Background(), 1, "ghosts", []int64{2, 404})
	req.ErrorIs(err, errs.ErrUserNotFound)
	req.Empty(store.created)
}

func TestCreateGroupRejectsEmptyName(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newGroupFixture()
	_, err := svc.CreateGroup(context.Background(), 1, "", nil)
	req.ErrorIs(err, errs.ErrInvalidPayload)
}

func TestGroupSendFansOutToMembersExceptSender(t *testing.T) {
	req := require.New(t)
	svc, store, pusher := newGroupFixture()
	seedGroup(store, 10, 1, 2, 3)

	m, err := svc.SendMessage(context.Background(), 10, 1, "rent is due")
	req.NoError(err)
	req.NotZero(m.ID)
	req.Len(store.messages, 1)

	req.ElementsMatch([]int64{2, 3}, pusher.recipients())

	var env map[string]any
	req.NoError(json.Unmarshal(pusher.pushes[0].payload, &env))
	req.Equal("group_message", env["type"])
	data := env["data"].(map[string]any)
	req.Equal("rent is due", data["content"])
	req.Equal("Ada Lovelace", data["sender_name"])
}

func TestGroupSendNonMemberRejectedWithoutSideEffects(t *testing.T) {
	req := require.New(t)
	svc, store, pusher := newGroupFixture()
	seedGroup(store, 10, 1, 2)

	// Given user 3 is not a member
	_, err := svc.SendMessage(context.Background(), 10, 3, "let me in")

	// Then no write, no fan-out, only the coded rejection
	req.ErrorIs(err, errs.ErrNotGroupMember)
	req.Empty(store.messages)
	req.Empty(pusher.pushes)
}

func TestGroupSendEmptyContent(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newGroupFixture()
	seedGroup(store, 10, 1, 2)

	_, err := svc.SendMessage(context.Background(), 10, 1, "")
	req.ErrorIs(err, errs.ErrInvalidPayload)
	req.Empty(store.messages)
}

func TestRemovedMemberNoLongerReceives(t *testing.T) {
	req := require.New(t)
	svc, store, pusher := newGroupFixture()
	seedGroup(store, 10, 1, 2, 3)

	req.NoError(svc.RemoveMember(context.Background(), 10, 3))

	_, err := svc.SendMessage(context.Background(), 10, 1, "bye edsger")
	req.NoError(err)
	req.ElementsMatch([]int64{2}, pusher.recipients())
}

func TestAddMemberRequiresExistingGroupAndUser(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newGroupFixture()
	seedGroup(store, 10, 1)

	req.ErrorIs(svc.AddMember(context.Background(), 99, 2, false), errs.ErrGroupNotFound)
	req.ErrorIs(svc.AddMember(context.Background(), 10, 404, false), errs.ErrUserNotFound)

	req.NoError(svc.AddMember(context.Background(), 10, 2, false))
	req.ErrorIs(svc.AddMember(context.Background(), 10, 2, false), errs.ErrAlreadyMember)
}

func TestGroupMessagesEnrichedWithSenderProfile(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newGroupFixture()
	seedGroup(store, 10, 1, 2)

	_, err := svc.SendMessage(context.Background(), 10, 1, "first")
	req.NoError(err)
	_, err = svc.SendMessage(context.Background(), 10, 2, "second")
	req.NoError(err)

	msgs, err := svc.Messages(context.Background(), 10, 0, 50)
	req.NoError(err)
	req.Len(msgs, 2)
	// newest first
	req.Equal("second", msgs[0].Content)
	req.Equal("Grace Hopper", msgs[0].SenderName)
	req.Equal("Ada Lovelace", msgs[1].SenderName)
}

func TestGroupMessagesUnknownGroup(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newGroupFixture()
	_, err := svc.Messages(context.Background(), 404, 0, 50)
	req.ErrorIs(err, errs.ErrGroupNotFound)
}

func TestDeleteGroupCreatorOnly(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newGroupFixture()
	seedGroup(store, 10, 1, 2)

	req.ErrorIs(svc.DeleteGroup(context.Background(), 10, 2), errs.ErrNotGroupMember)
	req.NoError(svc.DeleteGroup(context.Background(), 10, 1))
	_, err := svc.GetGroup(context.Background(), 10)
	req.ErrorIs(err, errs.ErrGroupNotFound)
}

func TestRenameGroup(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newGroupFixture()
	seedGroup(store, 10, 1)

	req.ErrorIs(svc.Rename(context.Background(), 10, ""), errs.ErrInvalidPayload)
	req.NoError(svc.Rename(context.Background(), 10, "flat 5a"))
	req.Equal("flat 5a", store.groups[10].Name)
}
