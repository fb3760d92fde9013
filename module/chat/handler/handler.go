package handler

import (
	"net/http"
	"strconv"

	"RoomieChat/global"
	"RoomieChat/logger"
	midsec "RoomieChat/middleware/security"
	chatsvc "RoomieChat/service/chat"
	"RoomieChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the REST surface over the chat services. The websocket
// endpoint lives on the chat server itself; everything here is plain HTTP.
type Handler struct {
	srv *chatsvc.Server
}

func New(srv *chatsvc.Server) *Handler { return &Handler{srv: srv} }

func (h *Handler) authedUser(c *gin.Context) (int64, bool) {
	id, ok := midsec.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing token"})
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (skip, limit int64) {
	skip, _ = strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ = strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(global.Conf.DefaultPageSize)), 10, 64)
	return skip, limit
}

// writeErr maps coded errors onto HTTP statuses. Storage faults log the
// cause and answer with a generic 500.
func writeErr(c *gin.Context, err error) {
	var ce *errs.CodeError
	if !errs.As(err, &ce) {
		logger.Errorf("[http] %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	status := http.StatusBadRequest
	switch ce.Code {
	case errs.CodeUnauthorized:
		status = http.StatusForbidden
	case errs.CodeNotFound:
		status = http.StatusNotFound
	case errs.CodeConflict:
		status = http.StatusConflict
	case errs.CodeStorage:
		logger.Errorf("[http] %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	msg := ce.Msg
	if ce.Detail != "" {
		msg = ce.Detail
	}
	c.JSON(status, gin.H{"status": "error", "message": msg})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// History returns direct messages between the caller and :other, newest
// first, paged with skip/limit.
func (h *Handler) History(c *gin.Context) {
	userID, okAuth := h.authedUser(c)
	if !okAuth {
		return
	}
	other, okID := pathID(c, "other")
	if !okID {
		return
	}
	skip, limit := pageParams(c)
	msgs, err := h.srv.Direct.History(c.Request.Context(), userID, other, skip, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, msgs)
}

// Contacts lists users the caller has exchanged direct messages with.
func (h *Handler) Contacts(c *gin.Context) {
	userID, okAuth := h.authedUser(c)
	if !okAuth {
		return
	}
	users, err := h.srv.Direct.Contacts(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, users)
}

type createGroupReq struct {
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"member_ids"`
}

func (h *Handler) CreateGroup(c *gin.Context) {
	userID, okAuth := h.authedUser(c)
	if !okAuth {
		return
	}
	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	g, err := h.srv.Groups.CreateGroup(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, g)
}

type renameGroupReq struct {
	Name string `json:"name"`
}

func (h *Handler) RenameGroup(c *gin.Context) {
	if _, okAuth := h.authedUser(c); !okAuth {
		return
	}
	groupID, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req renameGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	if err := h.srv.Groups.Rename(c.Request.Context(), groupID, req.Name); err != nil {
		writeErr(c, err)
		return
	}
	g, err := h.srv.Groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, g)
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	userID, okAuth := h.authedUser(c)
	if !okAuth {
		return
	}
	groupID, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.srv.Groups.DeleteGroup(c.Request.Context(), groupID, userID); err != nil {
		writeErr(c, err)
		return
	}
	ok(c, gin.H{"group_id": groupID})
}

// UserGroups lists the groups a user belongs to, each with the latest
// message and the caller's unread count.
func (h *Handler) UserGroups(c *gin.Context) {
	if _, okAuth := h.authedUser(c); !okAuth {
		return
	}
	userID, okID := pathID(c, "id")
	if !okID {
		return
	}
	groups, err := h.srv.Groups.GroupsForUser(c.Request.Context(), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, groups)
}

func (h *Handler) AddMember(c *gin.Context) {
	if _, okAuth := h.authedUser(c); !okAuth {
		return
	}
	groupID, okG := pathID(c, "id")
	if !okG {
		return
	}
	memberID, okM := pathID(c, "uid")
	if !okM {
		return
	}
	if err := h.srv.Groups.AddMember(c.Request.Context(), groupID, memberID, false); err != nil {
		writeErr(c, err)
		return
	}
	ok(c, gin.H{"group_id": groupID, "user_id": memberID})
}

func (h *Handler) RemoveMember(c *gin.Context) {
	if _, okAuth := h.authedUser(c); !okAuth {
		return
	}
	groupID, okG := pathID(c, "id")
	if !okG {
		return
	}
	memberID, okM := pathID(c, "uid")
	if !okM {
		return
	}
	if err := h.srv.Groups.RemoveMember(c.Request.Context(), groupID, memberID); err != nil {
		writeErr(c, err)
		return
	}
	ok(c, gin.H{"group_id": groupID, "user_id": memberID})
}

func (h *Handler) Membership(c *gin.Context) {
	if _, okAuth := h.authedUser(c); !okAuth {
		return
	}
	groupID, okG := pathID(c, "id")
	if !okG {
		return
	}
	memberID, okM := pathID(c, "uid")
	if !okM {
		return
	}
	member, err := h.srv.Groups.IsMember(c.Request.Context(), groupID, memberID)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, gin.H{"group_id": groupID, "user_id": memberID, "is_member": member})
}

// GroupMessages returns a page of a group's history, newest first, each
// record enriched with sender display fields.
func (h *Handler) GroupMessages(c *gin.Context) {
	if _, okAuth := h.authedUser(c); !okAuth {
		return
	}
	groupID, okG := pathID(c, "id")
	if !okG {
		return
	}
	skip, limit := pageParams(c)
	msgs, err := h.srv.Groups.Messages(c.Request.Context(), groupID, skip, limit)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, msgs)
}
