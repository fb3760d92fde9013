package chat

import (
	"encoding/json"
	"time"

	"RoomieChat/logger"
	chatmodel "RoomieChat/module/chat/model"
	"RoomieChat/tools/decode"
	"RoomieChat/tools/errs"
)

// Envelope types pushed to clients. Inbound frames carry no type field;
// they are discriminated by which target id is present.
const (
	TypeMessage      = "message"
	TypeGroupMessage = "group_message"
	TypePresence     = "presence"
)

// Inbound is a client frame: direct when receiver_id is set, group when
// group_id is set.
type Inbound struct {
	ReceiverID int64  `json:"receiver_id"`
	GroupID    int64  `json:"group_id"`
	Content    string `json:"content"`
}

func (in *Inbound) IsGroup() bool { return in.GroupID > 0 }

// ParseInbound decodes and validates one client frame. All failures come
// back as coded client errors suitable for echoing to the offending
// connection.
func ParseInbound(raw []byte) (*Inbound, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.ErrInvalidPayload.WithDetail("invalid JSON format")
	}
	in, err := decode.DecodeMap[Inbound](m)
	if err != nil {
		return nil, errs.ErrInvalidPayload.WithDetail(err.Error())
	}
	if in.Content == "" {
		return nil, errs.ErrInvalidPayload.WithDetail("content must not be empty")
	}
	if in.ReceiverID > 0 && in.GroupID > 0 {
		return nil, errs.ErrInvalidPayload.WithDetail("message must target either receiver_id or group_id, not both")
	}
	if in.ReceiverID <= 0 && in.GroupID <= 0 {
		return nil, errs.ErrInvalidPayload.WithDetail("message must contain receiver_id or group_id and content")
	}
	return in, nil
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DirectDelivery is the outbound form of a direct message, enriched with
// sender display attributes resolved at send time.
type DirectDelivery struct {
	*chatmodel.DirectMessage
	SenderName   string `json:"sender_name,omitempty"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
}

// GroupDelivery is the outbound form of a group message.
type GroupDelivery struct {
	*chatmodel.GroupMessage
	SenderName   string `json:"sender_name,omitempty"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
}

func BuildDirectDelivery(m *chatmodel.DirectMessage, senderName, senderAvatar string) []byte {
	return marshalFrame(envelope{Type: TypeMessage, Data: DirectDelivery{
		DirectMessage: m, SenderName: senderName, SenderAvatar: senderAvatar,
	}})
}

func BuildGroupDelivery(m *chatmodel.GroupMessage, senderName, senderAvatar string) []byte {
	return marshalFrame(envelope{Type: TypeGroupMessage, Data: GroupDelivery{
		GroupMessage: m, SenderName: senderName, SenderAvatar: senderAvatar,
	}})
}

// presenceFrame is flat on the wire, no data wrapper.
type presenceFrame struct {
	Type      string    `json:"type"`
	UserID    int64     `json:"user_id"`
	IsOnline  bool      `json:"is_online"`
	Timestamp time.Time `json:"timestamp"`
}

func BuildPresence(userID int64, online bool, ts time.Time) []byte {
	return marshalFrame(presenceFrame{Type: TypePresence, UserID: userID, IsOnline: online, Timestamp: ts})
}

type ackFrame struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// BuildAck confirms a durable write back to the sender, independent of any
// delivery outcome.
func BuildAck(data any) []byte {
	return marshalFrame(ackFrame{Status: "success", Message: "Message sent", Data: data})
}

// BuildError answers the offending connection only; the connection stays
// open.
func BuildError(msg string) []byte {
	return marshalFrame(ackFrame{Status: "error", Message: msg})
}

func marshalFrame(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("[frames] marshal frame: %v", err)
		return nil
	}
	return data
}
