package chat

import (
	"presence-chat/internal/message"
	"presence-chat/internal/participant"
)

// JoinRequest is the body of POST /participants
type JoinRequest struct {
	Name string `json:"name"`
}

// ParticipantItem is one entry of GET /participants. LastStatus is the last
// heartbeat in Unix milliseconds.
type ParticipantItem struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

// ErrorResponse carries a failure reason
type ErrorResponse struct {
	Error string `json:"error"`
}

func toParticipantItems(ps []participant.Participant) []ParticipantItem {
	items := make([]ParticipantItem, 0, len(ps))
	for _, p := range ps {
		items = append(items, ParticipantItem{Name: p.Name, LastStatus: p.LastSeen.UnixMilli()})
	}
	return items
}

func toMessageList(ms []message.Message) []message.Message {
	if ms == nil {
		return []message.Message{}
	}
	return ms
}
