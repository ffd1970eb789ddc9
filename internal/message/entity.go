package message

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BroadcastTarget is the recipient meaning "the whole room"
const BroadcastTarget = "Todos"

// TimeLayout is the HH:MM:SS 24-hour format of Message.Time
const TimeLayout = "15:04:05"

// Kind is the type of a message
type Kind string

const (
	KindBroadcast Kind = "message"
	KindPrivate   Kind = "private_message"
	KindStatus    Kind = "status"
)

// Message is one chat entry
type Message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Kind Kind   `json:"type"`
	Time string `json:"time"`
}

// VisibleTo reports whether user may read m: addressed to the room, a
// broadcast, authored by user or addressed to user.
func (m Message) VisibleTo(user string) bool {
	return m.To == BroadcastTarget ||
		m.Kind == KindBroadcast ||
		m.From == user ||
		m.To == user
}

// FormatTime renders t the way Message.Time stores it, in server-local time
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

// Document represents the MongoDB document structure for messages
type Document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	From      string             `bson:"from"`
	To        string             `bson:"to"`
	Text      string             `bson:"text"`
	Type      string             `bson:"type"`
	Time      string             `bson:"time"`
	CreatedAt time.Time          `bson:"created_at"`
}

// ToMessage converts Document to Message
func (doc *Document) ToMessage() Message {
	return Message{
		ID:   doc.ID.Hex(),
		From: doc.From,
		To:   doc.To,
		Text: doc.Text,
		Kind: Kind(doc.Type),
		Time: doc.Time,
	}
}

// FromMessage converts Message to Document
func (doc *Document) FromMessage(msg *Message) {
	doc.From = msg.From
	doc.To = msg.To
	doc.Text = msg.Text
	doc.Type = string(msg.Kind)
	doc.Time = msg.Time
	doc.CreatedAt = time.Now()

	if msg.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(msg.ID); err == nil {
			doc.ID = oid
		}
	}
}
