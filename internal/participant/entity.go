package participant

import (
	"time"
)

// Participant is one joined chat identity
type Participant struct {
	Name     string    `json:"name"`
	LastSeen time.Time `json:"last_seen"`
}

// IsStale reports whether the participant was last seen strictly before cutoff
func (p Participant) IsStale(cutoff time.Time) bool {
	return p.LastSeen.Before(cutoff)
}

// Document represents a participant document in MongoDB
type Document struct {
	Name     string    `bson:"name"`
	LastSeen time.Time `bson:"last_seen"`
}

// ToParticipant converts Document to Participant entity
func (doc *Document) ToParticipant() Participant {
	return Participant{
		Name:     doc.Name,
		LastSeen: doc.LastSeen,
	}
}

// FromParticipant converts Participant entity to Document
func (doc *Document) FromParticipant(p Participant) {
	doc.Name = p.Name
	doc.LastSeen = p.LastSeen
}
