package models

import "time"

// Contact is the recipient of a session's messages. Tags are the labels the
// tag node and tag-membership clauses operate on.
type Contact struct {
	ID        string    `json:"id"    validate:"required"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone" validate:"required"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTag reports tag membership, exact match on the stored form. Callers
// that need normalized matching normalize both sides first.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

// AddTag appends a tag if absent and reports whether the set changed.
func (c *Contact) AddTag(tag string) bool {
	if c.HasTag(tag) {
		return false
	}

	c.Tags = append(c.Tags, tag)

	return true
}

// RemoveTag removes a tag and reports whether the set changed.
func (c *Contact) RemoveTag(tag string) bool {
	for i, t := range c.Tags {
		if t == tag {
			c.Tags = append(c.Tags[:i], c.Tags[i+1:]...)
			return true
		}
	}

	return false
}

// ChannelInstanceStatus represents the connection state of a messaging
// channel instance.
type ChannelInstanceStatus string

const (
	ChannelInstanceConnected    ChannelInstanceStatus = "connected"
	ChannelInstanceDisconnected ChannelInstanceStatus = "disconnected"
)

// ChannelInstance is one connected messaging account sessions send through.
// A send failure whose text matches known disconnect phrasing flips it to
// disconnected so operators can react.
type ChannelInstance struct {
	ID        string                `json:"id" validate:"required"`
	Name      string                `json:"name"`
	Status    ChannelInstanceStatus `json:"status"`
	LastError string                `json:"last_error,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}
