package models

type Conversation struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	Name         string   `json:"name,omitempty"` // group chats only
	LastMessage  *Message `json:"lastMessage,omitempty"`
	UnreadCount  int      `json:"unreadCount"`
}

func (c Conversation) IsDirect() bool {
	return len(c.Participants) == 2
}

func (c Conversation) HasParticipant(id string) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// IsDirectWith reports whether c is the direct conversation between a and b.
func (c Conversation) IsDirectWith(a, b string) bool {
	return c.IsDirect() && c.HasParticipant(a) && c.HasParticipant(b)
}

// Clone returns a copy that does not share the participants slice.
func (c Conversation) Clone() Conversation {
	c.Participants = append([]string(nil), c.Participants...)
	if c.LastMessage != nil {
		m := *c.LastMessage
		c.LastMessage = &m
	}
	return c
}
