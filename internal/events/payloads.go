package events

import "time"

// Meta holds fields a producer sends that the notifier does not model.
type Meta map[string]any

// Notification mirrors a BookHive notification document.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Meta      Meta      `json:"meta,omitempty"`
}

// CircleMessage is one message posted in a study circle.
type CircleMessage struct {
	ID         string    `json:"id,omitempty"`
	CircleID   string    `json:"circleId,omitempty"`
	SenderID   string    `json:"senderId,omitempty"`
	SenderName string    `json:"senderName,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	Meta       Meta      `json:"meta,omitempty"`
}

// Story is the public summary of a newly published story.
type Story struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	AuthorID   string    `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName,omitempty"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	Meta       Meta      `json:"meta,omitempty"`
}

// Resource is the public summary of a study resource.
type Resource struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Type       string    `json:"type,omitempty"`
	UploaderID string    `json:"uploaderId,omitempty"`
	Downloads  int       `json:"downloads"`
	Likes      int       `json:"likes"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
	Meta       Meta      `json:"meta,omitempty"`
}

// Activity is a credit, points or badge change for one user.
type Activity struct {
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action,omitempty"`
	Credits   int       `json:"credits,omitempty"`
	Points    int       `json:"points,omitempty"`
	Badge     string    `json:"badge,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Meta      Meta      `json:"meta,omitempty"`
}
