package domain

// MessageSender identifies who produced a message.
type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderAI   MessageSender = "ai"
)

// Message is a single chat message. IDs are assigned per conversation and
// increase monotonically; a message is never mutated after creation.
type Message struct {
	ID     int64         `json:"id"`
	Text   string        `json:"text"`
	Sender MessageSender `json:"sender"`
}
