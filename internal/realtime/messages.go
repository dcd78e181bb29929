package realtime

// Message types pushed over the live channel.
const (
	MessageConnectionEstablished = "connection_established"
	MessageNotification          = "notification"
	MessagePong                  = "pong"
	MessageError                 = "error"
)

// Message is the JSON frame written to live clients.
type Message struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ClientMessage is a frame sent by a live client.
type ClientMessage struct {
	Type string `json:"type"`
}
