package types

// Message is one notification delivered to every address in To.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// NotifierType identifies a dispatcher implementation.
type NotifierType string

const (
	NotifierEmail NotifierType = "email"
	NotifierMock  NotifierType = "mock"
)
