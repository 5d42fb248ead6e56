package types

// Envelope is the JSON body structure shared by API responses.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	User    any    `json:"user,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// NewEnvelope returns a successful response envelope with the given message and data.
func NewEnvelope(message string, data any) *Envelope {
	return &Envelope{Success: true, Message: message, Data: data}
}

// WithCount sets the count of data items in the envelope.
func (e *Envelope) WithCount(n int) *Envelope {
	e.Count = &n
	return e
}

// MessageResponse is a response body containing only a message.
type MessageResponse struct {
	Message string `json:"message"`
}
