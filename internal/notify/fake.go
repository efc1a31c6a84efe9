package notify

import (
	"context"
	"sync"
)

// Message records a send attempt made through the FakeSender.
type Message struct {
	Phone string
	Body  string
}

// FakeSender is a test implementation of Sender.
type FakeSender struct {
	mu   sync.Mutex
	sent []Message

	// Err, when set, is returned from every Send.
	Err error
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (f *FakeSender) Send(_ context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.sent = append(f.sent, Message{Phone: phone, Body: message})
	return nil
}

func (f *FakeSender) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.sent))
	copy(out, f.sent)
	return out
}
