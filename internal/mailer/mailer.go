// Package mailer delivers outbound email. The OTP issuer depends only on Notifier.
package mailer

import (
	"context"
	"errors"
)

// ErrNoRecipient is returned when a message has no To address.
var ErrNoRecipient = errors.New("mailer: message has no recipient")

// Message is one email. Text is required; HTML is optional and sent as the alternative part.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier sends a message. Implementations must honor ctx cancellation where the transport allows it.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
