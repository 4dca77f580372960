package notify

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("NOTIFY_NOT_CONFIGURED")
	ErrSendFailed    = errors.New("NOTIFY_SEND_FAILED")
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Unconfigured - используется, когда нет EMAIL_USER / EMAIL_PASS
type Unconfigured struct{}

func (Unconfigured) Send(_ context.Context, msg Message) error {
	return fmt.Errorf("send %q to %s: %w", msg.Subject, msg.To, ErrNotConfigured)
}
