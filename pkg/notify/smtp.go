package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPDispatcher struct {
	client *mail.Client
	from   string
	logger *zap.SugaredLogger
}

func NewSMTPDispatcher(logger *zap.SugaredLogger, cfg SMTPConfig) (*SMTPDispatcher, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, ErrNotConfigured
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &SMTPDispatcher{
		client: client,
		from:   from,
		logger: logger,
	}, nil
}

func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	d.logger.Debugw("Send()", "to", msg.To, "subject", msg.Subject)

	m := mail.NewMsg()
	if err := m.From(d.from); err != nil {
		return fmt.Errorf("from %q: %w", d.from, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("to %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := d.client.DialAndSendWithContext(ctx, m); err != nil {
		d.logger.Errorw("failed to send email", "to", msg.To, "subject", msg.Subject, "err", err)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	return nil
}
