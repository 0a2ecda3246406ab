package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var (
	// ErrValidation indicates the contact form was incomplete or malformed.
	ErrValidation = errors.New("mail: invalid contact message")
	// ErrExternalAPI indicates the SMTP provider rejected or failed the send.
	ErrExternalAPI = errors.New("mail: provider failure")
)

// Dialer sends composed messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(messages ...*gomail.Message) error
}

// SMTPConfig holds the provider settings and the inbox that receives contact mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.To) != "" && strings.TrimSpace(c.From) != ""
}

// ContactMessage is the contact form payload.
type ContactMessage struct {
	Name    string `json:"name" validate:"required,max=190"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactSender delivers contact form messages to the configured inbox.
type ContactSender struct {
	dialer    Dialer
	from      string
	to        string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactSender builds a sender from cfg. A nil dialer selects a gomail SMTP dialer.
func NewContactSender(cfg SMTPConfig, dialer Dialer, logger *zap.Logger) (*ContactSender, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mail: smtp host, from and to addresses are required")
	}
	if dialer == nil {
		port := cfg.Port
		if port == 0 {
			port = 587
		}
		dialer = gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactSender{
		dialer:    dialer,
		from:      strings.TrimSpace(cfg.From),
		to:        strings.TrimSpace(cfg.To),
		validator: validator.New(),
		logger:    logger,
	}, nil
}

// SendContactMessage validates msg and forwards it. Replies go to the sender.
func (s *ContactSender) SendContactMessage(ctx context.Context, msg ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if err := s.validator.Struct(msg); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	composed := gomail.NewMessage()
	composed.SetHeader("From", s.from)
	composed.SetHeader("To", s.to)
	composed.SetAddressHeader("Reply-To", msg.Email, msg.Name)
	composed.SetHeader("Subject", fmt.Sprintf("Contact form: %s", msg.Name))
	composed.SetBody("text/plain", fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Message))

	if err := s.dialer.DialAndSend(composed); err != nil {
		s.logger.Error("contact mail failed",
			zap.String("operation", "mail.send_contact_message"),
			zap.Error(err))
		return errors.Join(ErrExternalAPI, err)
	}
	s.logger.Info("contact mail sent", zap.String("reply_to", msg.Email))
	return nil
}
