package tools

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/cloudwego/eino/schema"

	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// EmailConfig configures the outbound SMTP sender.
type EmailConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"support@insurance-helpdesk.example.com"`
}

// EmailSender sends plain-text mail over SMTP.
type EmailSender struct {
	cfg EmailConfig
}

func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

// Send delivers one plain-text message.
func (s *EmailSender) Send(_ context.Context, to, subject, body string) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("email delivery is not configured")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		logx.Error().Err(err).Str("to", to).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}
	logx.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

// NewSendEmailTool sends the customer a confirmation or summary email.
func NewSendEmailTool(sender *EmailSender) Tool {
	return Tool{
		Info: &schema.ToolInfo{
			Name: "send_email",
			Desc: "Send the customer an email, for example a confirmation of what was discussed or a copy of ticket details. Only send when the customer asks for it.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"to": {
					Type:     "string",
					Desc:     "Recipient email address.",
					Required: true,
				},
				"subject": {
					Type:     "string",
					Desc:     "Email subject line.",
					Required: true,
				},
				"body": {
					Type:     "string",
					Desc:     "Plain-text email body.",
					Required: true,
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			to := stringArg(args, "to")
			subject := stringArg(args, "subject")
			body := stringArg(args, "body")
			if to == "" || subject == "" || body == "" {
				return "", fmt.Errorf("to, subject and body are required")
			}
			if err := sender.Send(ctx, to, subject, body); err != nil {
				return "", err
			}
			return fmt.Sprintf("Email sent to %s.", to), nil
		},
	}
}
