// Package mail sends templated notification mails over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
)

// Message is one rendered mail to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through a plain SMTP relay with PLAIN auth.
type SMTPSender struct {
	addr   string
	auth   smtp.Auth
	from   string
	logger *zap.Logger
}

func NewSMTPSender(cfg *config.MailConfig, logger *zap.Logger) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &SMTPSender{
		addr:   fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:   auth,
		from:   cfg.From,
		logger: logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	buf.WriteString(msg.Body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, buf.Bytes()); err != nil {
		s.logger.Warn("smtp send failed", zap.String("to", msg.To), zap.Error(err))
		return err
	}
	return nil
}

// ── templates ──

// Template names.
const (
	TemplateStatusChanged = "statusChanged"
	TemplateSemesterMoved = "semesterMoved"
)

var templates = map[string]struct {
	subject string
	body    *template.Template
}{
	TemplateStatusChanged: {
		subject: "{{.Entity}} moved to {{.Status}}",
		body: template.Must(template.New(TemplateStatusChanged).Parse(
			`<p>{{.Entity}} <b>{{.Title}}</b> was moved to <b>{{.Status}}</b> by {{.Actor}}.</p>` +
				`{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`)),
	},
	TemplateSemesterMoved: {
		subject: "Semester rollover completed",
		body: template.Must(template.New(TemplateSemesterMoved).Parse(
			`<p>{{.Count}} batch assignments were created for the new semester.</p>`)),
	},
}

// Render builds the subject and body for a named template.
func Render(name string, params map[string]string) (string, string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}

	subject := tpl.subject
	for k, v := range params {
		subject = strings.ReplaceAll(subject, "{{."+k+"}}", v)
	}

	var body bytes.Buffer
	if err := tpl.body.Execute(&body, params); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return subject, body.String(), nil
}

// LogSender only logs the message. Used when no SMTP relay is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail not sent, no smtp relay configured",
		zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
