package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"sync"

	"github.com/rs/zerolog"
)

const (
	subjectGroupInvitation  = "You have been added to a group"
	templateGroupInvitation = "group_invitation.html"
)

//go:embed templates/*.html
var templatesFS embed.FS

type EmailData interface {
	TemplateFileName() string
	Subject() string
}

type EmailSender interface {
	QueueEmail(to string, data EmailData)
}

type GroupInvitationData struct {
	UserName  string
	GroupName string
	InvitedBy string
}

func (g GroupInvitationData) TemplateFileName() string {
	return templateGroupInvitation
}

func (g GroupInvitationData) Subject() string {
	return subjectGroupInvitation
}

// NoopSender drops every email. It is used when no SMTP server is configured.
type NoopSender struct{}

func (NoopSender) QueueEmail(string, EmailData) {}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Password string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	cfg       SMTPConfig
	templates *template.Template
	taskQueue chan EmailTask
	send      sendFunc
	log       zerolog.Logger
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type EmailTask struct {
	to      string
	data    EmailData
	subject string
}

// NewEmailService parses the embedded templates and starts the delivery worker.
// Close drains the queue.
func NewEmailService(cfg SMTPConfig, log zerolog.Logger) (*EmailService, error) {
	return newEmailService(cfg, log, smtp.SendMail)
}

func newEmailService(cfg SMTPConfig, log zerolog.Logger, send sendFunc) (*EmailService, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and sender address are required")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}

	s := &EmailService{
		cfg:       cfg,
		templates: tmpl,
		taskQueue: make(chan EmailTask, 100),
		send:      send,
		log:       log,
	}
	s.wg.Add(1)
	go s.worker()
	return s, nil
}

func (s *EmailService) worker() {
	defer s.wg.Done()
	for task := range s.taskQueue {
		if err := s.sendTemplatedEmail(task.to, task.data, task.subject); err != nil {
			s.log.Error().Err(err).Str("to", task.to).Msg("Error sending email")
		}
	}
}

// QueueEmail never blocks the caller. When the queue is full the email is dropped.
func (s *EmailService) QueueEmail(to string, data EmailData) {
	select {
	case s.taskQueue <- EmailTask{to: to, data: data, subject: data.Subject()}:
	default:
		s.log.Warn().Str("to", to).Str("subject", data.Subject()).Msg("email queue full, dropping email")
	}
}

func (s *EmailService) Close() error {
	s.closeOnce.Do(func() {
		close(s.taskQueue)
	})
	s.wg.Wait()
	return nil
}

func (s *EmailService) render(to string, data EmailData, subject string) ([]byte, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, data.TemplateFileName(), data); err != nil {
		return nil, fmt.Errorf("error executing template: %w", err)
	}

	message := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n" +
		body.String())
	return message, nil
}

func (s *EmailService) sendTemplatedEmail(to string, data EmailData, subject string) error {
	message, err := s.render(to, data, subject)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)
	if err := s.send(s.cfg.Host+":"+s.cfg.Port, auth, s.cfg.From, []string{to}, message); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}
