package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/spmiller41/saleset-v2-sub000/platform/config"
)

// FollowUp is the content of a follow-up email.
type FollowUp struct {
	FirstName        string
	Stage            string
	Paragraphs       []string
	BookingURL       string
	TrackingPixelURL string
}

// Sender delivers follow-up emails.
type Sender interface {
	SendFollowUpEmail(ctx context.Context, toEmail string, msg FollowUp) error
}

// SMTPSender delivers email over SMTP via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender returns nil when email delivery is not configured.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	if !cfg.IsEmailEnabled() {
		return nil
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendFollowUpEmail renders and sends a stage-specific follow-up.
func (s *SMTPSender) SendFollowUpEmail(ctx context.Context, toEmail string, msg FollowUp) error {
	content, err := RenderFollowUp(msg)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, SubjectFor(msg.Stage), content)
}

// RenderFollowUp renders the HTML body of a follow-up email.
func RenderFollowUp(msg FollowUp) (string, error) {
	subject := SubjectFor(msg.Stage)
	return renderFollowUpHTML(followUpData{
		layoutData: layoutData{
			Title:            subject,
			Heading:          subject,
			CTALabel:         "Book your appointment",
			CTAURL:           msg.BookingURL,
			TrackingPixelURL: msg.TrackingPixelURL,
		},
		FirstName:  msg.FirstName,
		Paragraphs: msg.Paragraphs,
	})
}

// SubjectFor picks the subject line for a lead stage.
func SubjectFor(stage string) string {
	switch stage {
	case "Aged_Low_Priority", "Aged_High_Priority":
		return subjectFollowUpAged
	case "Retargeted_No_Show", "Retargeted_Rehash":
		return subjectFollowUpRetargeted
	default:
		return subjectFollowUpNew
	}
}
