// Package notification delivers follow-up messages to a lead's contact over SMS or
// email.
package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/spmiller41/saleset-v2-sub000/internal/email"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// ErrNoChannel is returned when the contact has neither a mobile number nor an email
// address that a configured channel can reach.
var ErrNoChannel = errors.New("no delivery channel for contact")

// SMSSender sends a text message.
type SMSSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// Notifier picks a channel for the contact and sends the stage's follow-up message.
type Notifier struct {
	sms          SMSSender
	email        email.Sender
	trackingBase string
	log          *logger.Logger
}

// New creates a Notifier. Either sender may be nil when that channel is not configured.
func New(sms SMSSender, emailSender email.Sender, trackingBase string, log *logger.Logger) *Notifier {
	return &Notifier{
		sms:          sms,
		email:        emailSender,
		trackingBase: strings.TrimRight(trackingBase, "/"),
		log:          log,
	}
}

// Notify texts mobile contacts and emails everyone else.
func (n *Notifier) Notify(ctx context.Context, contact domain.Contact, lead domain.Lead) (string, error) {
	data := messageData{FirstName: firstNameOr(contact.FirstName), BookingURL: lead.BookingURL}

	if number, ok := contact.PreferredChannelNumber(); ok && n.sms != nil {
		body, err := renderSMS(lead.Stage, data)
		if err != nil {
			return "", err
		}
		if err := n.sms.SendMessage(ctx, number, body); err != nil {
			return "", err
		}
		return ChannelSMS, nil
	}

	if contact.Email != nil && n.email != nil {
		msg := email.FollowUp{
			FirstName:        data.FirstName,
			Stage:            string(lead.Stage),
			Paragraphs:       paragraphsFor(lead.Stage),
			BookingURL:       lead.BookingURL,
			TrackingPixelURL: n.trackingBase + "/" + lead.TrackingToken + "/open",
		}
		if err := n.email.SendFollowUpEmail(ctx, *contact.Email, msg); err != nil {
			return "", err
		}
		return ChannelEmail, nil
	}

	n.log.Warn("follow-up has no channel", "lead_id", lead.ID.String())
	return "", ErrNoChannel
}

func firstNameOr(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
