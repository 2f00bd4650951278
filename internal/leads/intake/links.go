package intake

import (
	"context"
	"net/url"
	"strings"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

// Shortener shortens a URL. Implementations return the input unchanged on failure.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) string
}

type passthrough struct{}

func (passthrough) Shorten(_ context.Context, longURL string) string { return longURL }

// LinkBuilder composes the booking and event-tracking links carried by a lead.
type LinkBuilder struct {
	bookingBase  string
	trackingBase string
	shortener    Shortener
}

// NewLinkBuilder creates a LinkBuilder. A nil shortener leaves links unshortened.
func NewLinkBuilder(bookingBase, trackingBase string, shortener Shortener) *LinkBuilder {
	if shortener == nil {
		shortener = passthrough{}
	}
	return &LinkBuilder{
		bookingBase:  bookingBase,
		trackingBase: strings.TrimRight(trackingBase, "/"),
		shortener:    shortener,
	}
}

// BookingURL prefills the booking page with the contact's details and the lead token.
func (b *LinkBuilder) BookingURL(contact domain.Contact, token string) string {
	q := url.Values{}
	if name := contact.FullName(); name != "" {
		q.Set("name", name)
	}
	if contact.Email != nil {
		q.Set("email", *contact.Email)
	}
	q.Set("phone", contact.Primary.Number)
	q.Set("lead", token)

	sep := "?"
	if strings.Contains(b.bookingBase, "?") {
		sep = "&"
	}
	return b.bookingBase + sep + q.Encode()
}

// TrackingURL is the click-tracking redirect for the lead.
func (b *LinkBuilder) TrackingURL(token string) string {
	return b.trackingBase + "/" + url.PathEscape(token) + "/click"
}

// Build returns both links, shortened when a shortener is configured.
func (b *LinkBuilder) Build(ctx context.Context, contact domain.Contact, token string) (booking, tracking string) {
	return b.shorten(ctx, b.BookingURL(contact, token)), b.shorten(ctx, b.TrackingURL(token))
}

func (b *LinkBuilder) shorten(ctx context.Context, longURL string) string {
	if short := b.shortener.Shorten(ctx, longURL); short != "" {
		return short
	}
	return longURL
}
