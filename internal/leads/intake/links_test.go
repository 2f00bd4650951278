package intake

import (
	"net/url"
	"testing"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

func TestBookingURLCarriesContactDetails(t *testing.T) {
	b := NewLinkBuilder("https://book.example.com/schedule?utm=sms", "https://api.example.com/t", nil)
	email := "dana@example.com"
	contact := domain.Contact{
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     &email,
		Primary:   domain.Phone{Number: "+16315551234"},
	}

	raw := b.BookingURL(contact, "tok-1")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url %q: %v", raw, err)
	}
	q := u.Query()
	if q.Get("utm") != "sms" || q.Get("name") != "Dana Reyes" || q.Get("email") != email ||
		q.Get("phone") != "+16315551234" || q.Get("lead") != "tok-1" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestTrackingURL(t *testing.T) {
	b := NewLinkBuilder("https://book.example.com", "https://api.example.com/t/", nil)
	if got := b.TrackingURL("tok-1"); got != "https://api.example.com/t/tok-1/click" {
		t.Fatalf("unexpected tracking url %q", got)
	}
}
