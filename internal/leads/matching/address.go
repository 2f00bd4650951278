// Package matching decides whether two addresses describe the same place. Every
// predicate is total: absent or blank fields make a comparison fail rather than error.
package matching

import (
	"strings"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

// AddressMatches compares street and postal code case-insensitively, falling back to
// street, city and state when the postal codes cannot decide.
func AddressMatches(a, b domain.Address) bool {
	if !equalFold(&a.Street, &b.Street) {
		return false
	}
	if equalFold(a.PostalCode, b.PostalCode) {
		return true
	}
	return equalFold(a.City, b.City) && equalFold(a.State, b.State)
}

// HasUsable reports whether a submitted address carries enough to be stored: street
// and postal code, or street, city and state.
func HasUsable(in domain.AddressInput) bool {
	if !present(in.Street) {
		return false
	}
	if present(in.PostalCode) {
		return true
	}
	return present(in.City) && present(in.State)
}

// ToAddress converts a usable submitted address into an unsaved Address with trimmed
// fields. Blank optional fields become nil.
func ToAddress(in domain.AddressInput) (domain.Address, bool) {
	if !HasUsable(in) {
		return domain.Address{}, false
	}
	return domain.Address{
		Street:     strings.TrimSpace(*in.Street),
		City:       trimmed(in.City),
		State:      trimmed(in.State),
		PostalCode: trimmed(in.PostalCode),
	}, true
}

func equalFold(a, b *string) bool {
	if !present(a) || !present(b) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*a), strings.TrimSpace(*b))
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func trimmed(s *string) *string {
	if !present(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
