// Package intake decides what a lead submission does to the record store: nothing,
// a resumption of an existing lead, or a new lead.
package intake

import (
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/phone"
)

// Submission is a lead form post whose phones have already been classified.
type Submission struct {
	FirstName string
	LastName  string
	Email     *string
	Phones    phone.Pair
	Address   domain.AddressInput
	Source    *string
	SubSource *string
}

// Outcome names the branch a submission took.
type Outcome string

const (
	OutcomeRejected            Outcome = "rejected"
	OutcomeContactWithoutLead  Outcome = "contact_without_lead"
	OutcomeDoNotCall           Outcome = "do_not_call"
	OutcomeResumed             Outcome = "resumed"
	OutcomeDuplicateSuppressed Outcome = "duplicate_suppressed"
	OutcomeCreated             Outcome = "created"
	OutcomeFailed              Outcome = "failed"
)

// Result reports the outcome. Lead is set for Created, Resumed, DoNotCall and
// DuplicateSuppressed; it is nil for Rejected, ContactWithoutLead and Failed.
type Result struct {
	Outcome Outcome
	Lead    *domain.Lead
}

// Mutated reports whether the submission changed the record store.
func (r Result) Mutated() bool {
	return r.Outcome == OutcomeResumed || r.Outcome == OutcomeCreated
}

func primaryPhone(p phone.Pair) domain.Phone {
	return domain.Phone{Number: p.Primary.E164, LineType: domain.LineType(p.Primary.LineType)}
}

func secondaryPhone(p phone.Pair) *domain.Phone {
	if p.Secondary == nil {
		return nil
	}
	return &domain.Phone{Number: p.Secondary.E164, LineType: domain.LineType(p.Secondary.LineType)}
}
