// Package phone validates submitted phone numbers with libphonenumber.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "US"

// LineType classifies a phone number for outreach channel selection.
type LineType string

const (
	LineTypeMobile   LineType = "mobile"
	LineTypeLandline LineType = "landline"
	LineTypeInvalid  LineType = "invalid"
)

// Number is a parsed phone number with its line classification.
type Number struct {
	E164     string
	LineType LineType
}

// Valid reports whether the number parsed to a dialable E.164 value.
func (n Number) Valid() bool {
	return n.LineType != LineTypeInvalid && n.E164 != ""
}

// NormalizeE164 formats raw as E.164 for region, or returns the trimmed input
// when it does not parse.
func NormalizeE164(input string) string {
	return NormalizeE164In(input, DefaultRegion)
}

// NormalizeE164In formats a phone number to E.164 using the given default region.
func NormalizeE164In(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Classify parses input and returns its E.164 form and line type.
// Unparseable or invalid input yields LineTypeInvalid with an empty E164.
func Classify(input, region string) Number {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Number{LineType: LineTypeInvalid}
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return Number{LineType: LineTypeInvalid}
	}

	return Number{
		E164:     phonenumbers.Format(number, phonenumbers.E164),
		LineType: lineTypeOf(phonenumbers.GetNumberType(number)),
	}
}

func lineTypeOf(t phonenumbers.PhoneNumberType) LineType {
	switch t {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE, phonenumbers.PAGER:
		return LineTypeMobile
	case phonenumbers.UNKNOWN:
		return LineTypeInvalid
	default:
		return LineTypeLandline
	}
}

// Pair is the validated primary/secondary phone identity of a submission.
type Pair struct {
	Primary   Number
	Secondary *Number
}

// ValidatePair classifies both raw numbers. When the primary is unusable but the
// secondary is valid, the secondary is promoted. ok is false when neither number is usable.
func ValidatePair(primary, secondary, region string) (pair Pair, ok bool) {
	p := Classify(primary, region)
	s := Classify(secondary, region)

	switch {
	case p.Valid() && s.Valid() && p.E164 != s.E164:
		return Pair{Primary: p, Secondary: &s}, true
	case p.Valid():
		return Pair{Primary: p}, true
	case s.Valid():
		return Pair{Primary: s}, true
	default:
		return Pair{}, false
	}
}
