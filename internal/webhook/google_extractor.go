package webhook

import (
	"strconv"
	"strings"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/transport"
)

const sourceGoogleAds = "google_ads"

// Standard Google lead form column ids.
var googleColumnFields = map[string]string{
	"FULL_NAME":      "fullName",
	"FIRST_NAME":     "firstName",
	"LAST_NAME":      "lastName",
	"EMAIL":          "email",
	"WORK_EMAIL":     "email",
	"PHONE_NUMBER":   "phone",
	"WORK_PHONE":     "secondaryPhone",
	"STREET_ADDRESS": "street",
	"CITY":           "city",
	"REGION":         "state",
	"POSTAL_CODE":    "postalCode",
}

// ExtractGoogleLeadFields maps Google Lead Form data into a flat map keyed by our
// field names. Standard column ids win over free-form column names.
func ExtractGoogleLeadFields(payload GoogleLeadPayload) map[string]string {
	fields := make(map[string]string)

	for _, col := range payload.UserColumnData {
		value := strings.TrimSpace(col.StringValue)
		if value == "" {
			continue
		}
		key, ok := googleColumnFields[strings.ToUpper(strings.TrimSpace(col.ColumnID))]
		if !ok {
			key = normalizeGoogleFieldName(col.ColumnName)
		}
		if key == "" {
			continue
		}
		if _, taken := fields[key]; !taken {
			fields[key] = value
		}
	}

	return fields
}

// normalizeGoogleFieldName maps custom question labels to our field keys. Unknown
// labels map to "".
func normalizeGoogleFieldName(columnName string) string {
	label := strings.ToLower(strings.TrimSpace(columnName))

	switch {
	case containsAny(label, "first", "given"):
		return "firstName"
	case containsAny(label, "last", "surname", "family"):
		return "lastName"
	case containsAny(label, "name"):
		return "fullName"
	case containsAny(label, "email", "e-mail"):
		return "email"
	case containsAny(label, "alternate phone", "second phone", "other phone"):
		return "secondaryPhone"
	case containsAny(label, "phone", "mobile", "cell"):
		return "phone"
	case containsAny(label, "postal", "zip"):
		return "postalCode"
	case containsAny(label, "city", "town"):
		return "city"
	case containsAny(label, "state", "province", "region"):
		return "state"
	case containsAny(label, "street", "address"):
		return "street"
	default:
		return ""
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// ToSubmitLeadRequest builds a lead submission from a Google lead. The campaign is
// kept as the sub-source.
func ToSubmitLeadRequest(payload GoogleLeadPayload) transport.SubmitLeadRequest {
	fields := ExtractGoogleLeadFields(payload)

	first, last := fields["firstName"], fields["lastName"]
	if first == "" && last == "" {
		first, last = splitFullName(fields["fullName"])
	}

	req := transport.SubmitLeadRequest{
		FirstName:      first,
		LastName:       last,
		Email:          optional(fields["email"]),
		Phone:          fields["phone"],
		SecondaryPhone: fields["secondaryPhone"],
		Street:         optional(fields["street"]),
		City:           optional(fields["city"]),
		State:          optional(fields["state"]),
		PostalCode:     optional(fields["postalCode"]),
		Source:         optional(sourceGoogleAds),
		SubSource:      optional(campaignLabel(payload)),
	}
	return req
}

func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func campaignLabel(payload GoogleLeadPayload) string {
	if name := strings.TrimSpace(payload.CampaignName); name != "" {
		return name
	}
	if payload.CampaignID != 0 {
		return strconv.FormatInt(payload.CampaignID, 10)
	}
	return ""
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
