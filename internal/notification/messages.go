package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

type messageData struct {
	FirstName  string
	BookingURL string
}

var smsTemplates = map[domain.Stage]string{
	domain.StageNew: "Hi {{.FirstName}}, thanks for your interest! Pick a time for your free estimate here: {{.BookingURL}}",
	domain.StageAgedHighPriority: "Hi {{.FirstName}}, we saw you checked back in. " +
		"We have openings this week: {{.BookingURL}}",
	domain.StageAgedLowPriority: "Hi {{.FirstName}}, still interested in a free estimate? Book any time: {{.BookingURL}}",
	domain.StageRetargetedNoShow: "Hi {{.FirstName}}, sorry we missed you. " +
		"Choose a new time that suits you: {{.BookingURL}}",
	domain.StageRetargetedRehash: "Hi {{.FirstName}}, plans change. " +
		"If you'd like another look at your options, book here: {{.BookingURL}}",
}

var emailParagraphs = map[domain.Stage][]string{
	domain.StageNew: {
		"Thanks for reaching out. Your free, no-obligation estimate takes about 30 minutes.",
		"Pick a time below and we'll confirm right away.",
	},
	domain.StageAgedHighPriority: {
		"We noticed you came back to us. We'd love to help.",
		"There are still openings this week.",
	},
	domain.StageAgedLowPriority: {
		"Just checking in. Your free estimate is still available whenever you're ready.",
	},
	domain.StageRetargetedNoShow: {
		"We're sorry we missed you at your last appointment.",
		"Choose a new time that works better for you.",
	},
	domain.StageRetargetedRehash: {
		"A lot can change in a few months. If you'd like to revisit your options, we're here.",
	},
}

var parsedSMS = func() map[domain.Stage]*template.Template {
	out := make(map[domain.Stage]*template.Template, len(smsTemplates))
	for stage, body := range smsTemplates {
		out[stage] = template.Must(template.New(string(stage)).Option("missingkey=zero").Parse(body))
	}
	return out
}()

// renderSMS renders the text message for the lead's stage.
func renderSMS(stage domain.Stage, data messageData) (string, error) {
	tmpl, ok := parsedSMS[stage]
	if !ok {
		tmpl = parsedSMS[domain.StageNew]
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render sms for %s: %w", stage, err)
	}
	return buf.String(), nil
}

func paragraphsFor(stage domain.Stage) []string {
	if p, ok := emailParagraphs[stage]; ok {
		return p
	}
	return emailParagraphs[domain.StageNew]
}
