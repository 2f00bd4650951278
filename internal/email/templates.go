package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// followUpTemplate is parsed once; base.html defines "email" and followup.html
// fills its "content" block.
var followUpTemplate = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/followup.html"))

type layoutData struct {
	Title            string
	Heading          string
	Subheading       string
	CTALabel         string
	CTAURL           string
	TrackingPixelURL string
}

type followUpData struct {
	layoutData
	FirstName  string
	Paragraphs []string
}

func renderFollowUpHTML(data followUpData) (string, error) {
	var buf bytes.Buffer
	if err := followUpTemplate.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("render follow-up email: %w", err)
	}
	return buf.String(), nil
}
