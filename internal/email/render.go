package email

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Template is a parsed message body with {{.Field}} placeholders.
type Template struct {
	tmpl *template.Template
}

// ParseTemplate parses body once so it can be rendered per recipient.
// Unknown fields render as empty strings.
func ParseTemplate(body string) (*Template, error) {
	tmpl, err := template.New("body").Option("missingkey=zero").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Render executes the template. Field values are HTML-escaped.
func (t *Template) Render(fields map[string]string) (string, error) {
	var body bytes.Buffer
	if err := t.tmpl.Execute(&body, fields); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

var (
	ugcPolicy *bluemonday.Policy
	ugcOnce   sync.Once
)

// Sanitize strips scripts, event handlers and other unsafe markup while
// keeping ordinary formatting, links, images and tables.
func Sanitize(html string) string {
	ugcOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		ugcPolicy.AllowStyling()
	})
	return ugcPolicy.Sanitize(html)
}
