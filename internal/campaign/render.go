package campaign

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// DefaultGreeting opens every individual message.
const DefaultGreeting = "Hello"

// TestSubjectPrefix marks preview sends.
const TestSubjectPrefix = "[TEST] "

const bodyTemplate = `<html><body>` +
	`<h2>{{.Title}}</h2>` +
	`{{if .Name}}<p>{{.Greeting}} {{.Name}},</p>{{end}}` +
	`<p>{{range $i, $l := .Lines}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>` +
	`</body></html>`

const testTemplate = `<html><body>` +
	`<div style="background: #f3f4f6; padding: 20px;">` +
	`<div style="background: white; padding: 20px; border-radius: 8px; max-width: 600px; margin: 0 auto;">` +
	`<p style="color: #dc2626; font-weight: bold; margin-bottom: 10px;">🧪 TEST EMAIL</p>` +
	`<h2>{{.Title}}</h2>` +
	`<p>{{range $i, $l := .Lines}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>` +
	`</div></div>` +
	`</body></html>`

var (
	bodyTmpl = template.Must(template.New("body").Parse(bodyTemplate))
	testTmpl = template.Must(template.New("test").Parse(testTemplate))
)

// Renderer produces the HTML bodies of campaign messages. All user content
// is escaped; message line breaks become <br>.
type Renderer struct {
	// Greeting precedes the contact name in individual messages.
	Greeting string
}

type bodyData struct {
	Title    string
	Greeting string
	Name     string
	Lines    []string
}

func (r Renderer) greeting() string {
	if g := strings.TrimSpace(r.Greeting); g != "" {
		return g
	}
	return DefaultGreeting
}

// Individual renders the body addressed to one named contact.
func (r Renderer) Individual(title, message, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return execute(bodyTmpl, bodyData{Title: title, Greeting: r.greeting(), Name: name, Lines: lines(message)})
}

// Bulk renders the non-personalized body shared by every recipient.
func (r Renderer) Bulk(title, message string) (string, error) {
	return execute(bodyTmpl, bodyData{Title: title, Lines: lines(message)})
}

// Test renders the preview body with the test banner.
func (r Renderer) Test(title, message string) (string, error) {
	return execute(testTmpl, bodyData{Title: title, Lines: lines(message)})
}

func execute(t *template.Template, data bodyData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s body: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func lines(message string) []string {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	return strings.Split(message, "\n")
}
