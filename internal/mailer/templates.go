package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// AlertItem is one low-stock line rendered in an alert email. Quantities are
// preformatted strings so templates never round decimals.
type AlertItem struct {
	Name           string
	CurrentStock   string
	ParLevel       string
	Risk           string
	SuggestedOrder string
}

// LowStockEmail is the immediate low-stock alert body.
type LowStockEmail struct {
	TenantName  string
	Items       []AlertItem
	HasCritical bool
}

// Subject builds the alert subject line.
func (e LowStockEmail) Subject() string {
	if e.HasCritical {
		return fmt.Sprintf("Critical low stock at %s", e.TenantName)
	}
	return fmt.Sprintf("Low stock at %s", e.TenantName)
}

// ReminderEmail is the immediate reminder body.
type ReminderEmail struct {
	TenantName   string
	ReminderName string
	TimeOfDay    string
}

// Subject builds the reminder subject line.
func (e ReminderEmail) Subject() string {
	return fmt.Sprintf("Reminder: %s", e.ReminderName)
}

// DigestEntry is one pending notification summarized inside a digest.
type DigestEntry struct {
	Title     string
	Message   string
	CreatedAt string
}

// DigestEmail aggregates a user's pending notifications for one tenant.
type DigestEmail struct {
	TenantName string
	Entries    []DigestEntry
}

// Subject builds the digest subject line.
func (e DigestEmail) Subject() string {
	return fmt.Sprintf("Your daily PrepDeck digest for %s", e.TenantName)
}

var lowStockTemplate = template.Must(template.New("low_stock").Parse(`<h2>Low stock at {{.TenantName}}</h2>
<p>The latest approved count flagged the following items:</p>
<table border="0" cellpadding="6">
  <tr><th align="left">Item</th><th align="left">On hand</th><th align="left">PAR</th><th align="left">Risk</th><th align="left">Suggested order</th></tr>
  {{range .Items}}<tr><td>{{.Name}}</td><td>{{.CurrentStock}}</td><td>{{.ParLevel}}</td><td>{{.Risk}}</td><td>{{.SuggestedOrder}}</td></tr>
  {{end}}
</table>`))

var reminderTemplate = template.Must(template.New("reminder").Parse(`<h2>{{.ReminderName}}</h2>
<p>This is your scheduled reminder for {{.TenantName}}{{if .TimeOfDay}} ({{.TimeOfDay}}){{end}}.</p>
<p>Open PrepDeck to start your inventory count.</p>`))

var digestTemplate = template.Must(template.New("digest").Parse(`<h2>Daily digest for {{.TenantName}}</h2>
<p>You have {{len .Entries}} pending notification{{if ne (len .Entries) 1}}s{{end}}:</p>
<ul>
  {{range .Entries}}<li><strong>{{.Title}}</strong>: {{.Message}} <em>({{.CreatedAt}})</em></li>
  {{end}}
</ul>`))

// RenderLowStock renders the low-stock alert HTML body.
func RenderLowStock(data LowStockEmail) (string, error) {
	return render(lowStockTemplate, data)
}

// RenderReminder renders the reminder HTML body.
func RenderReminder(data ReminderEmail) (string, error) {
	return render(reminderTemplate, data)
}

// RenderDigest renders the digest HTML body.
func RenderDigest(data DigestEmail) (string, error) {
	return render(digestTemplate, data)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
