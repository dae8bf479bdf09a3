// internal/service/email/templates.go
package email

import (
	"fmt"
	"html"
	"strings"
)

// Templates renders the transactional emails. BaseURL is the public site
// used for links.
type Templates struct {
	BaseURL string
}

func NewTemplates(baseURL string) *Templates {
	return &Templates{BaseURL: strings.TrimRight(baseURL, "/")}
}

var levelColors = map[string]string{
	"low":      "#2e7d32",
	"medium":   "#f9a825",
	"high":     "#ef6c00",
	"critical": "#c62828",
}

// Alert renders the broadcast email for a new alert.
func (t *Templates) Alert(to, title, content, level string) Message {
	link := t.BaseURL + "/alerts"
	color := levelColors[level]
	if color == "" {
		color = "#004aad"
	}

	body := fmt.Sprintf(`
		<h2 style="margin-top:0">%s</h2>
		<p><span style="background:%s;color:#fff;padding:4px 10px;border-radius:4px;text-transform:uppercase;font-size:12px">%s</span></p>
		<p>%s</p>
		<p><a class="button" href="%s">View alerts</a></p>
	`, html.EscapeString(title), color, html.EscapeString(level), nl2br(content), link)

	text := fmt.Sprintf("%s\nLevel: %s\n\n%s\n\nView alerts: %s\n", title, level, content, link)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] %s", strings.ToUpper(level), title),
		HTML:    layout(body),
		Text:    text,
	}
}

// EvacuationCenter announces a newly opened evacuation center.
func (t *Templates) EvacuationCenter(to, name, address string, capacity int, status string) Message {
	link := t.BaseURL + "/evacuation"
	body := fmt.Sprintf(`
		<h2 style="margin-top:0">New evacuation center: %s</h2>
		<p><strong>Address:</strong> %s</p>
		<p><strong>Capacity:</strong> %d</p>
		<p><strong>Status:</strong> %s</p>
		<p><a class="button" href="%s">See evacuation centers</a></p>
	`, html.EscapeString(name), html.EscapeString(address), capacity, html.EscapeString(status), link)

	text := fmt.Sprintf("New evacuation center: %s\nAddress: %s\nCapacity: %d\nStatus: %s\n\n%s\n",
		name, address, capacity, status, link)

	return Message{
		To:      to,
		Subject: "New evacuation center: " + name,
		HTML:    layout(body),
		Text:    text,
	}
}

// RescueStatus tells a reporter their rescue request changed.
func (t *Templates) RescueStatus(to, title, status, notes string) Message {
	notesHTML, notesText := "", ""
	if strings.TrimSpace(notes) != "" {
		notesHTML = fmt.Sprintf(`<p><strong>Notes from responders:</strong><br>%s</p>`, nl2br(notes))
		notesText = "\nNotes from responders: " + notes + "\n"
	}

	body := fmt.Sprintf(`
		<h2 style="margin-top:0">Rescue request update</h2>
		<p>Your request <strong>%s</strong> is now <strong>%s</strong>.</p>
		%s
		<p>Stay safe. Reply through the AmayAlert app if you need further help.</p>
	`, html.EscapeString(title), html.EscapeString(status), notesHTML)

	text := fmt.Sprintf("Your request %q is now %s.\n%s", title, status, notesText)

	return Message{
		To:      to,
		Subject: "Rescue update: " + title,
		HTML:    layout(body),
		Text:    text,
	}
}

// Credentials sends a newly created account its temporary password.
func (t *Templates) Credentials(to, fullName, password string) Message {
	link := t.BaseURL + "/login"
	name := fullName
	if name == "" {
		name = to
	}

	body := fmt.Sprintf(`
		<h2 style="margin-top:0">Welcome to AmayAlert</h2>
		<p>Hello %s,</p>
		<p>An account has been created for you.</p>
		<p><strong>Email:</strong> %s<br><strong>Temporary password:</strong> <code>%s</code></p>
		<p>Please sign in and change your password.</p>
		<p><a class="button" href="%s">Sign in</a></p>
	`, html.EscapeString(name), html.EscapeString(to), html.EscapeString(password), link)

	text := fmt.Sprintf("Hello %s,\n\nAn account has been created for you.\nEmail: %s\nTemporary password: %s\n\nSign in: %s\n",
		name, to, password, link)

	return Message{
		To:      to,
		Subject: "Your AmayAlert account",
		HTML:    layout(body),
		Text:    text,
	}
}

func nl2br(s string) string {
	return strings.ReplaceAll(html.EscapeString(strings.TrimSpace(s)), "\n", "<br>")
}

// layout wraps a body into the branded AmayAlert email layout.
func layout(content string) string {
	header := `
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8" />
		<title>AmayAlert</title>
		<style>
			body { font-family: Arial, sans-serif; background-color: #f6f8fa; padding: 30px; }
			.container { max-width: 600px; margin: auto; background: #fff; border-radius: 10px; overflow: hidden; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
			.header { background: #c62828; color: white; text-align: center; padding: 20px; font-size: 22px; font-weight: bold; }
			.footer { background: #f1f1f1; color: #555; text-align: center; padding: 15px; font-size: 13px; }
			.body { padding: 25px; color: #333; line-height: 1.6; }
			a.button { display: inline-block; background: #c62828; color: white; padding: 10px 20px; border-radius: 5px; text-decoration: none; }
		</style>
	</head>
	<body>
	<div class="container">
		<div class="header">AmayAlert</div>
		<div class="body">
	`

	footer := `
		</div>
		<div class="footer">
			<p>This is an automated message from AmayAlert. Please do not reply.</p>
		</div>
	</div>
	</body>
	</html>
	`

	return header + strings.TrimSpace(content) + footer
}
