// internal/service/email/smtp.go
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// SMTPSender handles outgoing emails via SMTP.
type SMTPSender struct {
	smtpHost string
	smtpPort string
	username string
	password string
	from     string
	fromName string
	secure   bool
}

// NewSMTPSender creates a new SMTP email sender. from defaults to the
// login user when empty.
func NewSMTPSender(host, port, user, pass, from, fromName string, secure bool) *SMTPSender {
	if from == "" {
		from = user
	}
	return &SMTPSender{
		smtpHost: host,
		smtpPort: port,
		username: user,
		password: pass,
		from:     from,
		fromName: fromName,
		secure:   secure,
	}
}

// Send sends a multipart/alternative email.
func (e *SMTPSender) Send(_ context.Context, m Message) error {
	to, err := mail.ParseAddress(m.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", m.To, err)
	}
	m.To = to.Address

	msg := e.buildMIME(m)
	serverAddr := e.smtpHost + ":" + e.smtpPort

	if e.secure {
		// Port 465 - implicit TLS
		conn, err := tls.Dial("tcp", serverAddr, &tls.Config{ServerName: e.smtpHost})
		if err != nil {
			return fmt.Errorf("tls dial failed: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, e.smtpHost)
		if err != nil {
			return fmt.Errorf("smtp client failed: %w", err)
		}
		defer client.Quit()

		auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth failed: %w", err)
		}

		return e.sendMail(client, m.To, msg)
	}

	// Port 587 - STARTTLS
	auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	if err := smtp.SendMail(serverAddr, auth, e.from, []string{m.To}, msg); err != nil {
		return fmt.Errorf("send mail failed: %w", err)
	}
	return nil
}

func (e *SMTPSender) sendMail(client *smtp.Client, to string, msg []byte) error {
	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// headerValue strips line breaks so caller text cannot start a new header.
func headerValue(v string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(v)
}

func (e *SMTPSender) buildMIME(m Message) []byte {
	boundary := "amayalert-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	from := mail.Address{Name: headerValue(e.fromName), Address: headerValue(e.from)}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(m.To))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(m.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(m.Text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(m.HTML)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
