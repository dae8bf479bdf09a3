package email

import (
	"context"
	"mime"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readHeaders(t *testing.T, raw []byte) mail.Header {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	return msg.Header
}

func TestBuildMIMEStripsInjectedHeaders(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", "587", "user", "pass", "alerts@amayalert.site", "AmayAlert\r\nX-Spoof: 1", false)

	raw := s.buildMIME(Message{
		To:      "ana@example.com",
		Subject: "Flood Warning\r\nBcc: victim@example.com",
		Text:    "Evacuate now",
		HTML:    "<p>Evacuate now</p>",
	})

	h := readHeaders(t, raw)
	assert.Empty(t, h.Get("Bcc"))
	assert.Empty(t, h.Get("X-Spoof"))
	assert.Equal(t, "Flood Warning Bcc: victim@example.com", h.Get("Subject"))
	assert.Equal(t, "ana@example.com", h.Get("To"))

	from, err := mail.ParseAddress(h.Get("From"))
	require.NoError(t, err)
	assert.Equal(t, "alerts@amayalert.site", from.Address)
}

func TestBuildMIMEEncodesNonASCII(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", "587", "user", "pass", "alerts@amayalert.site", "Alerto Amaya Niño", false)
	subject := "Babala: Baha sa Santo Niño"

	h := readHeaders(t, s.buildMIME(Message{To: "ana@example.com", Subject: subject, Text: "t", HTML: "h"}))

	rawSubject := h.Get("Subject")
	assert.True(t, strings.HasPrefix(rawSubject, "=?utf-8?q?"), rawSubject)
	decoded, err := new(mime.WordDecoder).DecodeHeader(rawSubject)
	require.NoError(t, err)
	assert.Equal(t, subject, decoded)

	from, err := mail.ParseAddress(h.Get("From"))
	require.NoError(t, err)
	assert.Equal(t, "Alerto Amaya Niño", from.Name)
}

func TestBuildMIMEKeepsPlainSubject(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", "587", "alerts@amayalert.site", "pass", "", "", false)

	h := readHeaders(t, s.buildMIME(Message{To: "ana@example.com", Subject: "New evacuation center", Text: "t", HTML: "h"}))
	assert.Equal(t, "New evacuation center", h.Get("Subject"))

	from, err := mail.ParseAddress(h.Get("From"))
	require.NoError(t, err)
	assert.Equal(t, "alerts@amayalert.site", from.Address)
}

func TestSendRejectsMalformedRecipient(t *testing.T) {
	s := NewSMTPSender("127.0.0.1", "1", "user", "pass", "alerts@amayalert.site", "AmayAlert", false)

	err := s.Send(context.Background(), Message{To: "ana@example.com\r\nBcc: victim@example.com", Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}
