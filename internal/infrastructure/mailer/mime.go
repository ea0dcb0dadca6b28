package mailer

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"time"
)

// base64 bodies are wrapped at this width per RFC 2045.
const lineLength = 76

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), addr)
}

func newMessageID(domain string) string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return fmt.Sprintf("<%s@%s>", hex.EncodeToString(b), domain)
}

func buildMIMEMessage(e Email, messageIDDomain string, now time.Time) ([]byte, error) {
	if len(e.To) == 0 {
		return nil, errors.New("mailer: at least one recipient required")
	}
	if e.From == "" {
		return nil, errors.New("mailer: from address required")
	}
	if e.Subject == "" {
		return nil, errors.New("mailer: subject required")
	}
	if e.TextBody == "" {
		return nil, errors.New("mailer: text body required")
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", newMessageID(messageIDDomain))
	fmt.Fprintf(&b, "From: %s\r\n", formatAddress(e.FromName, e.From))
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.To, ", "))
	if len(e.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(e.Cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	keys := make([]string, 0, len(e.Headers))
	for k := range e.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := e.Headers[k]; k != "" && v != "" {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}

	if len(e.Attachments) == 0 {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		writeText(&b, e.TextBody)
		return b.Bytes(), nil
	}

	mw := multipart.NewWriter(&b)
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, fmt.Errorf("mailer: create text part: %w", err)
	}
	writeText(text, e.TextBody)

	for _, a := range e.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, fmt.Errorf("mailer: create attachment part: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(a.Data)
		for len(encoded) > lineLength {
			fmt.Fprintf(part, "%s\r\n", encoded[:lineLength])
			encoded = encoded[lineLength:]
		}
		fmt.Fprintf(part, "%s\r\n", encoded)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("mailer: close multipart: %w", err)
	}
	return b.Bytes(), nil
}

// writeText normalises line endings to CRLF.
func writeText(w io.Writer, body string) {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")
	if !strings.HasSuffix(body, "\r\n") {
		body += "\r\n"
	}
	_, _ = w.Write([]byte(body))
}
