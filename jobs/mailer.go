package jobs

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/irrigo/irrigo/internal/quotes"
)

// QuoteRenderer is satisfied by the quotes service.
type QuoteRenderer interface {
	RenderHTML(ctx context.Context, id int64) ([]byte, *quotes.Quote, error)
	RenderPDF(ctx context.Context, id int64) ([]byte, *quotes.Quote, error)
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig addresses the outgoing mail relay.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// QuoteMailer emails the printable quote with its PDF attached when
// PDF rendering is available.
type QuoteMailer struct {
	quotes QuoteRenderer
	cfg    SMTPConfig
	send   SendFunc
	now    func() time.Time
	logger *slog.Logger
}

// NewQuoteMailer constructs a QuoteMailer sending through net/smtp.
func NewQuoteMailer(renderer QuoteRenderer, cfg SMTPConfig, logger *slog.Logger) *QuoteMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteMailer{quotes: renderer, cfg: cfg, send: smtp.SendMail, now: time.Now, logger: logger}
}

// SendQuote renders quoteID and delivers it to to.
func (m *QuoteMailer) SendQuote(ctx context.Context, quoteID int64, to string) error {
	html, quote, err := m.quotes.RenderHTML(ctx, quoteID)
	if err != nil {
		return err
	}
	pdf, _, err := m.quotes.RenderPDF(ctx, quoteID)
	if err != nil {
		m.logger.Warn("quote pdf unavailable, sending html only", slog.Int64("quote_id", quoteID), slog.Any("error", err))
		pdf = nil
	}
	msg, err := m.compose(quote, to, html, pdf)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, nil, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *QuoteMailer) compose(q *quotes.Quote, to string, html, pdf []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	subject := fmt.Sprintf("Quotation %s", q.Number)
	if q.Title != "" {
		subject += " - " + q.Title
	}
	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64(part, html); err != nil {
		return nil, err
	}

	if len(pdf) > 0 {
		part, err = writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/pdf"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", q.Number+".pdf")},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, pdf); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 wraps encoded output at 76 columns.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := w.Write([]byte(encoded + "\r\n"))
	return err
}
