// Package eml parses raw RFC 5322 messages into the core email model.
package eml

import (
	"fmt"
	"io"
	"net/mail"

	"github.com/jaytaylor/html2text"
	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// Parser decodes MIME messages using enmime
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new message parser
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse reads a raw message and returns the parsed email. Messages with an
// HTML part but no plain part get a text rendering of the HTML so the
// classifier always has something to read.
func (p *Parser) Parse(r io.Reader) (*core.Email, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	email := &core.Email{
		From:     env.GetHeader("From"),
		Subject:  env.GetHeader("Subject"),
		Body:     env.Text,
		HTMLBody: env.HTML,
		Headers:  env.Root.Header,
	}

	if addrs, err := env.AddressList("To"); err == nil {
		for _, a := range addrs {
			email.To = append(email.To, a.Address)
		}
	}

	if date := env.GetHeader("Date"); date != "" {
		if parsed, err := mail.ParseDate(date); err == nil {
			email.Date = parsed
		} else {
			p.logger.Debug("Unparseable Date header", zap.String("date", date))
		}
	}

	if email.Body == "" && email.HTMLBody != "" {
		text, err := html2text.FromString(email.HTMLBody, html2text.Options{TextOnly: true})
		if err != nil {
			p.logger.Warn("Failed to render HTML part as text", zap.Error(err))
		} else {
			email.Body = text
		}
	}

	return email, nil
}
