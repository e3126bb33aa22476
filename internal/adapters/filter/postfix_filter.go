package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/eml"
	"github.com/mikey/phishing-link-analyzer/internal/analyzer"
	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// PostfixFilter implements a Postfix content filter that stamps each message
// with the analysis verdict and relays it back for delivery.
type PostfixFilter struct {
	service        *analyzer.Service
	parser         *eml.Parser
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockDangerous bool
	statusHeader   string
	scoreHeader    string
	levelHeader    string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *analyzer.Service,
	parser *eml.Parser,
	logger *zap.Logger,
	listenAddr string,
	blockDangerous bool,
	statusHeader string,
	scoreHeader string,
	levelHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *PostfixFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[**PHISHING**] "
	}

	return &PostfixFilter{
		service:        service,
		parser:         parser,
		logger:         logger,
		listenAddr:     listenAddr,
		blockDangerous: blockDangerous,
		statusHeader:   statusHeader,
		scoreHeader:    scoreHeader,
		levelHeader:    levelHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail runs one analysis; mainly used for testing or direct calls
func (f *PostfixFilter) ProcessEmail(ctx context.Context, req *analyzer.Request) (*core.EmailAnalysis, error) {
	return f.service.AnalyzeEmail(ctx, req)
}

// sendToPostfix relays the stamped message back to Postfix using go-smtp
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the message, stamps the verdict headers, and relays the
// result back to Postfix.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	email, err := s.filter.parser.Parse(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}
	// Envelope addresses are authoritative over header values
	email.From = s.sender
	email.To = s.recipients

	senderDomain := "unknown"
	if parts := strings.Split(email.From, "@"); len(parts) == 2 {
		senderDomain = parts[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	analysis, analysisErr := s.filter.service.AnalyzeEmail(ctx, &analyzer.Request{Email: email})
	if analysisErr != nil {
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", email.From),
			zap.String("sender_domain", senderDomain))

		// Deliver unstamped rather than bounce when analysis itself failed
		analysis = &core.EmailAnalysis{
			Overall:    core.OverallRisk{Level: core.RiskSafe, Score: 0},
			AnalyzedAt: time.Now(),
		}
	}

	dangerous := analysis.Overall.Level == core.RiskDangerous

	if dangerous && s.filter.blockDangerous && analysisErr == nil {
		s.filter.logger.Info("Rejecting dangerous email",
			zap.String("from", email.From),
			zap.String("sender_domain", senderDomain),
			zap.Float64("score", analysis.Overall.Score))
		return fmt.Errorf("550 Rejected as phishing (score: %.1f)", analysis.Overall.Score)
	}

	modified := s.stampHeaders(rawData, email, analysis, analysisErr, dangerous)

	if s.filter.postfixEnabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, modified); err != nil {
			s.filter.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", email.From))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("sender_domain", senderDomain),
		zap.String("level", string(analysis.Overall.Level)),
		zap.Float64("score", analysis.Overall.Score),
		zap.Int("urls", len(analysis.URLs)))

	return nil
}

// stampHeaders prepends the verdict headers (and optionally a rewritten
// subject) to the raw message while preserving its MIME body byte for byte.
func (s *smtpSession) stampHeaders(rawData []byte, email *core.Email, analysis *core.EmailAnalysis, analysisErr error, dangerous bool) []byte {
	var out bytes.Buffer

	fmt.Fprintf(&out, "%s: %t\r\n", s.filter.statusHeader, dangerous || analysis.Overall.Level == core.RiskSuspicious)
	fmt.Fprintf(&out, "%s: %.1f\r\n", s.filter.scoreHeader, analysis.Overall.Score)
	fmt.Fprintf(&out, "%s: %s\r\n", s.filter.levelHeader, analysis.Overall.Level)
	if analysisErr != nil {
		fmt.Fprintf(&out, "X-Phishing-Analysis-Error: %s\r\n", analysisErr.Error())
	}

	rewriteSubject := dangerous && s.filter.modifySubject && s.filter.subjectPrefix != ""
	if rewriteSubject {
		subject := decodeEncodedHeader(email.Subject)
		if !strings.HasPrefix(subject, s.filter.subjectPrefix) {
			fmt.Fprintf(&out, "Subject: %s%s\r\n", s.filter.subjectPrefix, subject)
		} else {
			rewriteSubject = false
		}
	}

	for key, values := range email.Headers {
		if rewriteSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}

	out.WriteString("\r\n")
	out.Write(messageBody(rawData))

	return out.Bytes()
}

// messageBody returns everything after the header separator, preserving
// MIME parts and attachments untouched.
func messageBody(rawData []byte) []byte {
	if i := bytes.Index(rawData, []byte("\r\n\r\n")); i != -1 {
		return rawData[i+4:]
	}
	if i := bytes.Index(rawData, []byte("\n\n")); i != -1 {
		return rawData[i+2:]
	}
	return nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words, falling back to the
// raw value when decoding fails.
func decodeEncodedHeader(value string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// Logout handles SMTP logout (not needed for the filter)
func (s *smtpSession) Logout() error {
	return nil
}
