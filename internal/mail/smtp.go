package mail

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/proflow/proflow/internal/model"
)

// smtpsPort is the well-known implicit-TLS SMTP port. Other ports dial in
// the clear and upgrade with STARTTLS when the server offers it.
const smtpsPort = "465"

const dialTimeout = 30 * time.Second

// Sender transmits notification emails over SMTP. Each Send call opens its
// own connection and closes it before returning.
type Sender struct {
	creds model.EmailCredentials
}

// NewSender creates an SMTP sender for the given credentials.
func NewSender(creds model.EmailCredentials) *Sender {
	return &Sender{creds: creds}
}

// Send composes a multipart text+HTML message and transmits it. Incomplete
// credentials fail fast with a ConfigError before any network attempt.
func (s *Sender) Send(to, subject, textBody, htmlBody string) error {
	if err := validateCredentials(
		s.creds.Host, s.creds.Port, s.creds.User, s.creds.Pass,
	); err != nil {
		return err
	}

	body := composeMessage(s.creds.User, to, subject, textBody, htmlBody)
	addr := s.creds.Host + ":" + s.creds.Port

	tlsConfig := &tls.Config{
		ServerName:         s.creds.Host,
		InsecureSkipVerify: s.creds.InsecureTLS,
	}

	if s.creds.Port == smtpsPort {
		return s.sendImplicitTLS(addr, tlsConfig, to, body)
	}
	return s.sendStartTLS(addr, tlsConfig, to, body)
}

// sendImplicitTLS sends over a connection that is TLS from the first byte.
func (s *Sender) sendImplicitTLS(addr string, tlsConfig *tls.Config, to, body string) error {
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return &ConnectionError{Addr: addr, Err: err}
	}

	client, err := smtp.NewClient(conn, s.creds.Host)
	if err != nil {
		conn.Close()
		return &ConnectionError{Addr: addr, Err: err}
	}
	defer client.Close()

	if err := s.authenticate(client, addr); err != nil {
		return err
	}

	return s.transmit(client, to, body)
}

// sendStartTLS dials in the clear and upgrades with STARTTLS when the
// server advertises it. Plain submission is allowed otherwise, for local
// relays that do not speak TLS at all.
func (s *Sender) sendStartTLS(addr string, tlsConfig *tls.Config, to, body string) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return &ConnectionError{Addr: addr, Err: err}
	}

	client, err := smtp.NewClient(conn, s.creds.Host)
	if err != nil {
		conn.Close()
		return &ConnectionError{Addr: addr, Err: err}
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			return &ProtocolError{Op: "SMTP STARTTLS", Err: err}
		}
	}

	if err := s.authenticate(client, addr); err != nil {
		return err
	}

	return s.transmit(client, to, body)
}

// authenticate performs SMTP AUTH when the server supports it.
func (s *Sender) authenticate(client *smtp.Client, addr string) error {
	if ok, _ := client.Extension("AUTH"); !ok {
		return nil
	}
	auth := smtp.PlainAuth("", s.creds.User, s.creds.Pass, s.creds.Host)
	if err := client.Auth(auth); err != nil {
		return &ConnectionError{Addr: addr, Err: fmt.Errorf("SMTP auth: %w", err)}
	}
	return nil
}

// transmit runs the MAIL/RCPT/DATA transaction on an authenticated client.
func (s *Sender) transmit(client *smtp.Client, to, body string) error {
	if err := client.Mail(s.creds.User); err != nil {
		return &ProtocolError{Op: "SMTP MAIL FROM", Err: err}
	}

	if err := client.Rcpt(to); err != nil {
		return &ProtocolError{Op: "SMTP RCPT TO", Err: err}
	}

	writer, err := client.Data()
	if err != nil {
		return &ProtocolError{Op: "SMTP DATA", Err: err}
	}

	if _, err := writer.Write([]byte(body)); err != nil {
		return &ProtocolError{Op: "writing email body", Err: err}
	}

	if err := writer.Close(); err != nil {
		return &ProtocolError{Op: "closing email body", Err: err}
	}

	return client.Quit()
}

// composeMessage builds a multipart/alternative message with plain-text and
// HTML renderings.
func composeMessage(from, to, subject, textBody, htmlBody string) string {
	const boundary = "proflow-alt-boundary"

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: \"ProFlow Support\" <%s>\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf(
		"Content-Type: multipart/alternative; boundary=%q\r\n", boundary,
	))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return msg.String()
}
