package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"

	"github.com/proflow/proflow/internal/model"
)

// Client fetches unread messages from an IMAP mailbox. A Client is cheap to
// construct; each FetchUnread call owns one connection for its duration and
// closes it on every exit path.
type Client struct {
	creds  model.EmailCredentials
	logger *slog.Logger
}

// NewClient creates an IMAP client for the given mailbox credentials.
func NewClient(creds model.EmailCredentials, logger *slog.Logger) *Client {
	return &Client{creds: creds, logger: logger}
}

// connect establishes a connection to the IMAP server and authenticates.
// The dial, TLS handshake, and every subsequent read and write are bounded
// by ctx: cancellation tears the connection down, so a hung mail server can
// never block a sync past its deadline. The caller must invoke the returned
// stop function once the session is over.
func (c *Client) connect(ctx context.Context) (*imapclient.Client, func(), error) {
	addr := c.creds.Host + ":" + c.creds.Port

	opts := &imapclient.Options{
		TLSConfig: &tls.Config{
			ServerName:         c.creds.Host,
			InsecureSkipVerify: c.creds.InsecureTLS,
		},
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, &ConnectionError{Addr: addr, Err: err}
	}

	// Watchdog: closing the connection is the only way to unblock reads
	// already in flight when ctx expires.
	stopWatch := context.AfterFunc(ctx, func() { conn.Close() })
	stop := func() { stopWatch() }

	var client *imapclient.Client
	if c.creds.TLS {
		tlsConn := tls.Client(conn, opts.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			stop()
			conn.Close()
			return nil, nil, &ConnectionError{Addr: addr, Err: err}
		}
		client = imapclient.New(tlsConn, opts)
	} else {
		client, err = imapclient.NewStartTLS(conn, opts)
		if err != nil {
			stop()
			conn.Close()
			return nil, nil, &ConnectionError{Addr: addr, Err: err}
		}
	}

	if err := client.Login(c.creds.User, c.creds.Pass).Wait(); err != nil {
		client.Close()
		stop()
		return nil, nil, &ConnectionError{Addr: addr, Err: err}
	}

	return client, stop, nil
}

// FetchUnread connects to the mailbox, fetches every message still flagged
// unseen, parses each into a Message, and flags the batch as seen.
//
// The seen-flag update happens only after every message has been parsed and
// is applied in a single batch store. If that update fails, the parsed
// messages are still returned: the next run may refetch them, and ticket
// dedup downstream prevents duplicates.
func (c *Client) FetchUnread(ctx context.Context) ([]Message, error) {
	if err := validateCredentials(
		c.creds.Host, c.creds.Port, c.creds.User, c.creds.Pass,
	); err != nil {
		return nil, err
	}

	client, stop, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	defer func() { _ = client.Logout().Wait() }()

	// Read-write select (the nil default), so the batch flag update below
	// is allowed. Fetches use Peek, so nothing is implicitly marked seen.
	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, &ProtocolError{Op: "selecting INBOX", Err: err}
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, &ProtocolError{Op: "searching unseen messages", Err: err}
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)

	var buffers []*imapclient.FetchMessageBuffer
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			fetchCmd.Close()
			return nil, &ProtocolError{Op: "collecting message data", Err: err}
		}
		buffers = append(buffers, buf)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, &ProtocolError{Op: "fetching messages", Err: err}
	}

	// Parse bodies concurrently, but wait for the whole batch before
	// touching any flags. Parsing is pure CPU work on collected buffers.
	parsed := make([]Message, len(buffers))
	var wg sync.WaitGroup
	for i, buf := range buffers {
		wg.Add(1)
		go func(i int, buf *imapclient.FetchMessageBuffer) {
			defer wg.Done()
			parsed[i] = messageFromBuffer(buf, bodySection)
		}(i, buf)
	}
	wg.Wait()

	// Single batch flag update for everything fetched. A failure here is
	// not fatal: worst case the messages are refetched next run.
	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		c.logger.Warn("marking messages as seen", "error", err)
	}

	return parsed, nil
}

// messageFromBuffer extracts a Message from a fetched buffer, substituting
// placeholders for absent subject and body.
func messageFromBuffer(
	buf *imapclient.FetchMessageBuffer,
	bodySection *imap.FetchItemBodySection,
) Message {
	m := Message{
		UID:      uint32(buf.UID),
		Subject:  DefaultSubject,
		TextBody: DefaultBody,
	}

	if buf.Envelope != nil {
		m.MessageID = buf.Envelope.MessageID
		m.Date = buf.Envelope.Date
		if buf.Envelope.Subject != "" {
			m.Subject = buf.Envelope.Subject
		}
		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			m.From = from.Addr()
			m.FromName = from.Name
		}
	}

	if raw := buf.FindBodySection(bodySection); raw != nil {
		textBody, htmlBody := parseMIMEBody(raw)
		if textBody == "" && htmlBody != "" {
			textBody = stripHTML(htmlBody)
		}
		if strings.TrimSpace(textBody) != "" {
			m.TextBody = textBody
		}
	}

	return m
}

// parseMIMEBody parses a raw RFC 2822 message body using go-message and
// extracts the text/plain and text/html parts.
func parseMIMEBody(raw []byte) (textBody, htmlBody string) {
	reader := bytes.NewReader(raw)

	mr, err := gomail.CreateReader(reader)
	if err != nil {
		// If parsing fails, try treating the whole thing as plain text
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html"):
			htmlBody = string(body)
		}
	}

	return textBody, htmlBody
}
