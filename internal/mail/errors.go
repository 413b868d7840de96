package mail

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError indicates that mailbox credentials are missing or incomplete.
// It is returned before any network attempt is made.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf(
		"email configuration incomplete: missing %s",
		strings.Join(e.Missing, ", "),
	)
}

// IsConfigError reports whether err (or any error in its chain) is a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// ConnectionError indicates the transport connection could not be
// established or authenticated.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err (or any error in its chain) is a
// ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// ProtocolError indicates the server rejected a command after a successful
// connection (SELECT, SEARCH, FETCH, or an SMTP transaction step).
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err (or any error in its chain) is a
// ProtocolError.
func IsProtocolError(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}

// validateCredentials checks completeness and returns a ConfigError naming
// every missing field.
func validateCredentials(host, port, user, pass string) error {
	var missing []string
	if host == "" {
		missing = append(missing, "host")
	}
	if port == "" {
		missing = append(missing, "port")
	}
	if user == "" {
		missing = append(missing, "user")
	}
	if pass == "" {
		missing = append(missing, "pass")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}
