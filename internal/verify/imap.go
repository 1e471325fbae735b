// Package verify checks IMAP credentials before an account is submitted
// to the backend.
package verify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/onebox/internal/model"
)

var (
	ErrHostRequired     = errors.New("imap host is required")
	ErrUsernameRequired = errors.New("username is required")
)

// AuthError indicates the IMAP server rejected the credentials.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IMAPVerifier logs in and out of the draft's IMAP server.
type IMAPVerifier struct{}

// Verify dials the server described by d and performs LOGIN followed by
// LOGOUT. It returns ctx.Err() if ctx finishes first.
func (IMAPVerifier) Verify(ctx context.Context, d model.AccountDraft) error {
	host := strings.TrimSpace(d.Host)
	if host == "" {
		return ErrHostRequired
	}
	if strings.TrimSpace(d.Username) == "" {
		return ErrUsernameRequired
	}

	port := d.Port
	if port <= 0 {
		port = model.DefaultIMAPPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	// Closing the connection unblocks every read and write of the login.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err = login(ctx, conn, host, d.Username, d.Password, d.UseSSL)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func login(ctx context.Context, conn net.Conn, host, username, password string, useSSL bool) error {
	addr := conn.RemoteAddr().String()

	var client *imapclient.Client
	if useSSL {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: host, NextProtos: []string{"imap"}})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return fmt.Errorf("connecting to IMAP %s: %w", addr, err)
		}
		client = imapclient.New(tlsConn, nil)
	} else {
		var err error
		client, err = imapclient.NewStartTLS(conn, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: host},
		})
		if err != nil {
			return fmt.Errorf("connecting to IMAP %s: %w", addr, err)
		}
	}
	defer client.Close()

	if err := client.Login(username, password).Wait(); err != nil {
		return &AuthError{Username: username, Err: err}
	}

	return client.Logout().Wait()
}
