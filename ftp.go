package main

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"
)

const anonymousUser = "anonymous"

type FTPConnectorFactory struct{}

func (f *FTPConnectorFactory) Accept(u *url.URL) bool {
	return u.Scheme == "ftp"
}

func (f *FTPConnectorFactory) Create(ctx context.Context, p dialParams) (Connector, error) {
	c, err := NewFTPConnector(ctx, p)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (f *FTPConnectorFactory) Name() string {
	return "ftp"
}

// ftpClient is the part of *ftp.ServerConn the connector uses.
type ftpClient interface {
	List(path string) ([]*ftp.Entry, error)
	Retr(path string) (*ftp.Response, error)
	CurrentDir() (string, error)
	Quit() error
}

type FTPConnector struct {
	client        ftpClient
	creds         *Credentials
	authenticated bool
	closed        bool
}

// NewFTPConnector dials and logs in. Without user and password it logs in
// anonymously.
func NewFTPConnector(ctx context.Context, p dialParams) (*FTPConnector, error) {
	// Control and data connections come from the same dial func, so every
	// command and transfer fails once the server is silent for p.Timeout.
	c, err := ftp.Dial(p.URL.Host,
		ftp.DialWithDialFunc(dialWithDeadline(ctx, p.Timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", p.URL.Host, err)
	}
	p.Log.Info("Connection established", zap.String("host", p.URL.Hostname()), zap.String("port", p.URL.Port()))

	user := p.URL.User.Username()
	password := string(p.Password)
	anonymous := user == "" && password == ""
	if anonymous {
		user, password = anonymousUser, anonymousUser
	}

	if err := c.Login(user, password); err != nil {
		_ = c.Quit() // Close connection on login failure
		return nil, fmt.Errorf("login failed: %w", err)
	}

	// Keep our own copy, the caller wipes its buffer.
	passwordCopy := make([]byte, len(p.Password))
	copy(passwordCopy, p.Password)

	conn := &FTPConnector{
		client:        c,
		creds:         &Credentials{username: user, password: passwordCopy},
		authenticated: true,
	}

	wd, _ := conn.CurrentDirectory()
	if anonymous {
		p.Log.Info("Anonymous login", zap.String("current_directory", wd))
	} else {
		p.Log.Info("Logged in", zap.String("user", user), zap.String("current_directory", wd))
	}
	return conn, nil
}

func (f *FTPConnector) ListDirectory(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := f.client.List(path)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		lines = append(lines, formatListLine(e))
	}
	return lines, nil
}

func (f *FTPConnector) RetrieveBinary(ctx context.Context, remotePath string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := f.client.Retr(remotePath)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(w, r)
	// Close reads the final transfer reply, which reports server-side aborts.
	closeErr := r.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

func (f *FTPConnector) CurrentDirectory() (string, error) {
	return f.client.CurrentDir()
}

func (f *FTPConnector) IsAuthenticated() bool {
	return f.authenticated && !f.closed
}

func (f *FTPConnector) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.creds != nil {
		f.creds.Clear()
	}
	return f.client.Quit()
}

// formatListLine renders a parsed entry back into a single Unix-style
// listing line, whatever format (LIST or MLSD) the server answered with.
func formatListLine(e *ftp.Entry) string {
	mode := "-rw-r--r--"
	switch e.Type {
	case ftp.EntryTypeFolder:
		mode = "drwxr-xr-x"
	case ftp.EntryTypeLink:
		mode = "lrwxrwxrwx"
	}
	return fmt.Sprintf("%s 1 owner group %d %s %s", mode, e.Size, e.Time.Format("Jan 02 15:04"), e.Name)
}
