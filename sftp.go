package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

type SFTPConnectorFactory struct{}

func (f *SFTPConnectorFactory) Accept(u *url.URL) bool { return u.Scheme == "sftp" }

func (f *SFTPConnectorFactory) Create(ctx context.Context, p dialParams) (Connector, error) {
	c, err := NewSFTPConnector(ctx, p)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (f *SFTPConnectorFactory) Name() string { return "sftp" }

type SFTPConnector struct {
	client *sftp.Client
	// conn is the transport under client, nil when client runs over a pipe
	conn     io.Closer
	deadline *deadlineConn
	creds    *Credentials
	closed   bool
}

func NewSFTPConnector(ctx context.Context, p dialParams) (*SFTPConnector, error) {
	user := p.URL.User.Username()
	if user == "" {
		return nil, fmt.Errorf("sftp needs a user name")
	}

	verifier, err := newHostKeyVerifier(p.Prompter, p.Log)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(string(p.Password)),
		},
		HostKeyCallback: verifier.Check,
		Timeout:         p.Timeout,
	}

	dialer := net.Dialer{Timeout: p.Timeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", p.URL.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", p.URL.Host, err)
	}
	netConn := newDeadlineConn(rawConn, p.Timeout)

	end := netConn.begin()
	// The operator may take longer than the timeout to answer about the host key.
	verifier.suspend = func() func() {
		end()
		return func() { end = netConn.begin() }
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, p.URL.Host, config)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("ssh handshake failed: %w", err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
	}
	end()

	passwordCopy := make([]byte, len(p.Password))
	copy(passwordCopy, p.Password)

	conn := newSFTPConnector(client, sshClient, netConn, &Credentials{username: user, password: passwordCopy})
	wd, _ := conn.CurrentDirectory()
	p.Log.Info("Logged in", zap.String("user", user), zap.String("current_directory", wd))
	return conn, nil
}

func newSFTPConnector(client *sftp.Client, conn io.Closer, deadline *deadlineConn, creds *Credentials) *SFTPConnector {
	return &SFTPConnector{client: client, conn: conn, deadline: deadline, creds: creds}
}

// guard bounds one request by the idle timeout of the transport.
func (s *SFTPConnector) guard() func() {
	if s.deadline == nil {
		return func() {}
	}
	return s.deadline.begin()
}

func (s *SFTPConnector) ListDirectory(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		path = "."
	}
	defer s.guard()()
	infos, err := s.client.ReadDir(path)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(infos))
	for _, fi := range infos {
		if fi.Name() == "." || fi.Name() == ".." {
			continue
		}
		lines = append(lines, formatFileInfo(fi))
	}
	return lines, nil
}

func (s *SFTPConnector) RetrieveBinary(ctx context.Context, remotePath string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.guard()()
	f, err := s.client.Open(remotePath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	return nil
}

func (s *SFTPConnector) CurrentDirectory() (string, error) {
	defer s.guard()()
	return s.client.Getwd()
}

func (s *SFTPConnector) IsAuthenticated() bool {
	return !s.closed
}

func (s *SFTPConnector) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.creds != nil {
		s.creds.Clear()
	}
	err := s.client.Close()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// formatFileInfo renders fi as a Unix-style listing line.
func formatFileInfo(fi os.FileInfo) string {
	mode := fi.Mode()
	kind := '-'
	switch {
	case mode.IsDir():
		kind = 'd'
	case mode&os.ModeSymlink != 0:
		kind = 'l'
	case !mode.IsRegular():
		kind = '?'
	}

	owner, group := "owner", "group"
	if st, ok := fi.Sys().(*sftp.FileStat); ok {
		owner = strconv.FormatUint(uint64(st.UID), 10)
		group = strconv.FormatUint(uint64(st.GID), 10)
	}

	return fmt.Sprintf("%c%s 1 %s %s %d %s %s",
		kind, mode.Perm().String()[1:], owner, group, fi.Size(), fi.ModTime().Format("Jan 02 15:04"), fi.Name())
}
