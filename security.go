package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"

	"github.com/yarkm13/seviper/internal/prompt"
)

type Credentials struct {
	username string
	password []byte
}

func (c *Credentials) Clear() {
	secureWipe(c.password)
	c.password = nil
}

// secureWipe safely clears sensitive data from memory
// It overwrites the slice with zeros
func secureWipe(data []byte) {
	if data == nil {
		return
	}
	for i := range data {
		data[i] = 0
	}
}

// terminalPasswordReader reads a password from stdin without echoing it.
// It returns nil when stdin is not a terminal, so the prompter falls back to
// a plain line read.
func terminalPasswordReader() func() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() ([]byte, error) {
		return term.ReadPassword(fd)
	}
}

// hostKeyVerifier checks server keys against ~/.ssh/known_hosts and asks the
// operator about hosts it has never seen. Accepted fingerprints are kept for
// the rest of the run.
type hostKeyVerifier struct {
	knownHosts ssh.HostKeyCallback // nil when there is no known_hosts file
	prompter   *prompt.Prompter
	log        *zap.Logger
	// suspend, when set, pauses network timeouts while the operator is asked;
	// the returned func resumes them.
	suspend func() func()

	mu      sync.Mutex
	trusted map[string]string
}

func newHostKeyVerifier(p *prompt.Prompter, log *zap.Logger) (*hostKeyVerifier, error) {
	v := &hostKeyVerifier{prompter: p, log: log, trusted: make(map[string]string)}

	home, err := os.UserHomeDir()
	if err != nil {
		return v, nil
	}
	path := filepath.Join(home, ".ssh", "known_hosts")
	if _, err := os.Stat(path); err != nil {
		log.Debug("No known_hosts file", zap.String("path", path))
		return v, nil
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	v.knownHosts = cb
	return v, nil
}

// Check is an ssh.HostKeyCallback.
func (v *hostKeyVerifier) Check(hostname string, remote net.Addr, key ssh.PublicKey) error {
	fingerprint := ssh.FingerprintSHA256(key)

	v.mu.Lock()
	stored, exists := v.trusted[hostname]
	v.mu.Unlock()
	if exists && stored == fingerprint {
		return nil
	}

	if v.knownHosts != nil {
		err := v.knownHosts(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) {
			return err
		}
		if len(keyErr.Want) > 0 {
			v.log.Error("Host key mismatch", zap.String("host", hostname), zap.String("fingerprint", fingerprint))
			return fmt.Errorf("host key for %s does not match known_hosts: %w", hostname, err)
		}
	}

	if v.prompter == nil {
		return fmt.Errorf("host key for %s is unknown", hostname)
	}
	if v.suspend != nil {
		defer v.suspend()()
	}
	ok, err := v.prompter.Confirm(fmt.Sprintf("\nThe authenticity of host '%s' can't be established.\n"+
		"%s key fingerprint is %s\nAre you sure you want to continue connecting?", hostname, key.Type(), fingerprint))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host key verification rejected by user")
	}

	v.mu.Lock()
	v.trusted[hostname] = fingerprint
	v.mu.Unlock()
	return nil
}
