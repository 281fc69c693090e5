package main

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/yarkm13/seviper/internal/crawl"
	"github.com/yarkm13/seviper/internal/prompt"
)

// Connector is an authenticated session on a remote server
type Connector interface {
	crawl.Session
	IsAuthenticated() bool
	// Close ends the session. Calling it more than once is safe.
	Close() error
}

// ConnectorFactory interface for creating connectors
type ConnectorFactory interface {
	Accept(u *url.URL) bool
	Create(ctx context.Context, p dialParams) (Connector, error)
	Name() string
}

// dialParams is what a factory needs to open a session
type dialParams struct {
	URL      *url.URL // scheme, host:port and user name
	Password []byte
	Timeout  time.Duration
	Log      *zap.Logger
	Prompter *prompt.Prompter // used to confirm unknown host keys
}
