package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// scriptedSession answers listings from a map and records every call.
type scriptedSession struct {
	listings   map[string][]string
	listErrs   map[string]error
	files      map[string]string
	retrErrs   map[string]error
	listCalls  []string
	retrCalls  []string
	currentDir string
}

func newScriptedSession() *scriptedSession {
	return &scriptedSession{
		listings: map[string][]string{},
		listErrs: map[string]error{},
		files:    map[string]string{},
		retrErrs: map[string]error{},
	}
}

func (s *scriptedSession) ListDirectory(_ context.Context, path string) ([]string, error) {
	s.listCalls = append(s.listCalls, path)
	if err, ok := s.listErrs[path]; ok {
		return nil, err
	}
	return s.listings[path], nil
}

func (s *scriptedSession) RetrieveBinary(_ context.Context, remotePath string, w io.Writer) error {
	s.retrCalls = append(s.retrCalls, remotePath)
	if err, ok := s.retrErrs[remotePath]; ok {
		return err
	}
	content, ok := s.files[remotePath]
	if !ok {
		return fmt.Errorf("550 %s: no such file", remotePath)
	}
	_, err := io.Copy(w, strings.NewReader(content))
	return err
}

func (s *scriptedSession) CurrentDirectory() (string, error) {
	return s.currentDir, nil
}

// recordingFetcher remembers which paths it was asked for.
type recordingFetcher struct {
	calls []string
	fail  map[string]bool
}

func (f *recordingFetcher) Fetch(_ context.Context, _ Session, fullPath string) (Result, error) {
	f.calls = append(f.calls, fullPath)
	if f.fail[fullPath] {
		return Result{Outcome: OutcomeFailed}, &TransferError{Path: fullPath, Err: errors.New("426 transfer aborted")}
	}
	return Result{Outcome: OutcomeFetched, Bytes: 1}, nil
}

func dirLine(name string) string  { return "drwxr-xr-x 1 owner group 0 Jan 02 15:04 " + name }
func linkLine(name string) string { return "lrwxrwxrwx 1 owner group 0 Jan 02 15:04 " + name }
func fileLine(name string) string { return "-rw-r--r-- 1 owner group 12 Jan 02 15:04 " + name }
