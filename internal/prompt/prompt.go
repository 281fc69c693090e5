// Package prompt asks the operator for connection details, the download
// filter and the traversal depth. Every question is retried a bounded number
// of times.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// MaxAttempts bounds how often a question is repeated after bad input.
	MaxAttempts = 5
	// DefaultDepth is used when the operator just presses enter.
	DefaultDepth = 3
	// ConfirmDepthAbove is the depth from which an explicit confirmation is needed.
	ConfirmDepthAbove = 15
)

// ErrTooManyAttempts is returned when the operator kept giving invalid answers.
var ErrTooManyAttempts = errors.New("too many invalid answers")

const extensionExamples = `
    .txt  - Plain text file.
    .jpg  - JPEG image file.
    .pdf  - PDF document (Portable Document Format).
    .docx - Microsoft Word document.
    .xlsx - Microsoft Excel spreadsheet.
    .mp3  - MP3 audio file.
    .mp4  - MP4 video file.
    .zip  - ZIP compressed file.
    .html - HTML file for web pages.
    .exe  - Executable file for Windows systems.
`

// Connection is what the operator typed to reach the server.
type Connection struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in           *bufio.Reader
	out          io.Writer
	log          *zap.Logger
	readPassword func() ([]byte, error)
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithPasswordReader replaces the plain line read used for passwords, e.g.
// with a terminal read that does not echo.
func WithPasswordReader(fn func() ([]byte, error)) Option {
	return func(p *Prompter) {
		p.readPassword = fn
	}
}

// New returns a Prompter.
func New(in io.Reader, out io.Writer, log *zap.Logger, opts ...Option) *Prompter {
	p := &Prompter{
		in:  bufio.NewReader(in),
		out: out,
		log: log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DownloadFilter asks whether a specific extension should be downloaded and,
// if so, which one. The extension is used verbatim.
func (p *Prompter) DownloadFilter() (downloadAll bool, extension string, err error) {
	kind, err := p.ask("Which extension kind for download you wish? Type 0 (for no) or 1 (for yes): ")
	if err != nil {
		return false, "", err
	}
	if kind != "1" {
		p.log.Info("No specific extension selected.")
		return true, "", nil
	}

	fmt.Fprintf(p.out, "Please specify the desired extension type. Available examples:\n%s", extensionExamples)
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		extension, err = p.ask("Enter the desired extension (e.g., .txt): ")
		if err != nil {
			return false, "", err
		}
		if extension != "" {
			p.log.Info("Extension chosen", zap.String("extension", extension))
			return false, extension, nil
		}
		p.log.Info("An extension is required when downloading a specific kind.")
	}
	return false, "", ErrTooManyAttempts
}

// Connection asks for host, port and optional credentials. An empty or
// invalid port falls back to defaultPort.
func (p *Prompter) Connection(defaultPort int) (Connection, error) {
	var conn Connection
	fmt.Fprintln(p.out, "Fill in the following information to initiate the connection:")

	host, err := p.Host()
	if err != nil {
		return conn, err
	}
	conn.Host = host

	portStr, err := p.ask(fmt.Sprintf("Connection port (default is %d): ", defaultPort))
	if err != nil {
		return conn, err
	}
	conn.Port = defaultPort
	if portStr != "" {
		port, convErr := strconv.Atoi(portStr)
		if convErr != nil || port <= 0 || port > 65535 {
			p.log.Info("Port must be a number. Using default", zap.Int("port", defaultPort))
		} else {
			conn.Port = port
		}
	}

	fmt.Fprintln(p.out, "Fill in credentials, leave blank if not applicable:")
	if conn.User, err = p.ask("Access username: "); err != nil {
		return conn, err
	}
	if conn.Password, err = p.Password("Access password: "); err != nil {
		return conn, err
	}
	return conn, nil
}

// Host asks for the mandatory host address.
func (p *Prompter) Host() (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		host, err := p.ask("Host address (e.g., ftp.example.com): ")
		if err != nil {
			return "", err
		}
		if host != "" {
			return host, nil
		}
		p.log.Info("Host address is mandatory.")
	}
	return "", ErrTooManyAttempts
}

// Password asks for a password, without echo when a password reader is set.
func (p *Prompter) Password(question string) (string, error) {
	if p.readPassword == nil {
		return p.ask(question)
	}
	fmt.Fprint(p.out, question)
	pw, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

// MaxDepth asks for the traversal depth. Empty input means DefaultDepth.
// Values above ConfirmDepthAbove need confirmation: "1" accepts, "2" asks for
// a new depth, any other number proceeds with the entered depth anyway.
func (p *Prompter) MaxDepth() (int, error) {
	fmt.Fprintf(p.out, "Please enter the navigation depth level (default is level %d).\n"+
		"WARNING: Higher numbers increase the risk of connection overload and storage usage.\n", DefaultDepth)

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		answer, err := p.ask("Please enter the depth level of navigation: ")
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return DefaultDepth, nil
		}
		depth, convErr := strconv.Atoi(answer)
		if convErr != nil || depth < 0 {
			p.log.Info("Invalid input, please respond with a valid number.")
			continue
		}
		if depth <= ConfirmDepthAbove {
			return depth, nil
		}

		answer, err = p.ask(fmt.Sprintf("Are you sure about this level? Greater than %d? Type '1' for Yes, '2' for No: ", ConfirmDepthAbove))
		if err != nil {
			return 0, err
		}
		confirmation, convErr := strconv.Atoi(answer)
		if convErr != nil {
			p.log.Info("Invalid input, please respond with a valid number.")
			continue
		}
		switch confirmation {
		case 1:
			return depth, nil
		case 2:
			p.log.Info("Please enter a depth level again.")
		default:
			p.log.Info("Unrecognised confirmation, proceeding with the entered depth", zap.Int("depth", depth))
			return depth, nil
		}
	}
	return 0, ErrTooManyAttempts
}

// Confirm asks a yes/no question; only "y" and "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.ask(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
