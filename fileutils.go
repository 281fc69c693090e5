package main

import (
	"net/url"

	"github.com/yarkm13/seviper/internal/prompt"
)

// confirmTarget asks the operator before anything is written.
func confirmTarget(p *prompt.Prompter, source *url.URL, location string) (bool, error) {
	return p.Confirm("\nFiles from " + source.Redacted() + " will be saved to " + location + ". Do you want to continue?")
}
