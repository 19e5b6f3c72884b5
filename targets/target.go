package targets

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/marcelsud/hookwatch/signature"
)

/* Target is a named replay destination
 * Lets operators replay to "staging" instead of typing a URL each time
 */
type Target struct {
	Name                   string
	URL                    string
	IncludeOriginalHeaders bool
	Headers                map[string]string // defaults, overridden by a replay's own headers
	SigningSecret          string            // Standard Webhooks secret (whsec_ prefix), optional
}

// Signed reports whether replays to this target carry Standard Webhooks signatures
func (t *Target) Signed() bool {
	return t.SigningSecret != ""
}

// Validate checks if the target configuration is valid
func (t *Target) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if err := ValidateURL(t.URL); err != nil {
		return fmt.Errorf("invalid url for target %s: %w", t.Name, err)
	}
	for name := range t.Headers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("header names cannot be empty for target %s", t.Name)
		}
	}
	if t.SigningSecret != "" {
		if _, err := signature.ParseSecret(t.SigningSecret); err != nil {
			return fmt.Errorf("invalid signing_secret for target %s: %w", t.Name, err)
		}
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs only
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	return nil
}
