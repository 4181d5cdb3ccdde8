// Package validation checks caller-supplied URLs before any model or
// storage backend sees them.
package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"
)

// URLValidator handles URL validation logic
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageURL checks that imageURL is an absolute http(s) URL a vision
// model can fetch.
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	_, err := v.parse(imageURL, "URL")
	return err
}

// ValidateEndpoint checks a caller-supplied custom model endpoint. Unlike
// image URLs, an endpoint may not carry credentials in its user info.
func (v *URLValidator) ValidateEndpoint(endpoint string) error {
	u, err := v.parse(endpoint, "Endpoint")
	if err != nil {
		return err
	}
	if u.User != nil {
		return apperrors.NewValidationError("Endpoint must not embed credentials", nil)
	}
	return nil
}

func (v *URLValidator) parse(raw, label string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewValidationError(label+" cannot be empty", nil)
	}

	parsedURL, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid "+label+" format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return nil, apperrors.NewValidationError(label+" scheme not allowed", nil)
	}

	if parsedURL.Hostname() == "" {
		return nil, apperrors.NewValidationError(label+" must have a valid host", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return nil, apperrors.NewValidationError(label+" host not allowed", nil)
	}

	return parsedURL, nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
