// Package jira extracts and formats Jira ticket references.
//
// The orchestration engines carry ticket IDs through branch names,
// commit subjects and PR bodies; this package owns the parsing rules
// so they stay consistent everywhere.
package jira

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Ticket errors.
var (
	ErrNoTicket         = errors.New("no jira ticket found")
	ErrTicketKeyInvalid = errors.New("invalid jira ticket key format")
)

var (
	leadingTicketRe = regexp.MustCompile(`^([A-Z]+-\d+)`)
	anyTicketRe     = regexp.MustCompile(`\b([A-Z]+-\d+)\b`)
	browseRe        = regexp.MustCompile(`/browse/([A-Z]+-\d+)`)
	exactTicketRe   = regexp.MustCompile(`^[A-Z]+-\d+$`)
)

// ExtractTicketID returns the ticket key at the start of s, typically a
// branch name or commit subject: "PROJ-123-fix-login" -> "PROJ-123".
// Returns ErrNoTicket when s does not lead with a ticket key.
func ExtractTicketID(s string) (string, error) {
	m := leadingTicketRe.FindStringSubmatch(s)
	if m == nil {
		return "", ErrNoTicket
	}
	return m[1], nil
}

// FindTicketID returns the first ticket key anywhere in s, or "" when
// none is present.
func FindTicketID(s string) string {
	m := anyTicketRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// ValidTicketID reports whether s is exactly a ticket key.
func ValidTicketID(s string) bool {
	return exactTicketRe.MatchString(s)
}

// BrowseURL builds the web URL for a ticket on the given Jira instance.
func BrowseURL(baseURL, ticketID string) (string, error) {
	if !ValidTicketID(ticketID) {
		return "", fmt.Errorf("%w: %q", ErrTicketKeyInvalid, ticketID)
	}
	return fmt.Sprintf("%s/browse/%s", strings.TrimSuffix(baseURL, "/"), ticketID), nil
}

// TicketFromURL extracts the ticket key from a browse URL, or "" when
// the URL is not a ticket link.
func TicketFromURL(url string) string {
	m := browseRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// ProjectKey returns the project portion of a ticket key:
// "PROJ-123" -> "PROJ".
func ProjectKey(ticketID string) (string, error) {
	if !ValidTicketID(ticketID) {
		return "", fmt.Errorf("%w: %q", ErrTicketKeyInvalid, ticketID)
	}
	return ticketID[:strings.IndexByte(ticketID, '-')], nil
}
