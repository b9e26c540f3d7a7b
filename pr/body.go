package pr

import (
	"fmt"
	"regexp"
	"strings"
)

// TypesOfChanges are the change-type checkboxes rendered into every
// generated PR body, in order.
var TypesOfChanges = []string{
	"Bugfix",
	"New feature",
	"Improvement",
	"Breaking change",
	"Documentation update",
}

var (
	browseTicketRe = regexp.MustCompile(`/browse/([A-Z]+-\d+)`)
	checkboxRe     = regexp.MustCompile(`^\s*-\s*\[([ xX])\]\s*(.+?)\s*$`)
)

// Metadata is the structured information carried in a generated PR body.
type Metadata struct {
	TicketID    string // Jira ticket, e.g. "PROJ-123"
	Description string // Short description text
	ChangeTypes []bool // Checked state per TypesOfChanges entry
}

// BuildBody renders the standard PR body from metadata. jiraURL is the
// Jira base URL ("https://company.atlassian.net"); when the ticket is
// unknown the Jira Link section is omitted.
func BuildBody(meta Metadata, jiraURL string) string {
	var b strings.Builder

	if meta.TicketID != "" {
		b.WriteString("#### Jira Link:\n")
		fmt.Fprintf(&b, "[%s](%s/browse/%s)\n\n",
			meta.TicketID, strings.TrimSuffix(jiraURL, "/"), meta.TicketID)
	}

	b.WriteString("#### Short description:\n")
	if meta.Description != "" {
		b.WriteString(meta.Description)
		b.WriteString("\n")
	}
	b.WriteString("\n## Types of changes\n")
	for i, label := range TypesOfChanges {
		mark := " "
		if i < len(meta.ChangeTypes) && meta.ChangeTypes[i] {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, label)
	}

	return b.String()
}

// ParseBody extracts ticket, description and change types from a PR body
// in the generated format. Missing sections leave zero values; a body
// with none of the sections yields an empty Metadata, not an error.
func ParseBody(body string) Metadata {
	return Metadata{
		TicketID:    ExtractTicketFromBody(body),
		Description: ExtractDescriptionFromBody(body),
		ChangeTypes: ParseChangeTypesFromBody(body),
	}
}

// ExtractTicketFromBody finds the Jira ticket referenced in the body's
// Jira Link section. Returns "" when no /browse/ link is present.
func ExtractTicketFromBody(body string) string {
	m := browseTicketRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractDescriptionFromBody returns the text of the "Short description"
// section, trimmed, up to the next heading.
func ExtractDescriptionFromBody(body string) string {
	lines := strings.Split(body, "\n")
	var out []string
	in := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !in {
			if strings.HasPrefix(trimmed, "#### Short description") {
				in = true
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			break
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// ParseChangeTypesFromBody reads the "Types of changes" checkboxes and
// reports the checked state per TypesOfChanges entry. Labels not in the
// known list are ignored.
func ParseChangeTypesFromBody(body string) []bool {
	checked := make([]bool, len(TypesOfChanges))
	lines := strings.Split(body, "\n")
	in := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !in {
			if strings.HasPrefix(trimmed, "## Types of changes") {
				in = true
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			break
		}
		m := checkboxRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for i, label := range TypesOfChanges {
			if strings.EqualFold(m[2], label) {
				checked[i] = m[1] != " "
			}
		}
	}
	return checked
}
