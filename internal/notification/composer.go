// Package notification composes and dispatches department emails for newly
// filed complaints.
package notification

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/classifier"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// locationNotProvided is the explicit marker rendered when the submitter left
// the optional location blank.
const locationNotProvided = "Not provided"

// ComplaintFields carries the free-text submission fields into the composer.
type ComplaintFields struct {
	Description   string
	Cause         string
	Impact        string
	Location      string
	ProofImageURL string
}

// DisplayID returns the stable short form of a complaint id used in email
// subjects and bodies.
func DisplayID(complaintID string) string {
	trimmed := strings.ReplaceAll(complaintID, "-", "")
	if len(trimmed) <= 8 {
		return strings.ToUpper(trimmed)
	}
	return strings.ToUpper(trimmed[len(trimmed)-8:])
}

// ComposeSubject builds the notification subject line.
func ComposeSubject(complaintID string, routing classifier.Routing) string {
	return fmt.Sprintf("New Citizen Complaint #%s - %s", DisplayID(complaintID), routing.DepartmentName)
}

// ComposeDepartmentEmail deterministically renders the HTML body announced to
// the routed department. The same inputs always produce the same output, so
// the stored body and the later-sent body can be proven identical.
func ComposeDepartmentEmail(complaintID string, submitter *domain.User, fields ComplaintFields, routing classifier.Routing, submittedAt time.Time) string {
	location := strings.TrimSpace(fields.Location)
	if location == "" {
		location = locationNotProvided
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<h2>New Complaint #%s</h2>", DisplayID(complaintID)))
	b.WriteString(fmt.Sprintf("<p>A new complaint has been filed and routed to <strong>%s</strong>.</p>", html.EscapeString(routing.DepartmentName)))
	b.WriteString("<h3>Complaint Details</h3><ul>")
	b.WriteString(fmt.Sprintf("<li><strong>Reference:</strong> %s</li>", html.EscapeString(complaintID)))
	b.WriteString(fmt.Sprintf("<li><strong>Submitted:</strong> %s</li>", submittedAt.UTC().Format(time.RFC1123)))
	b.WriteString(fmt.Sprintf("<li><strong>Classification:</strong> %s</li>", html.EscapeString(routing.Intent)))
	b.WriteString(fmt.Sprintf("<li><strong>Description:</strong> %s</li>", html.EscapeString(fields.Description)))
	b.WriteString(fmt.Sprintf("<li><strong>Cause:</strong> %s</li>", html.EscapeString(fields.Cause)))
	b.WriteString(fmt.Sprintf("<li><strong>Impact:</strong> %s</li>", html.EscapeString(fields.Impact)))
	b.WriteString(fmt.Sprintf("<li><strong>Location:</strong> %s</li>", html.EscapeString(location)))
	b.WriteString("</ul>")
	b.WriteString("<h3>Submitted By</h3><ul>")
	b.WriteString(fmt.Sprintf("<li><strong>Name:</strong> %s</li>", html.EscapeString(submitter.Username)))
	b.WriteString(fmt.Sprintf("<li><strong>Contact:</strong> %s</li>", html.EscapeString(submitter.Email)))
	b.WriteString("</ul>")
	b.WriteString(fmt.Sprintf(`<p><a href="%s">Proof image</a></p>`, fields.ProofImageURL))
	b.WriteString("</body></html>")
	return b.String()
}
