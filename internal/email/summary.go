// Package email renders import summary messages shared by the senders.
package email

import (
	"fmt"
	"html"
	"strings"

	"lawdesk/internal/domain"
)

// Summary is a rendered import summary message.
type Summary struct {
	Subject string
	Text    string
	HTML    string
}

// maxListedErrors caps the errors quoted in a message body.
const maxListedErrors = 10

// BuildSummary renders the summary of result for the named recipient.
func BuildSummary(toName string, result *domain.UploadResult) Summary {
	subject := fmt.Sprintf("Client import finished: %d clients, %d contacts created",
		result.ClientsCreated, result.ContactsCreated)
	if len(result.Errors) > 0 {
		subject = fmt.Sprintf("Client import finished with %d errors", len(result.Errors))
	}

	counts := [][2]string{
		{"Groups created", fmt.Sprint(result.GroupsCreated)},
		{"Groups existing", fmt.Sprint(result.GroupsExisting)},
		{"Clients created", fmt.Sprint(result.ClientsCreated)},
		{"Clients existing", fmt.Sprint(result.ClientsExisting)},
		{"Contacts created", fmt.Sprint(result.ContactsCreated)},
		{"Contacts skipped", fmt.Sprint(result.ContactsSkipped)},
		{"Warnings", fmt.Sprint(len(result.Warnings))},
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nYour client import %s has finished.\n\n", toName, result.ImportID)
	for _, c := range counts {
		fmt.Fprintf(&text, "%s: %s\n", c[0], c[1])
	}

	var rows strings.Builder
	for _, c := range counts {
		fmt.Fprintf(&rows, `<tr><td style="padding: 4px 12px 4px 0;">%s</td><td>%s</td></tr>`, c[0], c[1])
	}

	var errList strings.Builder
	if n := len(result.Errors); n > 0 {
		fmt.Fprintf(&text, "\nErrors (%d):\n", n)
		errList.WriteString(`<h3 style="color: #B91C1C;">Errors</h3><ul>`)
		for i, e := range result.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(&text, "... and %d more\n", n-maxListedErrors)
				fmt.Fprintf(&errList, "<li>... and %d more</li>", n-maxListedErrors)
				break
			}
			line := e.Message
			if e.Row > 0 {
				line = fmt.Sprintf("Row %d: %s", e.Row, e.Message)
			}
			fmt.Fprintf(&text, "- %s\n", line)
			fmt.Fprintf(&errList, "<li>%s</li>", html.EscapeString(line))
		}
		errList.WriteString("</ul>")
	}

	link := ""
	if result.ResultsURL != "" {
		fmt.Fprintf(&text, "\nDownload the full results: %s\n", result.ResultsURL)
		link = fmt.Sprintf(`<p><a href="%s">Download the full results</a></p>`, html.EscapeString(result.ResultsURL))
	}
	text.WriteString("\nLawdesk")

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Client import finished</h2>
  <p>Hi %s,</p>
  <p>Your client import <code>%s</code> has finished.</p>
  <table>%s</table>
  %s
  %s
</body>
</html>`, html.EscapeString(toName), html.EscapeString(result.ImportID), rows.String(), errList.String(), link)

	return Summary{Subject: subject, Text: text.String(), HTML: body}
}
