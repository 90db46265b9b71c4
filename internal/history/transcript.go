package history

import (
	"strings"

	"github.com/edgard/resumobot/internal/database"
)

// Formats used by the transcript encoder. Dates appear once per date change;
// message times carry minute resolution only, to keep token volume down.
const (
	transcriptDateFormat = "2006-01-02"
	transcriptTimeFormat = "15:04"
)

// xmlEscaper escapes the characters that would be structurally ambiguous
// inside the transcript markup.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Render encodes an ascending, deduplicated message window into the compact
// structured form handed to the summarizer:
//
//	<logs>
//	<date>2025-01-01</date>
//	<m t="09:30" u="alice">hello</m>
//	</logs>
//
// A date marker is emitted only when the date component changes relative to
// the previous record; ascending input guarantees at most one marker per
// distinct date. The encoding is lossless with respect to order, date
// grouping, author, minute-resolution time, and text content.
func Render(messages []database.StoredMessage) string {
	var sb strings.Builder
	sb.WriteString("<logs>\n")

	prevDate := ""
	for _, m := range messages {
		ts := m.OccurredAt.UTC()

		date := ts.Format(transcriptDateFormat)
		if date != prevDate {
			sb.WriteString("<date>")
			sb.WriteString(date)
			sb.WriteString("</date>\n")
			prevDate = date
		}

		sb.WriteString(`<m t="`)
		sb.WriteString(ts.Format(transcriptTimeFormat))
		sb.WriteString(`" u="`)
		sb.WriteString(xmlEscaper.Replace(m.AuthorName))
		sb.WriteString(`">`)
		sb.WriteString(xmlEscaper.Replace(m.Text))
		sb.WriteString("</m>\n")
	}

	sb.WriteString("</logs>")
	return sb.String()
}
