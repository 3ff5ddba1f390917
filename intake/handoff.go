package intake

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/learnercloudtech/Karunya-Kripa/client"
)

// HandoffReminder is shown next to the hand-off link: the link carries text
// only, so the media has to be attached by hand.
const HandoffReminder = "Please remember to attach the photo/video for this report."

// Handoff is a pre-filled message for the rescue team's WhatsApp number.
type Handoff struct {
	Message string
	URL     string
}

// BuildHandoff formats r as a WhatsApp click-to-chat link for number.
func BuildHandoff(number string, r client.NewReport) Handoff {
	lines := []string{
		"--- INCIDENT REPORT ---",
		"*Type:* " + r.Type.Title(),
		"*Name:* " + r.ReporterName,
		"*Phone:* " + r.ReporterPhone,
		"*Location:* " + r.Location,
		"*Map Link:* " + r.Coordinates.MapsLink(),
		"*Description:*",
		r.Description,
		"--- AI ASSESSMENT ---",
		"*Priority:* " + r.AIPriority,
		"*Justification:* " + r.AIJustification,
		"*" + HandoffReminder + "*",
	}

	// Leading indentation and blank lines are dropped so the chat app
	// renders the block flush left.
	var out []string
	for _, l := range strings.Split(strings.Join(lines, "\n"), "\n") {
		l = strings.TrimLeftFunc(l, unicode.IsSpace)
		if l != "" {
			out = append(out, strings.TrimRightFunc(l, unicode.IsSpace))
		}
	}
	msg := strings.Join(out, "\n")

	return Handoff{
		Message: msg,
		URL:     "https://wa.me/" + number + "?text=" + encodeComponent(msg),
	}
}

// encodeComponent percent-encodes s for a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
