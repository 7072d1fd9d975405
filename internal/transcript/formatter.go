package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/halcyonlabs/meetscribe/internal/store"
)

const transcriptTimeLayout = "2006-01-02 15:04:05"

// RenderText renders a session's placed turns as a plain-text transcript:
// a short header followed by one "[elapsed] Speaker: content" line per turn.
// meeting may be nil for sessions without a bot-backed call.
func RenderText(session *store.Session, meeting *store.Meeting, turns []store.PlacedTurn) []byte {
	lines := []string{fmt.Sprintf("Session: %s", session.DisplayName)}

	origin := session.CreatedAt
	if meeting != nil {
		origin = meeting.StartedAt
		lines = append(lines, fmt.Sprintf("Meeting: %s", meeting.MeetingURL))
		period := meeting.StartedAt.UTC().Format(transcriptTimeLayout)
		if meeting.EndedAt != nil {
			period += " ~ " + meeting.EndedAt.UTC().Format(transcriptTimeLayout)
		}
		lines = append(lines, fmt.Sprintf("Period: %s (UTC)", period))
	}
	if names := attendeeNames(turns); len(names) > 0 {
		lines = append(lines, fmt.Sprintf("Attendees: %s", strings.Join(names, ", ")))
	}
	lines = append(lines, "")

	for _, pt := range turns {
		elapsed := pt.Turn.CreatedAt.Sub(origin)
		if elapsed < 0 {
			elapsed = 0
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", formatElapsedHMS(elapsed), pt.AttendeeName, pt.Turn.Content))
	}
	return []byte(strings.Join(lines, "\n"))
}

func attendeeNames(turns []store.PlacedTurn) []string {
	seen := make(map[string]struct{}, len(turns))
	var names []string
	for _, pt := range turns {
		if pt.AttendeeName == "" {
			continue
		}
		if _, ok := seen[pt.AttendeeName]; ok {
			continue
		}
		seen[pt.AttendeeName] = struct{}{}
		names = append(names, pt.AttendeeName)
	}
	return names
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
