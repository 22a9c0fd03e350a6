package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/tvtracker/tvtracker/internal/notification"
	"github.com/tvtracker/tvtracker/internal/shows"
)

// BuildMessage renders the alert for the upcoming episode of show.
func BuildMessage(show *shows.Show, episode *shows.Episode, to []string, lead time.Duration) notification.Message {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("%s starts in less than %s", show.Name, humanizeLead(lead)))
	if show.Network != "" {
		body.WriteString(" on " + show.Network)
	}
	body.WriteString(".\n\n")
	body.WriteString(fmt.Sprintf("Episode %d Overview\n\n", episode.EpisodeNumber))
	body.WriteString(episode.Overview)

	return notification.Message{
		To:      to,
		Subject: show.Name + " is starting soon!",
		Body:    body.String(),
	}
}
