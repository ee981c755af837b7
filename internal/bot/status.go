package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// presences lists the rotating bot statuses. The first one shows the ban
// counter.
func presences(bans int64) []*discordgo.Activity {
	return []*discordgo.Activity{
		{Type: discordgo.ActivityTypeGame, Name: fmt.Sprintf("with the souls of %d banned spawnists", bans)},
		{Type: discordgo.ActivityTypeListening, Name: "to ban appeals"},
		{Type: discordgo.ActivityTypeGame, Name: "Respawn Protection"},
		{Type: discordgo.ActivityTypeGame, Name: "Escape From Banland"},
	}
}

func (b *Bot) rotatePresence(every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	next := 0
	for {
		activities := presences(b.bans.Current(context.Background()))
		activity := activities[next%len(activities)]
		next++
		err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
			Activities: []*discordgo.Activity{activity},
			Status:     string(discordgo.StatusOnline),
		})
		if err != nil {
			b.logger.Debug("presence update failed", zap.Error(err))
		}

		select {
		case <-b.stop:
			return
		case <-ticker.C:
		}
	}
}
