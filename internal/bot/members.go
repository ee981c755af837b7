package bot

import (
	"context"

	"despawner/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

const memberPageSize = 1000

// snapshot extracts the fields the engine checks. The account username is
// checked as the display name.
func snapshot(member *discordgo.Member) moderation.Member {
	if member == nil || member.User == nil {
		return moderation.Member{}
	}
	return moderation.Member{
		ID:          member.User.ID,
		DisplayName: member.User.Username,
		Nickname:    member.Nick,
		GlobalName:  member.User.GlobalName,
	}
}

// guildMembers pages through every member of the guild.
func (b *Bot) guildMembers(ctx context.Context, guildID string) ([]moderation.Member, error) {
	var members []moderation.Member
	after := ""
	for {
		page, err := b.session.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return members, classify("list members", err)
		}
		for _, member := range page {
			if member.User == nil {
				continue
			}
			members = append(members, snapshot(member))
			after = member.User.ID
		}
		if len(page) < memberPageSize {
			return members, nil
		}
	}
}
