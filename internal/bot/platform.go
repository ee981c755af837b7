package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"despawner/internal/config"
	"despawner/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

// discordPlatform carries out engine actions through the REST API. Every
// call is made once; errors are classified, never retried.
type discordPlatform struct {
	session *discordgo.Session
	colors  config.EmbedColors
}

func (p *discordPlatform) BanMember(ctx context.Context, guildID, memberID, reason string) error {
	if err := p.session.GuildBanCreateWithReason(guildID, memberID, reason, 0, discordgo.WithContext(ctx)); err != nil {
		return classify("ban member", err)
	}
	return nil
}

func (p *discordPlatform) SendDirectMessage(ctx context.Context, memberID, text string) error {
	channel, err := p.session.UserChannelCreate(memberID, discordgo.WithContext(ctx))
	if err != nil {
		return classify("open dm", err)
	}
	if _, err := p.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx)); err != nil {
		return classify("send dm", err)
	}
	return nil
}

func (p *discordPlatform) SendChannelMessage(ctx context.Context, channelID string, notice moderation.Notice) error {
	if _, err := p.session.ChannelMessageSendEmbed(channelID, noticeEmbed(notice, p.colors), discordgo.WithContext(ctx)); err != nil {
		return classify("send notice", err)
	}
	return nil
}

// classify maps a discordgo error onto the engine's failure kinds.
func classify(op string, err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil && rest.Message.Code == discordgo.ErrCodeMissingPermissions {
			return fmt.Errorf("%s: %w", op, moderation.ErrForbidden)
		}
		if rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%s: %w", op, moderation.ErrForbidden)
		}
	}
	return &moderation.PlatformError{Op: op, Err: err}
}
