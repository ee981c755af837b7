package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"despawner/internal/config"
	"despawner/internal/dispatch"
	"despawner/internal/guildconfig"
	"despawner/internal/moderation"
	"despawner/internal/registry"
	"despawner/internal/storage"
	"despawner/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(list []*discordgo.ApplicationCommandInteractionDataOption) options {
	out := make(options, len(list))
	for _, opt := range list {
		out[opt.Name] = opt
	}
	return out
}

func (o options) text(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return opt.StringValue()
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	if data.Name == "ping" {
		b.handlePing(session, interaction)
		return
	}
	if interaction.GuildID == "" {
		b.respondEmbed(session, interaction, errorEmbed("Server Only", "This command can only be used in a server.", "GuildOnly", false, b.colors().Error), true)
		return
	}

	switch data.Name {
	case "config":
		if b.requirePermission(session, interaction, discordgo.PermissionAdministrator, "Administrator") {
			b.handleConfig(ctx, session, interaction, data.Options)
		}
	case "firstrun":
		if b.requirePermission(session, interaction, discordgo.PermissionBanMembers, "Ban Members") {
			b.handleFirstrun(session, interaction)
		}
	case "dryrun":
		if b.requirePermission(session, interaction, discordgo.PermissionAdministrator, "Administrator") {
			b.handleDryrun(ctx, session, interaction, optionMap(data.Options))
		}
	case "denylist":
		if b.requirePermission(session, interaction, discordgo.PermissionAdministrator, "Administrator") {
			b.handleDenylist(session, interaction, data.Options)
		}
	case "logs":
		if b.requirePermission(session, interaction, discordgo.PermissionBanMembers, "Ban Members") {
			report := b.analytics.Report(ctx, interaction.GuildID)
			b.respondEmbed(session, interaction, logsEmbed(report, b.colors().Ban), true)
		}
	case "status":
		b.handleStatus(ctx, session, interaction)
	}
}

// requirePermission checks the invoking member's resolved permissions on top
// of the command's default member permissions.
func (b *Bot) requirePermission(session *discordgo.Session, interaction *discordgo.InteractionCreate, permission int64, label string) bool {
	if interaction.Member != nil {
		perms := interaction.Member.Permissions
		if perms&discordgo.PermissionAdministrator != 0 || perms&permission != 0 {
			return true
		}
	}
	b.respondEmbed(session, interaction, errorEmbed("Permission Denied",
		fmt.Sprintf("You need %s permission to use this command.", label),
		"MissingPermissions", false, b.colors().Error), true)
	return false
}

func (b *Bot) handleConfig(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, list []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(list) == 0 {
		return
	}
	sub := list[0]
	opts := optionMap(sub.Options)
	guildID := interaction.GuildID
	colors := b.colors()

	switch sub.Name {
	case "view":
		channelID, _ := b.channels.Get(guildID)
		appeal, _ := b.appeals.Get(guildID)
		b.respondEmbed(session, interaction, configEmbed(b.configs.Get(ctx, guildID), channelID, appeal, colors.Info), true)
	case "set":
		key, value := opts.text("key"), opts.text("value")
		if err := b.configs.Update(ctx, guildID, key, value); err != nil {
			b.respondError(session, interaction, err)
			return
		}
		b.logger.Info("guild config updated", zap.String("guild_id", guildID), zap.String("key", key), zap.String("value", value))
		current, _ := b.configs.Get(ctx, guildID).Value(key)
		b.respondEmbed(session, interaction, commandEmbed("Configuration Updated",
			fmt.Sprintf("`%s` is now `%s`.", key, current), colors.Info, nil), true)
	case "channel":
		opt, ok := opts["channel"]
		if !ok {
			return
		}
		channelID, err := b.channels.Set(ctx, guildID, opt.ChannelValue(nil).ID)
		if err != nil {
			b.respondError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, commandEmbed("Configuration Updated",
			fmt.Sprintf("Ban log channel updated to: <#%s>", channelID), colors.Info, nil), true)
	case "appeal":
		link, err := b.appeals.Set(ctx, guildID, opts.text("link"))
		if err != nil {
			b.respondError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, commandEmbed("Configuration Updated",
			fmt.Sprintf("Appeal link updated to: %s", link), colors.Info, nil), true)
	}
}

func (b *Bot) handleFirstrun(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.deferResponse(session, interaction) {
		return
	}
	guildID := interaction.GuildID
	colors := b.colors()

	err := b.queue.Submit(context.Background(), dispatch.Job{
		Kind:    "firstrun",
		GuildID: guildID,
		Run: func(ctx context.Context) {
			members, err := b.guildMembers(ctx, guildID)
			if err != nil {
				b.logger.Error("member listing failed", zap.String("guild_id", guildID), zap.Error(err))
				b.followupEmbed(session, interaction, errorEmbed("Scan Failed",
					"Could not list the members of this server.", errorType(err), true, colors.Error))
				return
			}
			report, err := b.engine.Scan(ctx, guildID, members)
			embed := scanEmbed(report, colors.Summary)
			if err != nil {
				embed.Description = "Scan interrupted before every member was checked."
			}
			b.followupEmbed(session, interaction, embed)
		},
	})
	if err != nil {
		b.followupEmbed(session, interaction, errorEmbed("Scan Not Started",
			"The bot is shutting down.", "QueueClosed", false, colors.Error))
	}
}

func (b *Bot) handleDryrun(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, opts options) {
	member := moderation.SyntheticMember()
	if id := opts.text("user_id"); id != "" {
		if !utils.IsSnowflake(id) {
			b.respondEmbed(session, interaction, errorEmbed("Invalid User ID",
				"User IDs are numeric.", "InvalidValue", false, b.colors().Error), true)
			return
		}
		member.ID = id
	}
	if name := opts.text("display_name"); name != "" {
		member.DisplayName = name
	}
	if nick := opts.text("nickname"); nick != "" {
		member.Nickname = nick
	}
	if global := opts.text("global_name"); global != "" {
		member.GlobalName = global
	}

	preview := b.engine.Preview(ctx, interaction.GuildID, member)
	b.respondEmbed(session, interaction, previewEmbed(preview, b.colors().Alert), true)
}

func (b *Bot) handleDenylist(session *discordgo.Session, interaction *discordgo.InteractionCreate, list []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(list) == 0 || list[0].Name != "reload" {
		return
	}
	count, err := b.denylist.Reload()
	if err != nil {
		b.logger.Error("denylist reload failed", zap.Error(err))
		b.respondEmbed(session, interaction, errorEmbed("Reload Failed",
			"The denylist could not be read. The previous list is still active.", "DenylistParseError", true, b.colors().Error), true)
		return
	}
	b.logger.Info("denylist reloaded", zap.String("guild_id", interaction.GuildID), zap.Int("ids", count))
	b.respondEmbed(session, interaction, commandEmbed("Denylist Reloaded",
		fmt.Sprintf("%d IDs loaded.", count), b.colors().Info, nil), true)
}

func (b *Bot) handleStatus(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Bans Performed", Value: fmt.Sprint(b.bans.Current(ctx)), Inline: true},
		{Name: "IDs in List", Value: fmt.Sprint(b.denylist.Len()), Inline: true},
		{Name: "Uptime", Value: time.Since(b.startedAt).Truncate(time.Second).String(), Inline: true},
		{Name: "Latency", Value: session.HeartbeatLatency().Truncate(time.Millisecond).String(), Inline: true},
	}
	b.respondEmbed(session, interaction, commandEmbed("Despawner Status", "", b.colors().Info, fields), true)
}

func (b *Bot) handlePing(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	b.respond(session, interaction, fmt.Sprintf("Pong! %dms", session.HeartbeatLatency().Milliseconds()), true)
}

// respondError reports a failed settings change by kind.
func (b *Bot) respondError(session *discordgo.Session, interaction *discordgo.InteractionCreate, err error) {
	colors := b.colors()
	var verr *guildconfig.ValidationError
	var perr *storage.PersistenceError
	var embed *discordgo.MessageEmbed
	switch {
	case errors.As(err, &verr):
		embed = errorEmbed("Invalid Setting", fmt.Sprintf("`%s` %s.", verr.Key, verr.Reason), "ConfigValidationError", false, colors.Error)
	case errors.Is(err, registry.ErrInvalidValue):
		embed = errorEmbed("Invalid Value", "Expected a text channel or an http(s) link.", "InvalidValue", false, colors.Error)
	case errors.As(err, &perr):
		b.logger.Error("settings save failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		embed = errorEmbed("Save Failed", "The change is active but could not be saved.", "PersistenceError", true, colors.Error)
	default:
		b.logger.Error("command failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		embed = errorEmbed("Command Error", "Something went wrong.", "InternalError", true, colors.Error)
	}
	b.respondEmbed(session, interaction, embed, true)
}

func errorType(err error) string {
	var perr *moderation.PlatformError
	switch {
	case errors.Is(err, moderation.ErrForbidden):
		return "Forbidden"
	case errors.As(err, &perr):
		return "PlatformApiError"
	default:
		return "InternalError"
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func (b *Bot) deferResponse(session *discordgo.Session, interaction *discordgo.InteractionCreate) bool {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn("interaction defer failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		return false
	}
	return true
}

func (b *Bot) followupEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, err := session.FollowupMessageCreate(interaction.Interaction, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Warn("interaction followup failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
	}
}

func (b *Bot) colors() config.EmbedColors {
	return b.cfg.Notifications.EmbedColors
}
