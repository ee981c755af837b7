package bot

import (
	"despawner/internal/guildconfig"

	"github.com/bwmarrin/discordgo"
)

var (
	adminPermission = int64(discordgo.PermissionAdministrator)
	banPermission   = int64(discordgo.PermissionBanMembers)
	dmAllowed       = false
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	keyChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(guildconfig.Keys))
	for _, key := range guildconfig.Keys {
		keyChoices = append(keyChoices, &discordgo.ApplicationCommandOptionChoice{Name: key, Value: key})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "config",
			Description:              "Configuration commands",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dmAllowed,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "view",
					Description: "Show this server's moderation settings",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Change a moderation setting",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "key",
							Description: "Setting to change",
							Required:    true,
							Choices:     keyChoices,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "value",
							Description: "auto, notify, ignore or true/false",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "channel",
					Description: "Set output channel for ban logs",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "Channel for ban logs and staff alerts",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "appeal",
					Description: "Set appeal link for this server",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "link",
							Description: "Link sent to banned members",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:                     "firstrun",
			Description:              "Bans all applicable users",
			DefaultMemberPermissions: &banPermission,
			DMPermission:             &dmAllowed,
		},
		{
			Name:                     "dryrun",
			Description:              "Test ban behavior without actually banning anyone",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dmAllowed,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "user_id", Description: "User ID to test"},
				{Type: discordgo.ApplicationCommandOptionString, Name: "display_name", Description: "Display name to test"},
				{Type: discordgo.ApplicationCommandOptionString, Name: "nickname", Description: "Nickname to test"},
				{Type: discordgo.ApplicationCommandOptionString, Name: "global_name", Description: "Global name to test"},
			},
		},
		{
			Name:                     "denylist",
			Description:              "Manage the ID denylist",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dmAllowed,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reload",
					Description: "Reload the denylist from disk",
				},
			},
		},
		{
			Name:                     "logs",
			Description:              "Show moderation actions from the last 24 hours",
			DefaultMemberPermissions: &banPermission,
			DMPermission:             &dmAllowed,
		},
		{
			Name:        "status",
			Description: "Show bot status",
		},
		{
			Name:        "ping",
			Description: "Check bot latency",
		},
	}
}

// registerCommands creates or updates the global commands and removes stale
// ones.
func (b *Bot) registerCommands() error {
	commands := commandDefinitions()

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
