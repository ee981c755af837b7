package bot

import (
	"fmt"
	"strings"
	"time"

	"despawner/internal/analytics"
	"despawner/internal/config"
	"despawner/internal/guildconfig"
	"despawner/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

const (
	archiveFooter = "This log will be archived after 24 hours"
	helpText      = "Contact a server administrator if this issue persists."
	fieldLimit    = 1024
)

func commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

// errorEmbed is the administrator facing failure notice. It names the error
// kind and never carries raw error text.
func errorEmbed(title, description, errorType string, showHelp bool, color int) *discordgo.MessageEmbed {
	var fields []*discordgo.MessageEmbedField
	if errorType != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Error Type", Value: "`" + errorType + "`"})
	}
	if showHelp {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Need Help?", Value: helpText})
	}
	return commandEmbed("❌ "+title, description, color, fields)
}

func noticeEmbed(notice moderation.Notice, colors config.EmbedColors) *discordgo.MessageEmbed {
	var embed *discordgo.MessageEmbed
	switch notice.Kind {
	case moderation.NoticeAlert:
		embed = commandEmbed("🔔 "+notice.Title, notice.Text, colors.Alert, nil)
	case moderation.NoticeFailure:
		embed = commandEmbed("❌ "+notice.Title, notice.Text, colors.Error, nil)
	default:
		embed = commandEmbed("🔍 "+notice.Title, notice.Text, colors.Ban, nil)
		embed.Footer = &discordgo.MessageEmbedFooter{Text: archiveFooter}
	}
	if notice.TargetID != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Target", Value: "<@" + notice.TargetID + ">", Inline: true},
			&discordgo.MessageEmbedField{Name: "Target ID", Value: notice.TargetID, Inline: true},
		)
	}
	return embed
}

func scanEmbed(report moderation.ScanReport, color int) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Users Checked", Value: fmt.Sprint(report.Checked)},
		{Name: "IDs in List", Value: fmt.Sprint(report.DenylistSize)},
		{Name: "Matches Found (ID)", Value: fmt.Sprint(len(report.IDMatches))},
		{Name: "Matched Users (ID)", Value: memberLines(report.IDMatches)},
		{Name: "Keyword Matches", Value: fmt.Sprint(len(report.KeywordMatches))},
		{Name: "Matched Users (Keyword)", Value: memberLines(report.KeywordMatches)},
		{Name: "Outcome", Value: fmt.Sprintf("Banned: %d | Notified: %d | Ignored: %d | Failed: %d",
			report.Banned, report.Notified, report.Skipped, report.Failed)},
	}
	return commandEmbed("Firstrun Summary", "Ban operation summary", color, fields)
}

func memberLines(members []moderation.Member) string {
	if len(members) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(members))
	for _, m := range members {
		lines = append(lines, fmt.Sprintf("%s (%s)", m.DisplayName, m.ID))
	}
	return truncateLines(lines, fieldLimit)
}

// truncateLines joins lines within limit bytes, replacing the lines that do
// not fit with a count.
func truncateLines(lines []string, limit int) string {
	const reserve = 32
	var sb strings.Builder
	for i, line := range lines {
		size := len(line)
		if i > 0 {
			size++
		}
		if sb.Len()+size > limit-reserve {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "… and %d more", len(lines)-i)
			return sb.String()
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func idCheckLine(p moderation.Prediction) string {
	switch p {
	case moderation.WouldBan:
		return "✅ Would ban: User ID found in banlist"
	case moderation.WouldNotify:
		return "🔔 Would notify: User ID found in banlist"
	case moderation.WouldIgnore:
		return "⏭️ Would ignore: User ID found but ignore is set"
	default:
		return "❌ Would not ban: User ID not in banlist"
	}
}

func fieldCheckLine(check moderation.FieldCheck) string {
	switch check.Prediction {
	case moderation.WouldBan:
		return fmt.Sprintf("✅ Would ban: Found '%s' in %s", check.Keyword, check.Field)
	case moderation.WouldNotify:
		return fmt.Sprintf("🔔 Would notify: Found '%s' in %s", check.Keyword, check.Field)
	case moderation.WouldIgnore:
		return fmt.Sprintf("⏭️ Would ignore: Found '%s' in %s", check.Keyword, check.Field)
	default:
		return fmt.Sprintf("❌ No banned keywords in %s", check.Field)
	}
}

func verdictLine(v moderation.Verdict) string {
	switch v.Kind {
	case moderation.IDMatch:
		return fmt.Sprintf("ID match: `%s`", v.Identifier)
	case moderation.KeywordMatch:
		return fmt.Sprintf("Keyword match: '%s' in %s", v.Keyword, v.Field)
	default:
		return "No match"
	}
}

func actionLabel(p moderation.Prediction) string {
	switch p {
	case moderation.WouldBan:
		return "ban"
	case moderation.WouldNotify:
		return "notify staff"
	case moderation.WouldIgnore:
		return "ignore"
	default:
		return "nothing"
	}
}

func previewEmbed(p moderation.Preview, color int) *discordgo.MessageEmbed {
	keywordLines := make([]string, 0, len(p.Fields))
	for _, check := range p.Fields {
		keywordLines = append(keywordLines, fieldCheckLine(check))
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Test Member", Value: fmt.Sprintf("ID: `%s`\nDisplay Name: `%s`\nNickname: `%s`\nGlobal Name: `%s`",
			p.Member.ID, p.Member.DisplayName, p.Member.Nickname, p.Member.GlobalName)},
		{Name: "ID Check", Value: idCheckLine(p.IDCheck)},
		{Name: "Keyword Check", Value: strings.Join(keywordLines, "\n")},
		{Name: "Verdict", Value: fmt.Sprintf("%s\nAction: %s", verdictLine(p.Verdict), actionLabel(p.Action))},
		{Name: "Current Configuration", Value: configLines(p.Config)},
	}
	return commandEmbed("🔍 Dry Run Results", "Testing ban behavior with mock user", color, fields)
}

func configLines(cfg guildconfig.GuildConfig) string {
	return fmt.Sprintf("ID Ban Behavior: `%s`\nKeyword Ban Behavior: `%s`\nDM on Ban: `%t`\nLog Bans: `%t`\nNotify Staff: `%t`",
		cfg.IDBanBehavior, cfg.KeywordBanBehavior, cfg.DMOnBan, cfg.LogBans, cfg.NotifyStaff)
}

func configEmbed(cfg guildconfig.GuildConfig, channelID, appeal string, color int) *discordgo.MessageEmbed {
	channel := "Not set"
	if channelID != "" {
		channel = "<#" + channelID + ">"
	}
	if appeal == "" {
		appeal = "Not set"
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Settings", Value: configLines(cfg)},
		{Name: "Log Channel", Value: channel, Inline: true},
		{Name: "Appeal Link", Value: appeal, Inline: true},
	}
	return commandEmbed("Ban Configuration", "Moderation settings for this server.", color, fields)
}

func logsEmbed(report analytics.Report, color int) *discordgo.MessageEmbed {
	embed := commandEmbed("🔍 Recent Actions", "Moderation actions from the last 24 hours.", color, nil)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: archiveFooter}
	if report.Total == 0 {
		embed.Description = "No moderation actions in the last 24 hours."
		return embed
	}

	summary := make([]string, 0, len(report.ByType))
	for _, kind := range report.Types() {
		summary = append(summary, fmt.Sprintf("%s: %d", kind, report.ByType[kind]))
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("Total: %d", report.Total),
		Value: strings.Join(summary, "\n"),
	})

	// newest first
	lines := make([]string, 0, len(report.Entries))
	for i := len(report.Entries) - 1; i >= 0; i-- {
		entry := report.Entries[i]
		lines = append(lines, fmt.Sprintf("<t:%d:R> **%s** %s", entry.Timestamp.Unix(), entry.Type, entry.Details))
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Entries", Value: truncateLines(lines, fieldLimit)})
	return embed
}
