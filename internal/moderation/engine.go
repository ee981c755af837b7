package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"despawner/internal/counter"
	"despawner/internal/guildconfig"
	"despawner/internal/modules/audit"
	"despawner/internal/modules/keyword"
	"despawner/internal/registry"

	"go.uber.org/zap"
)

const (
	idBanReason      = "Despawner banned %s"
	keywordBanReason = "Banned for forbidden keyword"

	banMessage        = "You have been banned due to your alleged connection with Spawnism or forbidden content."
	banKeywordMessage = "\nBan triggered by keyword: **%s**."
	banAppealMessage  = "\nIf you believe this is a mistake, you may appeal here: %s"
)

// Denylist is the set of banned member identifiers.
type Denylist interface {
	Contains(id string) bool
	Len() int
}

type Deps struct {
	Denylist Denylist
	Keywords *keyword.Matcher
	Configs  *guildconfig.Store
	Channels *registry.Store
	Appeals  *registry.Store
	Bans     *counter.Counter
	Actions  *audit.Logger
	Platform Platform
	Logger   *zap.Logger
}

// Engine decides how to treat a member and carries out the guild's
// configured behavior.
type Engine struct {
	denylist Denylist
	keywords *keyword.Matcher
	configs  *guildconfig.Store
	channels *registry.Store
	appeals  *registry.Store
	bans     *counter.Counter
	actions  *audit.Logger
	platform Platform
	logger   *zap.Logger
	selfID   atomic.Value
}

func New(deps Deps) *Engine {
	keywords := deps.Keywords
	if keywords == nil {
		keywords = keyword.NewDefault()
	}
	e := &Engine{
		denylist: deps.Denylist,
		keywords: keywords,
		configs:  deps.Configs,
		channels: deps.Channels,
		appeals:  deps.Appeals,
		bans:     deps.Bans,
		actions:  deps.Actions,
		platform: deps.Platform,
		logger:   deps.Logger,
	}
	e.selfID.Store("")
	return e
}

// SetSelfID records the bot's own account, which is never evaluated.
func (e *Engine) SetSelfID(id string) {
	e.selfID.Store(id)
}

func (e *Engine) isSelf(id string) bool {
	self, _ := e.selfID.Load().(string)
	return self != "" && self == id
}

// DenylistSize reports how many identifiers are currently denylisted.
func (e *Engine) DenylistSize() int {
	return e.denylist.Len()
}

// Evaluate classifies the member without side effects. A denylisted
// identifier wins over any keyword; keyword fields are checked in
// display name, nickname, global name order and the first hit is returned.
func (e *Engine) Evaluate(m Member) Verdict {
	if m.ID == "" || e.isSelf(m.ID) {
		return Verdict{Kind: NoMatch}
	}
	if e.denylist.Contains(m.ID) {
		return Verdict{Kind: IDMatch, Identifier: m.ID}
	}
	for _, fv := range m.Fields() {
		if kw, ok := e.keywords.FirstMatch(fv.Text); ok {
			return Verdict{Kind: KeywordMatch, Keyword: kw, Field: fv.Field}
		}
	}
	return Verdict{Kind: NoMatch}
}

// Process evaluates the member and acts on the verdict.
func (e *Engine) Process(ctx context.Context, guildID string, m Member) (Verdict, Outcome) {
	verdict := e.Evaluate(m)
	verdictCount.WithLabelValues(verdict.Kind.String()).Inc()
	return verdict, e.Act(ctx, guildID, m, verdict)
}

// Act applies the guild's behavior for the verdict's category.
func (e *Engine) Act(ctx context.Context, guildID string, m Member, v Verdict) Outcome {
	outcome := e.act(ctx, guildID, m, v)
	outcomeCount.WithLabelValues(outcome.Kind.String(), string(outcome.Reason)).Inc()
	return outcome
}

func (e *Engine) act(ctx context.Context, guildID string, m Member, v Verdict) Outcome {
	if v.Kind == NoMatch || e.isSelf(m.ID) {
		return Outcome{Kind: Skipped}
	}

	cfg := e.configs.Get(ctx, guildID)
	behavior := cfg.IDBanBehavior
	if v.Kind == KeywordMatch {
		behavior = cfg.KeywordBanBehavior
	}

	log := e.logger.With(
		zap.String("guild_id", guildID),
		zap.String("user_id", m.ID),
		zap.String("verdict", v.Kind.String()),
		zap.String("behavior", string(behavior)),
	)

	switch behavior {
	case guildconfig.BehaviorNotify:
		if cfg.NotifyStaff {
			e.notify(ctx, guildID, Notice{
				Kind:     NoticeAlert,
				Title:    "Staff Alert",
				Text:     alertText(m, v),
				TargetID: m.ID,
			})
		}
		log.Info("member flagged for staff")
		return Outcome{Kind: Notified}
	case guildconfig.BehaviorAuto:
		return e.ban(ctx, guildID, m, v, cfg, log)
	default:
		log.Debug("match ignored")
		return Outcome{Kind: Skipped}
	}
}

func (e *Engine) ban(ctx context.Context, guildID string, m Member, v Verdict, cfg guildconfig.GuildConfig, log *zap.Logger) Outcome {
	reason := keywordBanReason
	actionType := audit.ActionKeywordBan
	if v.Kind == IDMatch {
		reason = fmt.Sprintf(idBanReason, m.ID)
		actionType = audit.ActionIDBan
	}

	if err := e.platform.BanMember(ctx, guildID, m.ID, reason); err != nil {
		outcome := Outcome{Kind: Failed, Reason: ReasonPlatformError, Detail: err.Error()}
		text := fmt.Sprintf("Could not ban member %s: the platform returned an error.", m.ID)
		if errors.Is(err, ErrForbidden) {
			outcome = Outcome{Kind: Failed, Reason: ReasonForbidden, Detail: err.Error()}
			text = fmt.Sprintf("Could not ban member %s: the bot is missing the Ban Members permission or its role is too low.", m.ID)
		}
		log.Warn("ban failed", zap.String("reason", string(outcome.Reason)), zap.Error(err))
		e.notify(ctx, guildID, Notice{Kind: NoticeFailure, Title: "Ban Failed", Text: text, TargetID: m.ID})
		return outcome
	}

	count, err := e.bans.Increment(ctx)
	if err != nil {
		log.Error("ban count save failed", zap.Error(err))
	}
	bansPerformed.Inc()
	log.Info("member banned", zap.Int64("ban_count", count))

	if cfg.DMOnBan {
		e.directMessage(ctx, guildID, m, v, log)
	}

	if cfg.LogBans {
		details := banDetails(m, v)
		if err := e.actions.Record(ctx, guildID, actionType, details, m.ID); err != nil {
			log.Error("action log save failed", zap.Error(err))
		}
		e.notify(ctx, guildID, Notice{Kind: NoticeBan, Title: actionType, Text: details, TargetID: m.ID})
	}

	return Outcome{Kind: Banned, BanCount: count}
}

// directMessage is best effort; delivery failures are only logged.
func (e *Engine) directMessage(ctx context.Context, guildID string, m Member, v Verdict, log *zap.Logger) {
	text := banMessage
	if v.Kind == KeywordMatch {
		text += fmt.Sprintf(banKeywordMessage, v.Keyword)
	}
	if link, ok := e.appeals.Get(guildID); ok {
		text += fmt.Sprintf(banAppealMessage, link)
	}
	if err := e.platform.SendDirectMessage(ctx, m.ID, text); err != nil {
		log.Debug("ban dm not delivered", zap.Error(err))
	}
}

// notify sends to the guild's registered channel, if any.
func (e *Engine) notify(ctx context.Context, guildID string, notice Notice) {
	channelID, ok := e.channels.Get(guildID)
	if !ok {
		return
	}
	if err := e.platform.SendChannelMessage(ctx, channelID, notice); err != nil {
		e.logger.Warn("channel notice failed",
			zap.String("guild_id", guildID),
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
	}
}

func banDetails(m Member, v Verdict) string {
	if v.Kind == IDMatch {
		return fmt.Sprintf("Member %s has been banned from the server (denylisted ID).", m.ID)
	}
	return fmt.Sprintf("Member %s has been banned for forbidden keyword %q in %s.", m.ID, v.Keyword, v.Field)
}

func alertText(m Member, v Verdict) string {
	if v.Kind == IDMatch {
		return fmt.Sprintf("Member %s is on the denylist. No action was taken.", m.ID)
	}
	return fmt.Sprintf("Member %s has forbidden keyword %q in %s. No action was taken.", m.ID, v.Keyword, v.Field)
}
