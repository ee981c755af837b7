package bot

import (
	"context"
	"sync"
	"time"

	"despawner/internal/analytics"
	"despawner/internal/config"
	"despawner/internal/counter"
	"despawner/internal/dispatch"
	"despawner/internal/guildconfig"
	"despawner/internal/moderation"
	"despawner/internal/modules/audit"
	"despawner/internal/modules/denylist"
	"despawner/internal/modules/keyword"
	"despawner/internal/registry"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Services are the stores the bot wires into the moderation engine.
type Services struct {
	Denylist  *denylist.Store
	Keywords  *keyword.Matcher
	Configs   *guildconfig.Store
	Channels  *registry.Store
	Appeals   *registry.Store
	Bans      *counter.Counter
	Actions   *audit.Logger
	Analytics *analytics.Service
	Queue     *dispatch.Queue
}

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	session   *discordgo.Session
	engine    *moderation.Engine
	denylist  *denylist.Store
	configs   *guildconfig.Store
	channels  *registry.Store
	appeals   *registry.Store
	bans      *counter.Counter
	analytics *analytics.Service
	queue     *dispatch.Queue
	readyOnce sync.Once
	stop      chan struct{}
	stopOnce  sync.Once
	startedAt time.Time
}

func New(cfg config.Config, logger *zap.Logger, svc Services) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers
	// joins must reach the dispatch queue in gateway order
	session.SyncEvents = true

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		session:   session,
		denylist:  svc.Denylist,
		configs:   svc.Configs,
		channels:  svc.Channels,
		appeals:   svc.Appeals,
		bans:      svc.Bans,
		analytics: svc.Analytics,
		queue:     svc.Queue,
		stop:      make(chan struct{}),
	}
	b.engine = moderation.New(moderation.Deps{
		Denylist: svc.Denylist,
		Keywords: svc.Keywords,
		Configs:  svc.Configs,
		Channels: svc.Channels,
		Appeals:  svc.Appeals,
		Bans:     svc.Bans,
		Actions:  svc.Actions,
		Platform: &discordPlatform{session: session, colors: cfg.Notifications.EmbedColors},
		Logger:   logger.Named("moderation"),
	})

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}
	b.startedAt = time.Now()

	if err := b.registerCommands(); err != nil {
		return err
	}

	return nil
}

// Close stops presence rotation, drains queued moderation jobs and closes the
// gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.stopOnce.Do(func() { close(b.stop) })
	if err := b.queue.Close(ctx); err != nil {
		b.logger.Warn("dispatch queue did not drain", zap.Error(err))
	}
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.engine.SetSelfID(event.User.ID)
	b.logger.Info("discord ready",
		zap.String("user", event.User.Username),
		zap.Int("guilds", len(event.Guilds)),
		zap.Int("denylist", b.denylist.Len()),
	)
	b.readyOnce.Do(func() {
		if b.cfg.Status.Enabled {
			go b.rotatePresence(time.Duration(b.cfg.Status.RotateMinutes) * time.Minute)
		}
	})
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.GuildID == "" || event.Member == nil || event.Member.User == nil {
		return
	}
	guildID := event.GuildID
	member := snapshot(event.Member)

	err := b.queue.Submit(context.Background(), dispatch.Job{
		Kind:    "join",
		GuildID: guildID,
		Run: func(ctx context.Context) {
			b.engine.Process(ctx, guildID, member)
		},
	})
	if err != nil {
		b.logger.Warn("join not queued", zap.String("guild_id", guildID), zap.String("user_id", member.ID), zap.Error(err))
	}
}
