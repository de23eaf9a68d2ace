package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/small-frappuccino/discordmenu/pkg/discord/client"
	"github.com/small-frappuccino/discordmenu/pkg/discord/perf"
	"github.com/small-frappuccino/discordmenu/pkg/discord/session"
	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/errutil"
	"github.com/small-frappuccino/discordmenu/pkg/files"
	"github.com/small-frappuccino/discordmenu/pkg/log"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
	"github.com/small-frappuccino/discordmenu/pkg/menu/listener"
	"github.com/small-frappuccino/discordmenu/pkg/metrics"
	"github.com/small-frappuccino/discordmenu/pkg/storage"
	"github.com/small-frappuccino/discordmenu/pkg/task"
	"github.com/small-frappuccino/discordmenu/pkg/util"
)

const (
	heartbeatSchedule = "@every 1m"
	pruneSchedule     = "@daily"
	keepCounterDays   = 90
)

// Stack is the menu engine, listener and demo module wired from a config.
type Stack struct {
	Engine   *menu.Engine
	Registry *listener.Registry
	Listener *listener.Listener
	Demo     *Demo
}

// NewStack wires the menu components over transport and bot.
func NewStack(cfg *files.Config, transport menu.Transport, bot listener.Bot, resolver emoji.Resolver, recorder menu.Recorder, runner *task.Runner, lopts ...listener.Option) (*Stack, error) {
	order, err := menu.ParseReactionOrder(cfg.ReactionOrder)
	if err != nil {
		return nil, err
	}
	opts := menu.Options{
		CloseEmoji:       emoji.Named(cfg.CloseEmoji),
		UnsupportedDelay: cfg.UnsupportedDelay,
		Order:            order,
		Recorder:         recorder,
		Runner:           runner,
	}
	if name, ok := cfg.Unsupported(); ok {
		opts.UnsupportedEmoji = emoji.Named(name)
	} else {
		opts.DisableUnsupported = true
	}
	engine := menu.NewEngine(transport, resolver, opts)

	registry := listener.NewRegistry()
	demo := NewDemo(engine, cfg.DemoTrigger)
	if err := demo.Register(registry); err != nil {
		return nil, fmt.Errorf("register demo menus: %w", err)
	}

	if len(cfg.Friends) > 0 {
		lopts = append(lopts, listener.WithOwnerFilter(menu.FriendFilter(cfg.FriendsOf)))
	}
	return &Stack{
		Engine:   engine,
		Registry: registry,
		Listener: listener.New(bot, engine, registry, lopts...),
		Demo:     demo,
	}, nil
}

// Run loads configPath, connects to Discord and serves menus until ctx ends
// or the process is interrupted.
func Run(ctx context.Context, configPath string) error {
	started := time.Now()

	cfg, err := files.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logCloser, err := log.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer logCloser.Close()

	token, err := util.LoadEnvWithLocalBinFallback(cfg.TokenEnv)
	if err != nil {
		return err
	}

	slog.Info("Starting discordmenu", "version", Version, "config", configPath)
	s, err := session.NewDiscordSession(token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	defer s.Close()
	if s.State == nil || s.State.User == nil {
		return fmt.Errorf("discord session state not properly initialized")
	}
	slog.Info("Authenticated with Discord", "user", s.State.User.Username, "userID", s.State.User.ID)

	store := storage.NewStore(cfg.StorePath)
	if err := store.Init(); err != nil {
		return fmt.Errorf("initialize SQLite store: %w", err)
	}
	defer store.Close()

	emojis := emoji.NewCache(cfg.EmojiGuildIDs...)
	refreshEmojis := func(context.Context) error {
		return errutil.HandleDiscordError("refresh_emojis", func() error { return emojis.RefreshFromSession(s) })
	}
	if err := refreshEmojis(ctx); err != nil {
		slog.Warn("Initial emoji refresh failed; custom emoji fall back to unicode", "error", err)
	}

	runner := task.NewRunner(slog.Default())
	defer runner.Close()

	stats := metrics.New(emojis.Len)
	transport := client.NewTransport(s, client.Options{
		ReactionRatePerSecond: cfg.ReactionRatePerSecond,
		ReactionBurst:         cfg.ReactionBurst,
	})
	bot := client.NewBot(s)
	stack, err := NewStack(cfg, transport, bot, emojis, menu.Recorders{stats, store}, runner,
		listener.WithTimer(perf.NewTimer(slog.Default())))
	if err != nil {
		return err
	}
	bot.LoadModule(DemoModule, stack.Demo)

	schedule := task.NewSchedule(runner)
	jobs := []struct {
		name, spec string
		job        task.Job
	}{
		{"refresh_emojis", cfg.EmojiRefreshSchedule, refreshEmojis},
		{"heartbeat", heartbeatSchedule, func(context.Context) error { return store.SetHeartbeat(time.Now()) }},
		{"prune_counters", pruneSchedule, func(context.Context) error {
			n, err := store.PruneDailyMenuTransitions(keepCounterDays)
			if n > 0 {
				slog.Info("Pruned menu counters", "rows", n)
			}
			return err
		}},
	}
	for _, j := range jobs {
		if err := schedule.Add(j.name, j.spec, j.job); err != nil {
			return err
		}
	}
	schedule.Start()
	defer schedule.Stop()

	if err := stack.Listener.Start(s); err != nil {
		return err
	}
	defer stack.Listener.Stop()
	removeDemo := s.AddHandler(stack.Demo.OnMessageCreate)
	defer removeDemo()
	removeEmojiUpdates := s.AddHandler(func(_ *discordgo.Session, u *discordgo.GuildEmojisUpdate) {
		if slices.Contains(emojis.GuildIDs(), u.GuildID) {
			runner.Go("refresh_emojis", refreshEmojis)
		}
	})
	defer removeEmojiUpdates()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return stats.Serve(gctx, cfg.MetricsAddr) })
	}
	g.Go(func() error {
		util.WaitForInterrupt(gctx, cancel)
		return nil
	})

	slog.Info("discordmenu running", "startup", time.Since(started).Round(time.Millisecond), "menuTypes", stack.Registry.Types())
	err = g.Wait()

	slog.Info("Stopping discordmenu")
	stack.Engine.Wait()
	return err
}
