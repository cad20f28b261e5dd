package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/moemoli/steamwatch/internal/config"
	"github.com/moemoli/steamwatch/internal/llm"
	"github.com/moemoli/steamwatch/internal/render"
	"github.com/moemoli/steamwatch/internal/steam"
	"github.com/moemoli/steamwatch/internal/storage"
	"github.com/moemoli/steamwatch/internal/taskreg"
	"github.com/moemoli/steamwatch/internal/watch"
)

// platformName is the platform tag stored on bindings and subscriptions.
const platformName = "discord"

// pollTaskName is the registry key guarding against duplicate poll loops.
const pollTaskName = "steamwatch.poll"

// Bot represents the Discord bot instance
type Bot struct {
	config   *config.Config
	session  *discordgo.Session
	store    *storage.Store
	api      *steam.Client
	renderer *render.Renderer
	engine   *watch.Engine
	commands []*discordgo.ApplicationCommand

	pollHandle *taskreg.Handle
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Guild members intent is needed for the nickname refresh
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	// Initialize storage
	store := storage.NewStore(cfg.DataDir)
	if err := store.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	api := steam.NewClient(cfg.SteamWebAPIKey, cfg.SteamGridDBAPIKey)
	renderer := render.NewRenderer(store.CardsDir(), cfg.FontPath)

	var commenter llm.Commenter
	if cfg.OpenAIAPIKey != "" {
		commenter = llm.NewOpenAICommenter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.CommentPrompt)
	} else {
		slog.Info("No LLM key configured, end-game commentary disabled")
	}

	b := &Bot{
		config:   cfg,
		session:  session,
		store:    store,
		api:      api,
		renderer: renderer,
	}

	// The bot itself is the engine's dispatcher and nickname source.
	b.engine = watch.NewEngine(watch.Options{
		API:        api,
		Store:      store,
		Renderer:   renderer,
		Dispatcher: b,
		Nicknames:  b,
		Commenter:  commenter,
		Interval:   time.Duration(cfg.PollIntervalSeconds) * time.Second,
	})

	// Register command handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts the poll loop
func (b *Bot) Start(ctx context.Context) error {
	if err := b.engine.LoadState(); err != nil {
		return err
	}

	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	// Start the watch engine; Swap cancels and awaits any stale loop left
	// over from a previous start so only one poll loop ever runs.
	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	b.pollHandle = taskreg.Default.Swap(pollTaskName, cancel, done)
	go func() {
		defer close(done)
		b.engine.Run(pollCtx)
	}()

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	// Stop the poll loop and release its registry slot
	if b.pollHandle != nil {
		b.pollHandle.Stop()
		taskreg.Default.Clear(pollTaskName, b.pollHandle)
		b.pollHandle = nil
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "bind":
		b.handleBind(s, i)
	case "unbind":
		b.handleUnbind(s, i)
	case "subscribe":
		b.handleSubscribe(s, i)
	case "watched":
		b.handleWatched(s, i)
	case "steamtest":
		b.handleSteamTest(s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}

// SendImage posts one rendered card image to a channel.
func (b *Bot) SendImage(session, imagePath string) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("failed to open card image: %w", err)
	}
	defer f.Close()

	_, err = b.session.ChannelFileSend(session, filepath.Base(imagePath), f)
	return err
}

// SendTextWithImage posts a text message with an optional attached image.
func (b *Bot) SendTextWithImage(session, text, imagePath string) error {
	msg := &discordgo.MessageSend{Content: text}

	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return fmt.Errorf("failed to open card image: %w", err)
		}
		defer f.Close()
		msg.Files = []*discordgo.File{{Name: filepath.Base(imagePath), Reader: f}}
	}

	_, err := b.session.ChannelMessageSendComplex(session, msg)
	return err
}

// GroupNicknames returns the live member display names of one guild, keyed
// by user id. Non-discord platforms yield an empty result.
func (b *Bot) GroupNicknames(ctx context.Context, platform, platformID, groupID string) (map[string]string, error) {
	if platform != platformName {
		return nil, nil
	}

	members, err := b.session.GuildMembers(groupID, "", 1000, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild members: %w", err)
	}

	out := make(map[string]string, len(members))
	for _, m := range members {
		if m.User == nil {
			continue
		}
		name := m.Nick
		if name == "" {
			name = m.User.GlobalName
		}
		if name == "" {
			name = m.User.Username
		}
		if name != "" {
			out[m.User.ID] = name
		}
	}
	return out, nil
}
