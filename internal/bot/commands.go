package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/moemoli/steamwatch/internal/render"
	"github.com/moemoli/steamwatch/internal/steam"
	"github.com/moemoli/steamwatch/internal/watch"
)

// commandTimeout bounds the HTTP lookups behind one slash command.
const commandTimeout = 15 * time.Second

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "bind",
			Description: "Watch your Steam status in this server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "target",
					Description: "Friend code, 64-bit id, profile link or vanity name",
					Required:    true,
				},
			},
		},
		{
			Name:        "unbind",
			Description: "Stop watching your Steam status in this server",
		},
		{
			Name:        "subscribe",
			Description: "Push a game's news updates to this server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Store link, AppID or game name",
					Required:    true,
				},
			},
		},
		{
			Name:        "watched",
			Description: "List watched players and subscribed games in this server",
		},
		{
			Name:        "steamtest",
			Description: "Render a sample status card to verify the setup",
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string = global command
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// handleBind handles the /bind command
func (b *Bot) handleBind(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		respondWithMessage(s, i, "Run `/bind` inside a server so status changes can be pushed there.")
		return
	}
	target := i.ApplicationCommandData().Options[0].StringValue()

	// Respond immediately to avoid timeout
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	steamID, err := b.api.ResolveSteamID64(ctx, target)
	if err != nil || steamID == "" {
		if err != nil {
			slog.Error("Failed to resolve steam id", "target", target, "error", err)
		}
		b.editResponse(s, i, fmt.Sprintf("Could not recognize `%s` as a Steam account. Try a friend code, 64-bit id or profile link.", target))
		return
	}

	summary, err := b.api.FetchPlayerSummary(ctx, steamID)
	if err != nil {
		slog.Error("Failed to fetch player summary", "steamid", steamID, "error", err)
		b.editResponse(s, i, "Could not fetch that player's profile. Make sure it is publicly readable and try again.")
		return
	}

	memberName := i.Member.Nick
	if memberName == "" {
		memberName = i.Member.User.Username
	}

	binding, err := b.engine.Bind(watch.BindRequest{
		Platform:   platformName,
		PlatformID: s.State.User.ID,
		Session:    i.ChannelID,
		GroupID:    i.GuildID,
		MemberID:   i.Member.User.ID,
		MemberName: memberName,
		Summary:    *summary,
	})
	if err != nil {
		if errors.Is(err, watch.ErrSteamIDTaken) {
			b.editResponse(s, i, fmt.Sprintf("`%s` is already bound to another member of this server.", summary.Name))
			return
		}
		slog.Error("Failed to save binding", "error", err)
		b.editResponse(s, i, "Failed to save the binding. Please try again.")
		return
	}

	msg := fmt.Sprintf("Now watching `%s` for %s.\nCurrent state: %s", binding.SteamName, memberName, binding.LastState.Text())
	if binding.LastState == steam.StateInGame && binding.LastGameName != "" {
		msg += fmt.Sprintf(" (%s)", binding.LastGameName)
	}
	b.editResponse(s, i, msg)
}

// handleUnbind handles the /unbind command
func (b *Bot) handleUnbind(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		respondWithMessage(s, i, "Run `/unbind` inside the server where you are bound.")
		return
	}

	removed, err := b.engine.Unbind(platformName, i.GuildID, i.Member.User.ID)
	if err != nil {
		slog.Error("Failed to remove binding", "error", err)
		respondWithMessage(s, i, "Failed to remove the binding. Please try again.")
		return
	}
	if !removed {
		respondWithMessage(s, i, "You have no Steam binding in this server.")
		return
	}
	respondWithMessage(s, i, "Your Steam binding has been removed.")
}

// handleSubscribe handles the /subscribe command
func (b *Bot) handleSubscribe(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respondWithMessage(s, i, "Run `/subscribe` inside a server so news can be pushed there.")
		return
	}
	query := i.ApplicationCommandData().Options[0].StringValue()

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	app, err := b.api.ResolveApp(ctx, query)
	if err != nil || app == nil {
		if err != nil {
			slog.Error("Failed to resolve app", "query", query, "error", err)
		}
		b.editResponse(s, i, fmt.Sprintf("Could not resolve `%s` to a Steam game. Try a store link, AppID or exact name.", query))
		return
	}

	// Seed the news cursor so only announcements after now get pushed.
	var lastGID string
	if latest, err := b.api.FetchLatestNews(ctx, app.AppID); err == nil && latest != nil {
		lastGID = latest.GID
	}

	sub, err := b.engine.Subscribe(watch.SubscribeRequest{
		Platform:    platformName,
		Session:     i.ChannelID,
		GroupID:     i.GuildID,
		App:         *app,
		LastNewsGID: lastGID,
	})
	if err != nil {
		if errors.Is(err, watch.ErrAlreadySubscribed) {
			b.editResponse(s, i, fmt.Sprintf("This server already subscribes to **%s** (AppID %d).", app.Name, app.AppID))
			return
		}
		slog.Error("Failed to save subscription", "error", err)
		b.editResponse(s, i, "Failed to save the subscription. Please try again.")
		return
	}

	b.editResponse(s, i, fmt.Sprintf("Subscribed to **%s** (AppID %d). New announcements will be pushed here.", sub.GameName, sub.AppID))
}

// handleWatched handles the /watched command
func (b *Bot) handleWatched(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respondWithMessage(s, i, "Run `/watched` inside a server.")
		return
	}

	bindings, subs := b.engine.GroupOverview(platformName, i.GuildID)
	if len(bindings) == 0 && len(subs) == 0 {
		respondWithMessage(s, i, "Nothing is watched in this server yet.\nUse `/bind` to watch a player or `/subscribe` to follow a game.")
		return
	}

	var sb strings.Builder
	if len(bindings) > 0 {
		sb.WriteString("**Watched players:**\n")
		for idx, binding := range bindings {
			sb.WriteString(fmt.Sprintf("  %d. `%s` (%s) - %s\n", idx+1, binding.SteamName, binding.MemberName, binding.LastState.Text()))
		}
		sb.WriteString("\n")
	}
	if len(subs) > 0 {
		sb.WriteString("**Subscribed games:**\n")
		for idx, sub := range subs {
			sb.WriteString(fmt.Sprintf("  %d. `%s` (AppID %d)\n", idx+1, sub.GameName, sub.AppID))
		}
	}

	respondWithMessage(s, i, sb.String())
}

// handleSteamTest handles the /steamtest command: it renders a sample card
// and posts it, exercising the full render and dispatch path.
func (b *Bot) handleSteamTest(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	entries := []render.Entry{
		{
			DisplayName:  "Sample Player(member)",
			StatusDesc:   "Started playing Counter-Strike 2",
			GameName:     "Counter-Strike 2",
			PlaytimeText: "1024.5 hrs on record",
			NewState:     steam.StateInGame,
		},
		{
			DisplayName:  "Sample Player(member)",
			StatusDesc:   "Stopped playing Counter-Strike 2, now Online",
			GameName:     "Counter-Strike 2",
			PlaytimeText: "Session length: 1h 42m",
			CommentText:  "Solid session, well earned break.",
			NewState:     steam.StateOnline,
		},
	}

	path, err := b.renderer.RenderBatchStatusCard(entries)
	if err != nil {
		slog.Error("Failed to render test card", "error", err)
		b.editResponse(s, i, "Failed to render the test card; check the bot logs.")
		return
	}
	if err := b.SendImage(i.ChannelID, path); err != nil {
		slog.Error("Failed to send test card", "error", err)
		b.editResponse(s, i, "Rendered the card but could not post it here.")
		return
	}

	b.editResponse(s, i, "Test card rendered and posted.")
}

// Helper functions

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}
