package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/infra/telemetry"
	"github.com/Revixit-Net/discord-bot/internal/usecase"
)

const (
	handlerTimeout         = 10 * time.Second
	autocompleteTimeout    = 2 * time.Second
	maxAutocompleteChoices = 25
)

// Options carries the dependencies for the Discord transport.
type Options struct {
	Token       string
	GuildID     string
	AdminRoleID string

	Registration *usecase.RegistrationService
	Passwords    *usecase.PasswordService
	Admin        *usecase.AdminService
	Assets       *usecase.AssetService

	Metrics *telemetry.CommandMetrics
	Logger  *zap.Logger
}

// Bot owns the gateway session and dispatches slash commands to the
// account flows.
type Bot struct {
	session     *discordgo.Session
	guildID     string
	adminRoleID string

	registration *usecase.RegistrationService
	passwords    *usecase.PasswordService
	admin        *usecase.AdminService
	assets       *usecase.AssetService

	metrics    *telemetry.CommandMetrics
	logger     *zap.Logger
	httpClient *http.Client
}

// New constructs the bot and wires its interaction handler. The gateway
// connection is not opened until Run.
func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("discord token is required")
	}
	if opts.AdminRoleID == "" {
		return nil, errors.New("admin role id is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		session:      session,
		guildID:      opts.GuildID,
		adminRoleID:  opts.AdminRoleID,
		registration: opts.Registration,
		passwords:    opts.Passwords,
		admin:        opts.Admin,
		assets:       opts.Assets,
		metrics:      opts.Metrics,
		logger:       logger,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	session.AddHandler(bot.onInteraction)

	return bot, nil
}

// Run opens the gateway session, overwrites the slash command set, and
// blocks until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.Warn("failed to close discord session", zap.Error(err))
		}
	}()

	appID := b.session.State.User.ID
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, commandDefinitions())
	if err != nil {
		return fmt.Errorf("register application commands: %w", err)
	}
	b.logger.Info("application commands registered",
		zap.Int("count", len(registered)),
		zap.String("guild_id", b.guildID),
	)

	<-ctx.Done()
	return nil
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(newInteractionResponder(s, i.Interaction), i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, i)
	}
}

func (b *Bot) handleCommand(r Responder, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	done := b.metrics.Track()
	defer done()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := r.Ack(); err != nil {
		b.logger.Error("failed to acknowledge interaction",
			zap.String("command", name),
			zap.Error(err),
		)
		b.metrics.Observe(name, outcomeError, time.Since(start))
		return
	}

	var outcome string
	switch name {
	case commandRegister:
		outcome = b.handleRegister(ctx, r, i)
	case commandChangePassword:
		outcome = b.handleChangePassword(ctx, r, i)
	case commandDelete:
		outcome = b.handleDelete(ctx, r, i)
	case commandUserInfo:
		outcome = b.handleUserInfo(ctx, r, i)
	case commandSetPassword:
		outcome = b.handleSetPassword(ctx, r, i)
	case commandUpload:
		outcome = b.handleUpload(ctx, r, i)
	default:
		b.logger.Warn("unknown command received", zap.String("command", name))
		outcome = outcomeError
	}

	b.metrics.Observe(name, outcome, time.Since(start))
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	var partial string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			partial, _ = opt.Value.(string)
			break
		}
	}

	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: b.usernameChoices(ctx, partial),
		},
	}
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		b.logger.Warn("failed to answer autocomplete", zap.Error(err))
	}
}

// usernameChoices suggests existing logins. An unhealthy store yields a
// single marker choice instead of failing the interaction.
func (b *Bot) usernameChoices(ctx context.Context, partial string) []*discordgo.ApplicationCommandOptionChoice {
	if !b.admin.Healthy(ctx) {
		return []*discordgo.ApplicationCommandOptionChoice{
			{Name: "🚨 Database unavailable", Value: "error"},
		}
	}

	usernames, err := b.admin.SearchUsernames(ctx, partial, maxAutocompleteChoices)
	if err != nil {
		b.logger.Warn("username autocomplete failed", zap.Error(err))
		return nil
	}
	if len(usernames) > maxAutocompleteChoices {
		usernames = usernames[:maxAutocompleteChoices]
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(usernames))
	for _, username := range usernames {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  username,
			Value: username,
		})
	}
	return choices
}

// isAdmin reports whether the invoking member carries the configured admin
// role. Interactions outside a guild have no member and never pass.
func (b *Bot) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	for _, role := range i.Member.Roles {
		if role == b.adminRoleID {
			return true
		}
	}
	return false
}

// requireAdmin rejects non-admin invocations before any store access.
func (b *Bot) requireAdmin(r Responder, command string, i *discordgo.InteractionCreate) bool {
	if b.isAdmin(i) {
		return true
	}
	b.logger.Warn("admin command rejected",
		zap.String("command", command),
		zap.String("user_id", interactionUserID(i)),
	)
	b.replyOrLog(r, command, "⛔ This command requires the administrator role.")
	return false
}

func (b *Bot) fetchAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build attachment request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download attachment: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, usecase.MaxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return data, nil
}
