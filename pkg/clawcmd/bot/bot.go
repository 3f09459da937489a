package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/command"
	clawdiscord "github.com/jholhewres/clawcmd/pkg/clawcmd/discord"
	"github.com/jholhewres/clawcmd/pkg/clawcmd/dispatch"
	"github.com/jholhewres/clawcmd/pkg/clawcmd/prefixstore"
)

// resolveTimeout bounds a single resolution, including roster REST calls.
const resolveTimeout = 10 * time.Second

// HandlerContext is handed to command handlers.
type HandlerContext struct {
	// Session is the live discordgo session.
	Session *discordgo.Session

	// Event is the triggering message event.
	Event *discordgo.MessageCreate

	// Invoke is the resolved invocation.
	Invoke *dispatch.Invoke

	// Args is the unconsumed remainder of the message.
	Args string

	// Logger carries the per-message trace id.
	Logger *slog.Logger

	// Bot is the owning bot, for handlers that touch shared state such as
	// the prefix store.
	Bot *Bot
}

// HandlerFunc executes a resolved command.
type HandlerFunc func(ctx context.Context, hc *HandlerContext) error

// Bot is the demo Discord bot around the dispatcher.
type Bot struct {
	cfg      Config
	logger   *slog.Logger
	session  *discordgo.Session
	prefixes *prefixstore.Store

	dispatchCfg *dispatch.Configuration
	registry    *dispatch.Registry
	dispatcher  *dispatch.Dispatcher
	groups      []*command.Group
	handlers    map[*command.Command]HandlerFunc

	started time.Time
}

// New builds a bot from configuration: opens the prefix store, registers
// the built-in command set, and builds the name maps. The dispatcher
// itself is assembled in Run, once a session exists to back the roster.
func New(cfg Config, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bot{
		cfg:      cfg,
		logger:   logger.With("component", "bot"),
		handlers: make(map[*command.Command]HandlerFunc),
	}

	store, err := prefixstore.Open(cfg.PrefixStorePath, logger)
	if err != nil {
		return nil, err
	}
	b.prefixes = store

	b.groups = b.registerCommands()

	dcfg := cfg.Dispatch
	dcfg.DynamicPrefixes = append([]dispatch.DynamicPrefixFunc{store.DynamicPrefix()}, dcfg.DynamicPrefixes...)
	b.dispatchCfg = &dcfg

	reg, err := dispatch.NewRegistry(&dcfg, b.groups...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("bot: building registry: %w", err)
	}
	b.registry = reg

	return b, nil
}

// Run connects to Discord and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	token, err := b.cfg.ResolveToken()
	if err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("bot: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	// The bot's own id doubles as the mention prefix.
	if b.dispatchCfg.OnMention == "" {
		me, err := session.User("@me", discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("bot: resolving own user: %w", err)
		}
		b.dispatchCfg.OnMention = me.ID
	}

	roster := clawdiscord.NewRoster(session, b.cfg.FetchPermissions)
	b.dispatcher = dispatch.NewDispatcher(b.dispatchCfg, b.registry, roster, b.cfg.HelpNames, b.logger)

	session.AddHandler(func(s *discordgo.Session, _ *discordgo.Ready) {
		b.logger.Info("connected", "bot", s.State.User.Username, "id", s.State.User.ID)
	})
	session.AddHandler(b.onMessageCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("bot: opening gateway: %w", err)
	}
	b.session = session
	b.started = time.Now()

	<-ctx.Done()

	if err := session.Close(); err != nil {
		b.logger.Warn("closing session", "error", err)
	}
	if err := b.prefixes.Close(); err != nil {
		b.logger.Warn("closing prefix store", "error", err)
	}
	return nil
}

// onMessageCreate resolves an incoming message and executes the handler of
// the resolved command.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	logger := b.logger.With("trace_id", uuid.NewString(), "author", m.Author.ID)

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	inv, args, err := b.dispatcher.Resolve(ctx, clawdiscord.WrapMessage(m))
	if err != nil {
		b.reportError(s, m, logger, err)
		return
	}
	if inv == nil {
		// Not a command invocation.
		return
	}

	if inv.IsHelp() {
		if _, err := s.ChannelMessageSend(m.ChannelID, b.helpText()); err != nil {
			logger.Warn("sending help", "error", err)
		}
		return
	}

	handler, ok := b.handlers[inv.Command]
	if !ok {
		logger.Error("resolved command has no handler", "command", inv.Command.Name)
		return
	}

	hc := &HandlerContext{
		Session: s,
		Event:   m,
		Invoke:  inv,
		Args:    args,
		Logger:  logger,
		Bot:     b,
	}
	if err := handler(ctx, hc); err != nil {
		logger.Error("command failed", "command", inv.Command.Name, "error", err)
	}
}

// reportError renders dispatch rejections to the user and drops everything
// else: an unknown command is not an invocation, and infrastructure errors
// only get logged.
func (b *Bot) reportError(s *discordgo.Session, m *discordgo.MessageCreate, logger *slog.Logger, err error) {
	var dispatchErr *dispatch.DispatchError
	if errors.As(err, &dispatchErr) {
		if _, serr := s.ChannelMessageSend(m.ChannelID, renderDispatchError(dispatchErr)); serr != nil {
			logger.Warn("sending rejection", "error", serr)
		}
		return
	}

	var unknown *dispatch.UnknownCommandError
	if errors.As(err, &unknown) {
		return
	}

	logger.Error("resolution failed", "error", err)
}

// renderDispatchError maps a rejection to user-facing text.
func renderDispatchError(err *dispatch.DispatchError) string {
	switch err.Reason {
	case dispatch.ReasonOnlyForOwners:
		return "This command is reserved for the bot owners."
	case dispatch.ReasonOnlyForDM:
		return "This command only works in direct messages."
	case dispatch.ReasonOnlyForGuilds:
		return "This command only works in servers."
	case dispatch.ReasonLackingPermissions:
		return fmt.Sprintf("You are missing required permissions (0x%x).", err.Permissions)
	case dispatch.ReasonLackingRole:
		return "You are missing a required role."
	case dispatch.ReasonCommandDisabled:
		return fmt.Sprintf("The command %q is disabled.", err.Command)
	default:
		return "You cannot run this command here."
	}
}
