package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/command"
)

// registerCommands declares the built-in command set and binds handlers.
// Returned groups go to the registry in this order, which is also the
// resolution order.
func (b *Bot) registerCommands() []*command.Group {
	ping := &command.Command{Name: "ping"}
	status := &command.Command{Name: "status", Aliases: []string{"uptime"}}

	prefixSet := &command.Command{Name: "set"}
	prefixGet := &command.Command{Name: "get", Aliases: []string{"show"}}
	prefixClear := &command.Command{Name: "clear", Aliases: []string{"reset"}}

	general := &command.Group{
		Name:     "general",
		Commands: []*command.Command{ping, status},
	}

	prefix := &command.Group{
		Name:     "prefix",
		Prefixes: []string{"prefix"},
		Options: command.Options{
			OnlyIn:              command.OnlyInGuild,
			RequiredPermissions: discordgo.PermissionManageGuild,
			OwnerPrivilege:      true,
			DefaultCommand:      prefixGet,
		},
		Commands: []*command.Command{prefixSet, prefixGet, prefixClear},
	}

	shutdown := &command.Command{Name: "shutdown", Options: command.Options{OwnersOnly: true}}
	admin := &command.Group{
		Name:     "admin",
		Prefixes: []string{"admin"},
		Options:  command.Options{OwnersOnly: true},
		Commands: []*command.Command{shutdown},
	}

	b.handlers[ping] = handlePing
	b.handlers[status] = handleStatus
	b.handlers[prefixSet] = handlePrefixSet
	b.handlers[prefixGet] = handlePrefixGet
	b.handlers[prefixClear] = handlePrefixClear
	b.handlers[shutdown] = handleShutdown

	return []*command.Group{general, prefix, admin}
}

// helpText renders the registered groups and commands.
func (b *Bot) helpText() string {
	var sb strings.Builder
	sb.WriteString("**Commands**\n")
	for _, g := range b.groups {
		if len(g.Prefixes) > 0 {
			sb.WriteString(fmt.Sprintf("`%s`: ", g.Prefixes[0]))
		}
		names := make([]string, 0, len(g.Commands))
		for _, c := range g.Commands {
			names = append(names, c.Name)
		}
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func handlePing(_ context.Context, hc *HandlerContext) error {
	_, err := hc.Session.ChannelMessageSend(hc.Event.ChannelID, "Pong!")
	return err
}

func handleStatus(_ context.Context, hc *HandlerContext) error {
	uptime := time.Since(hc.Bot.started).Round(time.Second)
	guilds := len(hc.Session.State.Guilds)
	msg := fmt.Sprintf("Up %s, serving %d guilds.", uptime, guilds)
	_, err := hc.Session.ChannelMessageSend(hc.Event.ChannelID, msg)
	return err
}

func handlePrefixSet(ctx context.Context, hc *HandlerContext) error {
	prefix := strings.TrimSpace(hc.Args)
	if prefix == "" {
		_, err := hc.Session.ChannelMessageSend(hc.Event.ChannelID, "Usage: prefix set <prefix>")
		return err
	}
	if err := hc.Bot.prefixes.Set(ctx, hc.Event.GuildID, prefix); err != nil {
		return err
	}
	_, err := hc.Session.ChannelMessageSend(hc.Event.ChannelID,
		fmt.Sprintf("Prefix for this server set to `%s`.", prefix))
	return err
}

func handlePrefixGet(ctx context.Context, hc *HandlerContext) error {
	prefix, ok, err := hc.Bot.prefixes.Get(ctx, hc.Event.GuildID)
	if err != nil {
		return err
	}
	msg := "This server uses the default prefix."
	if ok {
		msg = fmt.Sprintf("This server's prefix is `%s`.", prefix)
	}
	_, err = hc.Session.ChannelMessageSend(hc.Event.ChannelID, msg)
	return err
}

func handlePrefixClear(ctx context.Context, hc *HandlerContext) error {
	if err := hc.Bot.prefixes.Delete(ctx, hc.Event.GuildID); err != nil {
		return err
	}
	_, err := hc.Session.ChannelMessageSend(hc.Event.ChannelID, "Prefix reset to the default.")
	return err
}

func handleShutdown(_ context.Context, hc *HandlerContext) error {
	hc.Logger.Info("shutdown requested", "by", hc.Event.Author.ID)
	_, _ = hc.Session.ChannelMessageSend(hc.Event.ChannelID, "Shutting down.")
	return hc.Session.Close()
}
