package dispatch

import (
	"context"
	"log/slog"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/command"
	"github.com/jholhewres/clawcmd/pkg/clawcmd/stream"
)

// Dispatcher bundles a configuration, a registry, a roster and the
// registered help names behind a single resolution entry point. It holds
// no mutable state: one Dispatcher serves any number of concurrent
// resolutions.
type Dispatcher struct {
	cfg       *Configuration
	reg       *Registry
	roster    Roster
	helpNames []string
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. roster may be nil, which degrades
// permission-bit and role checks to pass. helpNames may be nil to register
// no help command.
func NewDispatcher(cfg *Configuration, reg *Registry, roster Roster, helpNames []string, logger *slog.Logger) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfiguration()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:       cfg,
		reg:       reg,
		roster:    roster,
		helpNames: helpNames,
		logger:    logger.With("component", "dispatch"),
	}
}

// Configuration returns the dispatcher's configuration.
func (d *Dispatcher) Configuration() *Configuration { return d.cfg }

// Groups returns the registered top-level groups in registration order,
// for help rendering.
func (d *Dispatcher) Groups() []*command.Group {
	groups := make([]*command.Group, 0, len(d.reg.entries))
	for _, e := range d.reg.entries {
		groups = append(groups, e.group)
	}
	return groups
}

// HelpNames returns the registered help names.
func (d *Dispatcher) HelpNames() []string { return d.helpNames }

// Resolve resolves a raw message into an invocation.
//
// It strips the prefix first; a message that carries no recognized prefix
// is not a command invocation at all, reported as (nil, "", nil) so
// callers can ignore it silently. On success the returned string is the
// unconsumed remainder of the message — the invocation's arguments.
func (d *Dispatcher) Resolve(ctx context.Context, msg Message) (*Invoke, string, error) {
	st := stream.New(msg.Content())

	if _, ok := Prefix(ctx, msg, st, d.cfg); !ok {
		return nil, "", nil
	}

	inv, err := ParseCommand(ctx, msg, st, d.reg, d.cfg, d.roster, d.helpNames)
	if err != nil {
		return nil, "", err
	}

	if inv.IsHelp() {
		d.logger.Debug("resolved help invocation", "name", inv.Help)
	} else {
		d.logger.Debug("resolved command invocation",
			"group", inv.Group.Name, "command", inv.Command.Name)
	}

	return inv, st.Rest(), nil
}
