// Package discordui is a convenience layer on top of discordgo for declared
// slash commands, context menu commands and message components. Commands are
// declared against a registry, reconciled with the Discord command API by a
// synchronizer, and dispatched to their handlers by an interaction router.
package discordui

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/brotherelric/discord-ui/components"
	"github.com/brotherelric/discord-ui/router"
	"github.com/brotherelric/discord-ui/slash"
)

// Options configures the UI layer.
type Options struct {
	// AutoDefer acknowledges every command interaction with a deferred
	// response before the handler runs.
	AutoDefer          bool
	AutoDeferEphemeral bool

	// AutoSync runs a full command synchronization after the session is
	// ready, delayed by SyncDelay.
	AutoSync  bool
	SyncDelay time.Duration

	// DeleteUnused removes remote commands that have no local declaration.
	DeleteUnused bool
}

// UI ties a discordgo session to a command registry, a component listener
// table, an interaction router and a command synchronizer.
type UI struct {
	Registry   *slash.Registry
	Components *components.Table
	Router     *router.Router

	session *discordgo.Session
	opts    Options
}

// New builds the UI layer over a session and registers its interaction
// handler. The session does not need to be connected yet.
func New(session *discordgo.Session, opts Options) *UI {
	reg := slash.NewRegistry()
	table := components.NewTable()
	r := router.New(reg, table)
	r.AutoDefer = opts.AutoDefer
	r.AutoDeferEphemeral = opts.AutoDeferEphemeral

	u := &UI{
		Registry:   reg,
		Components: table,
		Router:     r,
		session:    session,
		opts:       opts,
	}
	session.AddHandler(r.HandleFunc())
	if opts.AutoSync {
		session.AddHandler(u.readyFunc())
	}
	return u
}

func (u *UI) readyFunc() func(s *discordgo.Session, r *discordgo.Ready) {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		go func() {
			if u.opts.SyncDelay > 0 {
				time.Sleep(u.opts.SyncDelay)
			}
			if err := u.Sync(context.Background()); err != nil {
				slog.Error("Command synchronization failed", "error", err)
			}
		}()
	}
}

// Syncer builds a synchronizer bound to the session's current application id.
// Valid once the session received its ready event.
func (u *UI) Syncer() *slash.Syncer {
	s := slash.NewSyncer(u.session, u.Registry, u.appID(), slash.StateGuilds(u.session))
	s.DeleteUnused = u.opts.DeleteUnused
	return s
}

// Sync reconciles the declared commands with the command API.
func (u *UI) Sync(ctx context.Context) error {
	return u.Syncer().Sync(ctx)
}

// NukeCommands removes every registered command, global and per guild.
func (u *UI) NukeCommands(ctx context.Context) error {
	return u.Syncer().NukeCommands(ctx)
}

func (u *UI) appID() string {
	u.session.State.RLock()
	defer u.session.State.RUnlock()
	if u.session.State.User == nil {
		return ""
	}
	return u.session.State.User.ID
}

// Command declares a chat command.
func (u *UI) Command(name, description string, handler slash.Handler) (*slash.Command, error) {
	c, err := slash.NewCommand(name, description, handler)
	if err != nil {
		return nil, err
	}
	return c, u.Registry.Add(c)
}

// Subcommand declares a chat subcommand reachable as /base [group] name.
func (u *UI) Subcommand(baseNames []string, name, description string, handler slash.Handler) (*slash.Command, error) {
	c, err := slash.NewSubcommand(baseNames, name, description, handler)
	if err != nil {
		return nil, err
	}
	return c, u.Registry.Add(c)
}

// UserCommand declares a user context menu command.
func (u *UI) UserCommand(name string, handler slash.Handler) (*slash.Command, error) {
	c, err := slash.NewUserCommand(name, handler)
	if err != nil {
		return nil, err
	}
	return c, u.Registry.Add(c)
}

// MessageCommand declares a message context menu command.
func (u *UI) MessageCommand(name string, handler slash.Handler) (*slash.Command, error) {
	c, err := slash.NewMessageCommand(name, handler)
	if err != nil {
		return nil, err
	}
	return c, u.Registry.Add(c)
}

// On registers a component listener for a custom id.
func (u *UI) On(customID string, handler components.Handler) error {
	return u.Components.On(customID, handler)
}

// Bundle is a named group of commands and component listeners that can be
// added and removed together.
type Bundle interface {
	// Commands returns the commands the bundle declares.
	Commands() []*slash.Command

	// Listeners returns the component listeners the bundle declares.
	Listeners() []*components.Listener
}

// AddBundle registers everything the bundle declares. A failing declaration
// aborts and rolls back the already registered parts of the bundle.
func (u *UI) AddBundle(b Bundle) error {
	var added []*slash.Command
	var listening []*components.Listener
	rollback := func() {
		for _, c := range added {
			u.Registry.Remove(c)
		}
		for _, l := range listening {
			u.Components.RemoveListener(l)
		}
	}

	for _, c := range b.Commands() {
		if err := u.Registry.Add(c); err != nil {
			rollback()
			return err
		}
		added = append(added, c)
	}
	for _, l := range b.Listeners() {
		if err := u.Components.Add(l); err != nil {
			rollback()
			return err
		}
		listening = append(listening, l)
	}
	return nil
}

// RemoveBundle unregisters everything the bundle declares.
func (u *UI) RemoveBundle(b Bundle) {
	for _, c := range b.Commands() {
		u.Registry.Remove(c)
	}
	for _, l := range b.Listeners() {
		u.Components.RemoveListener(l)
	}
}
