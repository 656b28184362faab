package slash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/brotherelric/discord-ui/internal/metrics"
	"github.com/bwmarrin/discordgo"
)

// writeInterval paces write calls against the command API, which rate limits
// command creation aggressively.
const writeInterval = 50 * time.Millisecond

// Syncer reconciles the registry's declared commands with the remote command
// API, per scope: the global scope and every guild the bot is a member of.
// Running Sync twice in a row with no local changes issues zero write calls.
type Syncer struct {
	api    CommandAPI
	reg    *Registry
	appID  string
	guilds GuildSource

	// DeleteUnused removes remote commands that have no local declaration
	// after all declared commands were processed.
	DeleteUnused bool

	limiter *rate.Limiter
	sleep   func(time.Duration)
}

// NewSyncer builds a synchronizer for the given registry. The application id
// is the bot user id.
func NewSyncer(api CommandAPI, reg *Registry, appID string, guilds GuildSource) *Syncer {
	return &Syncer{
		api:     api,
		reg:     reg,
		appID:   appID,
		guilds:  guilds,
		limiter: rate.NewLimiter(rate.Every(writeInterval), 1),
		sleep:   time.Sleep,
	}
}

// Sync runs a full reconciliation. Errors in one scope are collected and do
// not abort synchronization of other scopes; a forbidden guild is logged and
// skipped.
func (s *Syncer) Sync(ctx context.Context) error {
	started := time.Now()
	defer func() { metrics.SyncDuration.Observe(time.Since(started).Seconds()) }()

	declared := s.reg.Gather()
	memberGuilds := s.guilds.GuildIDs()

	remoteGlobal, err := s.listCommands(ctx, "")
	if err != nil {
		return fmt.Errorf("listing global commands: %w", err)
	}

	state := &syncState{
		remote:  map[string][]*discordgo.ApplicationCommand{"": remoteGlobal},
		skipped: make(map[string]bool),
		member:  make(map[string]bool, len(memberGuilds)),
	}
	for _, g := range memberGuilds {
		state.member[g] = true
	}

	var errs []error
	for _, c := range declared {
		if c.IsGlobal() {
			if err := s.syncGlobal(ctx, c, memberGuilds, state); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, guildID := range c.GuildIDs {
			if err := s.syncGuild(ctx, c, guildID, state); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if s.DeleteUnused {
		errs = append(errs, s.deleteUnused(ctx, declared, state)...)
	}

	errs = append(errs, s.syncPermissions(ctx, declared, state)...)

	return errors.Join(errs...)
}

type syncState struct {
	remote  map[string][]*discordgo.ApplicationCommand
	skipped map[string]bool
	member  map[string]bool
}

// syncGlobal reconciles one globally declared command. Guild-scoped copies
// of the same (name, type) are deleted before the global one is created or
// updated; global and guild registrations are mutually exclusive.
func (s *Syncer) syncGlobal(ctx context.Context, c *Command, memberGuilds []string, state *syncState) error {
	for _, guildID := range memberGuilds {
		list, err := s.guildCommands(ctx, guildID, state)
		if err != nil {
			if errors.Is(err, errGuildSkipped) {
				continue
			}
			return fmt.Errorf("listing commands of guild %s: %w", guildID, err)
		}
		if rc := findRemote(list, c.Name, c.Type); rc != nil {
			slog.Info("Deleting guild copy before global registration", "name", c.Name, "guild", guildID)
			if err := s.deleteCommand(ctx, guildID, rc.ID); err != nil {
				return fmt.Errorf("deleting guild copy of %q in %s: %w", c.Name, guildID, err)
			}
			state.remote[guildID] = removeRemote(list, rc.ID)
		}
	}
	return s.upsert(ctx, c, "", state)
}

// syncGuild reconciles one command declaration for one guild scope.
func (s *Syncer) syncGuild(ctx context.Context, c *Command, guildID string, state *syncState) error {
	if !state.member[guildID] {
		slog.Warn("Skipping guild, bot is not a member", "name", c.Name, "guild", guildID)
		return nil
	}
	if _, err := s.guildCommands(ctx, guildID, state); err != nil {
		if errors.Is(err, errGuildSkipped) {
			return nil
		}
		return fmt.Errorf("listing commands of guild %s: %w", guildID, err)
	}
	if rc := findRemote(state.remote[""], c.Name, c.Type); rc != nil {
		slog.Info("Deleting global copy before guild registration", "name", c.Name, "guild", guildID)
		if err := s.deleteCommand(ctx, "", rc.ID); err != nil {
			return fmt.Errorf("deleting global copy of %q: %w", c.Name, err)
		}
		state.remote[""] = removeRemote(state.remote[""], rc.ID)
	}
	return s.upsert(ctx, c, guildID, state)
}

// upsert creates the command in the scope when absent, updates it when it
// differs by value, and records the remote id either way.
func (s *Syncer) upsert(ctx context.Context, c *Command, scope string, state *syncState) error {
	rc := findRemote(state.remote[scope], c.Name, c.Type)
	switch {
	case rc == nil:
		created, err := s.createCommand(ctx, scope, c.ToApplication())
		if err != nil {
			return fmt.Errorf("creating %q in scope %q: %w", c.Name, scopeName(scope), err)
		}
		c.SetID(scope, created.ID)
		state.remote[scope] = append(state.remote[scope], created)
		slog.Info("Registered command", "name", c.Name, "scope", scopeName(scope))
	case !c.EqualsRemote(rc):
		if _, err := s.editCommand(ctx, scope, rc.ID, c.ToApplication()); err != nil {
			return fmt.Errorf("updating %q in scope %q: %w", c.Name, scopeName(scope), err)
		}
		c.SetID(scope, rc.ID)
		slog.Info("Updated command", "name", c.Name, "scope", scopeName(scope))
	default:
		c.SetID(scope, rc.ID)
	}
	return nil
}

// deleteUnused removes every remote command in a reachable scope that has no
// corresponding local declaration.
func (s *Syncer) deleteUnused(ctx context.Context, declared []*Command, state *syncState) []error {
	var errs []error
	for guildID := range state.member {
		if _, err := s.guildCommands(ctx, guildID, state); err != nil && !errors.Is(err, errGuildSkipped) {
			errs = append(errs, fmt.Errorf("listing commands of guild %s: %w", guildID, err))
		}
	}
	for scope, list := range state.remote {
		for _, rc := range list {
			if declaredFor(declared, rc, scope) {
				continue
			}
			slog.Info("Deleting unused command", "name", rc.Name, "scope", scopeName(scope))
			if err := s.deleteCommand(ctx, scope, rc.ID); err != nil {
				errs = append(errs, fmt.Errorf("deleting unused %q in scope %q: %w", rc.Name, scopeName(scope), err))
			}
		}
	}
	return errs
}

// syncPermissions reconciles per-guild permission overwrites after command
// reconciliation. Only mismatching sets trigger an update.
func (s *Syncer) syncPermissions(ctx context.Context, declared []*Command, state *syncState) []error {
	var errs []error
	for _, c := range declared {
		for guildID, perm := range c.GuildPermissions {
			if state.skipped[guildID] || !state.member[guildID] {
				continue
			}
			cmdID := c.ID(guildID)
			if cmdID == "" {
				cmdID = c.ID("")
			}
			if cmdID == "" {
				slog.Warn("No remote id for permission update", "name", c.Name, "guild", guildID)
				continue
			}
			remote, err := s.commandPermissions(ctx, guildID, cmdID)
			if err != nil {
				errs = append(errs, fmt.Errorf("fetching permissions of %q in %s: %w", c.Name, guildID, err))
				continue
			}
			if perm.EqualsRemote(remote) {
				continue
			}
			if err := s.editPermissions(ctx, guildID, cmdID, perm.ToList()); err != nil {
				errs = append(errs, fmt.Errorf("updating permissions of %q in %s: %w", c.Name, guildID, err))
				continue
			}
			slog.Info("Updated command permissions", "name", c.Name, "guild", guildID)
		}
	}
	return errs
}

// DeleteGlobalCommands removes every remote global command.
func (s *Syncer) DeleteGlobalCommands(ctx context.Context) error {
	list, err := s.listCommands(ctx, "")
	if err != nil {
		return err
	}
	var errs []error
	for _, rc := range list {
		if err := s.deleteCommand(ctx, "", rc.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeleteGuildCommands removes every remote command in one guild. A forbidden
// guild is logged, not an error.
func (s *Syncer) DeleteGuildCommands(ctx context.Context, guildID string) error {
	list, err := s.listCommands(ctx, guildID)
	if err != nil {
		if isForbidden(err) {
			slog.Warn("Got forbidden listing guild commands", "guild", guildID)
			return nil
		}
		return err
	}
	var errs []error
	for _, rc := range list {
		if err := s.deleteCommand(ctx, guildID, rc.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NukeCommands removes every command the bot has registered, global and in
// every member guild.
func (s *Syncer) NukeCommands(ctx context.Context) error {
	errs := []error{s.DeleteGlobalCommands(ctx)}
	for _, guildID := range s.guilds.GuildIDs() {
		errs = append(errs, s.DeleteGuildCommands(ctx, guildID))
	}
	return errors.Join(errs...)
}

// guildCommands returns the cached remote command list for a guild, fetching
// it once. A 403 marks the guild skipped for the rest of the run.
func (s *Syncer) guildCommands(ctx context.Context, guildID string, state *syncState) ([]*discordgo.ApplicationCommand, error) {
	if state.skipped[guildID] {
		return nil, errGuildSkipped
	}
	if list, ok := state.remote[guildID]; ok {
		return list, nil
	}
	list, err := s.listCommands(ctx, guildID)
	if err != nil {
		if isForbidden(err) {
			slog.Warn("Got forbidden listing guild commands, skipping guild", "guild", guildID)
			state.skipped[guildID] = true
			return nil, errGuildSkipped
		}
		return nil, err
	}
	state.remote[guildID] = list
	return list, nil
}

var errGuildSkipped = errors.New("guild skipped")

// --- API calls with rate-limit handling ---

func (s *Syncer) listCommands(ctx context.Context, scope string) ([]*discordgo.ApplicationCommand, error) {
	var list []*discordgo.ApplicationCommand
	err := s.call(ctx, "list", false, func() error {
		var err error
		list, err = s.api.ApplicationCommands(s.appID, scope)
		return err
	})
	return list, err
}

func (s *Syncer) createCommand(ctx context.Context, scope string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	var created *discordgo.ApplicationCommand
	err := s.call(ctx, "create", true, func() error {
		var err error
		created, err = s.api.ApplicationCommandCreate(s.appID, scope, cmd)
		return err
	})
	return created, err
}

func (s *Syncer) editCommand(ctx context.Context, scope, cmdID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	var edited *discordgo.ApplicationCommand
	err := s.call(ctx, "edit", true, func() error {
		var err error
		edited, err = s.api.ApplicationCommandEdit(s.appID, scope, cmdID, cmd)
		return err
	})
	return edited, err
}

func (s *Syncer) deleteCommand(ctx context.Context, scope, cmdID string) error {
	return s.call(ctx, "delete", true, func() error {
		return s.api.ApplicationCommandDelete(s.appID, scope, cmdID)
	})
}

func (s *Syncer) commandPermissions(ctx context.Context, guildID, cmdID string) ([]*discordgo.ApplicationCommandPermissions, error) {
	var perms []*discordgo.ApplicationCommandPermissions
	err := s.call(ctx, "permissions", false, func() error {
		remote, err := s.api.ApplicationCommandPermissions(s.appID, guildID, cmdID)
		if err != nil {
			if isNotFound(err) {
				// no overwrites stored yet
				perms = nil
				return nil
			}
			return err
		}
		perms = remote.Permissions
		return nil
	})
	return perms, err
}

func (s *Syncer) editPermissions(ctx context.Context, guildID, cmdID string, list *discordgo.ApplicationCommandPermissionsList) error {
	return s.call(ctx, "permissions_edit", true, func() error {
		return s.api.ApplicationCommandPermissionsEdit(s.appID, guildID, cmdID, list)
	})
}

// call runs one API call, pacing writes and retrying the identical call
// after the indicated interval on a rate limit. Ordering is preserved: the
// retry happens in place, never as a full resync restart.
func (s *Syncer) call(ctx context.Context, op string, write bool, fn func() error) error {
	for {
		if write {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		err := fn()
		if err == nil {
			metrics.SyncAPICalls.WithLabelValues(op, "ok").Inc()
			return nil
		}
		if delay, ok := retryDelay(err); ok {
			metrics.SyncAPICalls.WithLabelValues(op, "rate_limited").Inc()
			slog.Warn("Rate limited, retrying call", "op", op, "retry_after", delay)
			s.sleep(delay)
			continue
		}
		metrics.SyncAPICalls.WithLabelValues(op, "error").Inc()
		return err
	}
}

func findRemote(list []*discordgo.ApplicationCommand, name string, typ discordgo.ApplicationCommandType) *discordgo.ApplicationCommand {
	for _, rc := range list {
		remoteType := rc.Type
		if remoteType == 0 {
			remoteType = discordgo.ChatApplicationCommand
		}
		if rc.Name == name && remoteType == typ {
			return rc
		}
	}
	return nil
}

func removeRemote(list []*discordgo.ApplicationCommand, id string) []*discordgo.ApplicationCommand {
	out := list[:0]
	for _, rc := range list {
		if rc.ID != id {
			out = append(out, rc)
		}
	}
	return out
}

// declaredFor reports whether some declared command covers the remote
// command in the given scope.
func declaredFor(declared []*Command, rc *discordgo.ApplicationCommand, scope string) bool {
	for _, c := range declared {
		remoteType := rc.Type
		if remoteType == 0 {
			remoteType = discordgo.ChatApplicationCommand
		}
		if c.Name != rc.Name || c.Type != remoteType {
			continue
		}
		if scope == "" && c.IsGlobal() {
			return true
		}
		for _, guildID := range c.GuildIDs {
			if guildID == scope {
				return true
			}
		}
	}
	return false
}

func scopeName(scope string) string {
	if scope == "" {
		return "global"
	}
	return scope
}
