package slash

import (
	"github.com/bwmarrin/discordgo"
)

// maxBaseNames is Discord's nesting limit: /base [group] name.
const maxBaseNames = 2

// Handler is the callback invoked when a command interaction resolves to a
// declared command. Parsed option values and the interaction target are
// carried by the context.
type Handler func(ctx *Context) error

// Command is a declared application command: a chat command, a subcommand
// addressed by one or two base names, or a user/message context command.
// Identity is (name, type); the registration scope is global unless GuildIDs
// is set.
type Command struct {
	Type        discordgo.ApplicationCommandType
	Name        string
	Description string

	// BaseNames is the subcommand path of length 1 or 2. Empty for
	// top-level commands.
	BaseNames []string

	// Options are the declared parameters. Chat commands only.
	Options []Option

	// DefaultPermission mirrors the API's boolean default_permission.
	DefaultPermission bool

	// MemberPermissions is the permission-bitmask variant. When set it is
	// sent as default_member_permissions and wins over DefaultPermission.
	MemberPermissions *int64

	// GuildIDs lists the target guild scopes. Empty means global.
	GuildIDs []string

	// GuildPermissions maps a guild id to per-command overrides for that
	// guild.
	GuildPermissions map[string]*Permission

	// Aliases are additional names the command is registered under. The
	// registry clones the command once per alias.
	Aliases []string

	Handler Handler

	alias bool
	ids   map[string]string
}

// NewCommand builds a validated chat command. The name is normalized; the
// description falls back to the name when empty.
func NewCommand(name, description string, handler Handler) (*Command, error) {
	c := &Command{
		Type:              discordgo.ChatApplicationCommand,
		Name:              FormatName(name),
		Description:       description,
		DefaultPermission: true,
		Handler:           handler,
	}
	if c.Description == "" {
		c.Description = c.Name
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewSubcommand builds a chat subcommand reachable as /base [group] name.
func NewSubcommand(baseNames []string, name, description string, handler Handler) (*Command, error) {
	c, err := NewCommand(name, description, handler)
	if err != nil {
		return nil, err
	}
	if len(baseNames) == 0 || len(baseNames) > maxBaseNames {
		return nil, invalidArgumentf("subcommands need 1 or 2 base names, got %d", len(baseNames))
	}
	for _, base := range baseNames {
		c.BaseNames = append(c.BaseNames, FormatName(base))
	}
	for _, base := range c.BaseNames {
		if n := len(base); n < minNameLength || n > maxNameLength {
			return nil, &InvalidLengthError{Field: "base name", Min: minNameLength, Max: maxNameLength, Got: n}
		}
	}
	return c, nil
}

// NewUserCommand builds a user context menu command. Context commands have no
// description and no options, and their name keeps its casing.
func NewUserCommand(name string, handler Handler) (*Command, error) {
	return newContextCommand(discordgo.UserApplicationCommand, name, handler)
}

// NewMessageCommand builds a message context menu command.
func NewMessageCommand(name string, handler Handler) (*Command, error) {
	return newContextCommand(discordgo.MessageApplicationCommand, name, handler)
}

func newContextCommand(typ discordgo.ApplicationCommandType, name string, handler Handler) (*Command, error) {
	c := &Command{Type: typ, Name: name, DefaultPermission: true, Handler: handler}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// IsContext reports whether the command is a user or message context command.
func (c *Command) IsContext() bool {
	return c.Type == discordgo.UserApplicationCommand || c.Type == discordgo.MessageApplicationCommand
}

// IsSub reports whether the command is addressed through base names.
func (c *Command) IsSub() bool {
	return len(c.BaseNames) > 0
}

// IsGlobal reports whether the command targets the global scope.
func (c *Command) IsGlobal() bool {
	return len(c.GuildIDs) == 0
}

// IsAlias reports whether this entry is an alias clone of another command.
func (c *Command) IsAlias() bool {
	return c.alias
}

// SetID records the id the remote API assigned to the command in the given
// scope ("" for global). Called by the synchronizer only.
func (c *Command) SetID(scope, id string) {
	if c.ids == nil {
		c.ids = make(map[string]string)
	}
	c.ids[scope] = id
}

// ID returns the remote id for a scope, or "" when the command was not
// created there yet.
func (c *Command) ID(scope string) string {
	return c.ids[scope]
}

// Validate checks the declaration-time invariants of the command.
func (c *Command) Validate() error {
	if c.Handler == nil {
		return ErrNilHandler
	}
	if n := len(c.Name); n < minNameLength || n > maxNameLength {
		return &InvalidLengthError{Field: "name", Min: minNameLength, Max: maxNameLength, Got: n}
	}
	if c.IsContext() {
		if c.Description != "" {
			return invalidArgumentf("context command %q cannot have a description", c.Name)
		}
		if len(c.Options) > 0 {
			return invalidArgumentf("context command %q cannot have options", c.Name)
		}
		return nil
	}
	if n := len(c.Description); n < minDescriptionLength || n > maxDescriptionLength {
		return &InvalidLengthError{Field: "description", Min: minDescriptionLength, Max: maxDescriptionLength, Got: n}
	}
	for _, o := range c.Options {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	for guildID, perm := range c.GuildPermissions {
		if guildID == "" {
			return invalidArgumentf("guild permission entry with empty guild id on %q", c.Name)
		}
		_ = perm
	}
	return nil
}

// Option returns the declared option with the given name, walking one level
// of subcommand/group nesting, or nil.
func (c *Command) Option(name string) *Option {
	return findOption(c.Options, name)
}

func findOption(options []Option, name string) *Option {
	for i := range options {
		if options[i].Name == name {
			return &options[i]
		}
		if options[i].isNested() {
			if found := findOption(options[i].Options, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// ToApplication converts the command to the wire representation sent to the
// command API.
func (c *Command) ToApplication() *discordgo.ApplicationCommand {
	out := &discordgo.ApplicationCommand{
		Type:        c.Type,
		Name:        c.Name,
		Description: c.Description,
	}
	if c.MemberPermissions != nil {
		perms := *c.MemberPermissions
		out.DefaultMemberPermissions = &perms
	} else {
		allowed := c.DefaultPermission
		out.DefaultPermission = &allowed
	}
	out.Options = []*discordgo.ApplicationCommandOption{}
	for _, o := range c.Options {
		out.Options = append(out.Options, o.ToApplication())
	}
	return out
}

// toOption converts a subcommand to the SUB_COMMAND option nested under its
// gathered parent.
func (c *Command) toOption() Option {
	return Option{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        c.Name,
		Description: c.Description,
		Options:     c.Options,
	}
}

// EqualsRemote reports whether the declared command matches an API-returned
// command by value: type, name, description, options and default permission.
// Used by the synchronizer to detect no-op updates.
func (c *Command) EqualsRemote(remote *discordgo.ApplicationCommand) bool {
	if remote == nil {
		return false
	}
	remoteType := remote.Type
	if remoteType == 0 {
		remoteType = discordgo.ChatApplicationCommand
	}
	if c.Type != remoteType || c.Name != remote.Name || c.Description != remote.Description {
		return false
	}
	if len(c.Options) != len(remote.Options) {
		return false
	}
	for i, o := range c.Options {
		if !o.EqualsApplication(remote.Options[i]) {
			return false
		}
	}
	if c.MemberPermissions != nil {
		return remote.DefaultMemberPermissions != nil && *remote.DefaultMemberPermissions == *c.MemberPermissions
	}
	remoteDefault := true
	if remote.DefaultPermission != nil {
		remoteDefault = *remote.DefaultPermission
	}
	return remoteDefault == c.DefaultPermission
}

// cloneAlias returns a copy of the command registered under an alias name.
// The clone shares the handler and scope but carries the alias flag.
func (c *Command) cloneAlias(name string) *Command {
	clone := *c
	if c.Type == discordgo.ChatApplicationCommand {
		clone.Name = FormatName(name)
	} else {
		clone.Name = name
	}
	clone.Aliases = nil
	clone.alias = true
	clone.ids = nil
	return &clone
}

// clone returns a deep enough copy for Gather to augment without mutating
// the declared command. The id map is shared so that ids the synchronizer
// records on a gathered copy show up on the declared command.
func (c *Command) clone() *Command {
	if c.ids == nil {
		c.ids = make(map[string]string)
	}
	clone := *c
	clone.Options = make([]Option, len(c.Options))
	copy(clone.Options, c.Options)
	return &clone
}
