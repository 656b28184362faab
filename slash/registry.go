package slash

import (
	"github.com/bwmarrin/discordgo"
)

type commandKey struct {
	name string
	typ  discordgo.ApplicationCommandType
}

// Registry is the in-memory store of all declared commands and subcommands.
// It is mutated from the main task only (registration, bundle add/remove);
// the router reads it during dispatch and both never interleave.
type Registry struct {
	commands map[commandKey]*Command
	order    []commandKey
	subs     []*Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[commandKey]*Command)}
}

// Add validates and inserts a command. Subcommands are kept separately and
// collapsed into their parents by Gather. A command with aliases is cloned
// once per alias; the canonical entry keeps the alias list, the clones carry
// the alias flag. Re-adding the same (name, type) replaces the earlier entry.
func (r *Registry) Add(c *Command) error {
	if c == nil {
		return invalidArgumentf("cannot add nil command")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	r.insert(c)
	for _, alias := range c.Aliases {
		r.insert(c.cloneAlias(alias))
	}
	return nil
}

func (r *Registry) insert(c *Command) {
	if c.IsSub() {
		for i, existing := range r.subs {
			if existing.Name == c.Name && equalPath(existing.BaseNames, c.BaseNames) {
				r.subs[i] = c
				return
			}
		}
		r.subs = append(r.subs, c)
		return
	}
	k := commandKey{name: c.Name, typ: c.Type}
	if _, exists := r.commands[k]; !exists {
		r.order = append(r.order, k)
	}
	r.commands[k] = c
}

// Remove deletes a command by identity, including any alias clones that were
// created for it.
func (r *Registry) Remove(c *Command) {
	if c == nil {
		return
	}
	if c.IsSub() {
		r.removeSub(func(existing *Command) bool { return existing == c })
		for _, alias := range c.Aliases {
			name := FormatName(alias)
			r.removeSub(func(existing *Command) bool {
				return existing.alias && existing.Name == name && equalPath(existing.BaseNames, c.BaseNames)
			})
		}
		return
	}
	r.removeKey(commandKey{name: c.Name, typ: c.Type})
	for _, alias := range c.Aliases {
		name := alias
		if c.Type == discordgo.ChatApplicationCommand {
			name = FormatName(alias)
		}
		r.removeKey(commandKey{name: name, typ: c.Type})
	}
}

func (r *Registry) removeSub(match func(*Command) bool) {
	for i, existing := range r.subs {
		if match(existing) {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

func (r *Registry) removeKey(k commandKey) {
	if _, ok := r.commands[k]; !ok {
		return
	}
	delete(r.commands, k)
	for i, existing := range r.order {
		if existing == k {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Get returns the declared top-level command with the given name and type,
// or nil.
func (r *Registry) Get(name string, typ discordgo.ApplicationCommandType) *Command {
	return r.commands[commandKey{name: name, typ: typ}]
}

// Resolve maps a command name and traversed subcommand path to the declared
// handler-carrying command. An empty path addresses a top-level command.
func (r *Registry) Resolve(name string, path []string, typ discordgo.ApplicationCommandType) *Command {
	if len(path) == 0 {
		return r.Get(name, typ)
	}
	for _, sub := range r.subs {
		if sub.Name == name && equalPath(sub.BaseNames, path) {
			return sub
		}
	}
	return nil
}

// All returns the declared top-level commands in insertion order.
func (r *Registry) All() []*Command {
	out := make([]*Command, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.commands[k])
	}
	return out
}

// Subcommands returns the declared subcommands in insertion order.
func (r *Registry) Subcommands() []*Command {
	out := make([]*Command, len(r.subs))
	copy(out, r.subs)
	return out
}

// Gather projects the registry into the flattened command tree sent to the
// API. Subcommands sharing a base collapse into one parent command carrying
// SUB_COMMAND / SUB_COMMAND_GROUP options. A parent that was declared
// independently keeps its own scope and permissions; a synthesized parent
// inherits them from its first child. Gather is a pure function of the
// registry: calling it twice without mutation yields identical output.
func (r *Registry) Gather() []*Command {
	out := make([]*Command, 0, len(r.order))
	index := make(map[commandKey]*Command, len(r.order))
	for _, k := range r.order {
		c := r.commands[k].clone()
		index[k] = c
		out = append(out, c)
	}

	for _, sub := range r.subs {
		base := sub.BaseNames[0]
		k := commandKey{name: base, typ: discordgo.ChatApplicationCommand}
		parent := index[k]
		if parent == nil {
			parent = &Command{
				Type:              discordgo.ChatApplicationCommand,
				Name:              base,
				Description:       base,
				DefaultPermission: sub.DefaultPermission,
				MemberPermissions: sub.MemberPermissions,
				GuildIDs:          sub.GuildIDs,
				GuildPermissions:  sub.GuildPermissions,
				Handler:           sub.Handler,
			}
			index[k] = parent
			out = append(out, parent)
		}

		if len(sub.BaseNames) == 1 {
			parent.Options = append(parent.Options, sub.toOption())
			continue
		}

		groupName := sub.BaseNames[1]
		grouped := false
		for i := range parent.Options {
			if parent.Options[i].Type == discordgo.ApplicationCommandOptionSubCommandGroup && parent.Options[i].Name == groupName {
				parent.Options[i].Options = append(parent.Options[i].Options, sub.toOption())
				grouped = true
				break
			}
		}
		if !grouped {
			parent.Options = append(parent.Options, Option{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        groupName,
				Description: groupName,
				Options:     []Option{sub.toOption()},
			})
		}
	}
	return out
}

func equalPath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
