package slash

import "github.com/bwmarrin/discordgo"

// PermissionEntry is one allow/deny override for a role or user.
type PermissionEntry struct {
	TargetID string
	Kind     discordgo.ApplicationCommandPermissionType
	Allow    bool
}

// Permission is an ordered list of per-target overrides for one command in
// one guild. Equality with the remote representation is set equality, not
// list order.
type Permission struct {
	entries []PermissionEntry
}

// NewPermission returns an empty permission set.
func NewPermission() *Permission {
	return &Permission{}
}

// Allow adds an allow entry. Conflicting entries for the same target within
// one permission set are rejected rather than silently resolved.
func (p *Permission) Allow(targetID string, kind discordgo.ApplicationCommandPermissionType) error {
	return p.add(PermissionEntry{TargetID: targetID, Kind: kind, Allow: true})
}

// Deny adds a deny entry.
func (p *Permission) Deny(targetID string, kind discordgo.ApplicationCommandPermissionType) error {
	return p.add(PermissionEntry{TargetID: targetID, Kind: kind, Allow: false})
}

// AllowUser adds an allow entry for a user id.
func (p *Permission) AllowUser(userID string) error {
	return p.Allow(userID, discordgo.ApplicationCommandPermissionTypeUser)
}

// AllowRole adds an allow entry for a role id.
func (p *Permission) AllowRole(roleID string) error {
	return p.Allow(roleID, discordgo.ApplicationCommandPermissionTypeRole)
}

// DenyUser adds a deny entry for a user id.
func (p *Permission) DenyUser(userID string) error {
	return p.Deny(userID, discordgo.ApplicationCommandPermissionTypeUser)
}

// DenyRole adds a deny entry for a role id.
func (p *Permission) DenyRole(roleID string) error {
	return p.Deny(roleID, discordgo.ApplicationCommandPermissionTypeRole)
}

func (p *Permission) add(e PermissionEntry) error {
	for _, existing := range p.entries {
		if existing.TargetID == e.TargetID && existing.Kind == e.Kind {
			if existing.Allow != e.Allow {
				return invalidArgumentf("conflicting permission entries for target %s", e.TargetID)
			}
			return nil
		}
	}
	p.entries = append(p.entries, e)
	return nil
}

// Entries returns a copy of the entries in insertion order.
func (p *Permission) Entries() []PermissionEntry {
	if p == nil {
		return nil
	}
	out := make([]PermissionEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// IsEmpty reports whether the set carries no overrides.
func (p *Permission) IsEmpty() bool {
	return p == nil || len(p.entries) == 0
}

// ToList converts the set to the wire representation accepted by the
// permission endpoint.
func (p *Permission) ToList() *discordgo.ApplicationCommandPermissionsList {
	list := &discordgo.ApplicationCommandPermissionsList{}
	if p == nil {
		return list
	}
	for _, e := range p.entries {
		list.Permissions = append(list.Permissions, &discordgo.ApplicationCommandPermissions{
			ID:         e.TargetID,
			Type:       e.Kind,
			Permission: e.Allow,
		})
	}
	return list
}

// EqualsRemote reports whether the declared set matches the remote overwrite
// list, ignoring order.
func (p *Permission) EqualsRemote(remote []*discordgo.ApplicationCommandPermissions) bool {
	var entries []PermissionEntry
	if p != nil {
		entries = p.entries
	}
	if len(entries) != len(remote) {
		return false
	}
	for _, e := range entries {
		found := false
		for _, r := range remote {
			if r != nil && r.ID == e.TargetID && r.Type == e.Kind && r.Permission == e.Allow {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
