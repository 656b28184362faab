package router

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/brotherelric/discord-ui/slash"
)

// ParseError is returned when an option value could not be converted to its
// declared kind, for example an id with no resolvable target.
type ParseError struct {
	Value interface{}
	Kind  discordgo.ApplicationCommandOptionType
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %v as option type %d: %v", e.Value, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(value interface{}, kind discordgo.ApplicationCommandOptionType, err error) error {
	return &ParseError{Value: value, Kind: kind, Err: err}
}

// parseOptions converts the raw interaction option values into the typed map
// handed to the handler. Reference kinds resolve through the interaction's
// resolved data first and fall back to a client fetch for targets the payload
// did not carry.
func parseOptions(s Session, i *discordgo.InteractionCreate, resolved *discordgo.ApplicationCommandInteractionDataResolved, opts []*discordgo.ApplicationCommandInteractionDataOption) (slash.Options, error) {
	out := make(slash.Options, len(opts))
	for _, opt := range opts {
		value, err := parseOption(s, i, resolved, opt)
		if err != nil {
			return nil, err
		}
		out[opt.Name] = value
	}
	return out, nil
}

func parseOption(s Session, i *discordgo.InteractionCreate, resolved *discordgo.ApplicationCommandInteractionDataResolved, opt *discordgo.ApplicationCommandInteractionDataOption) (interface{}, error) {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionString,
		discordgo.ApplicationCommandOptionBoolean,
		discordgo.ApplicationCommandOptionNumber:
		return opt.Value, nil

	case discordgo.ApplicationCommandOptionInteger:
		// integers arrive as JSON numbers
		if f, ok := opt.Value.(float64); ok {
			return int64(f), nil
		}
		return opt.Value, nil

	case discordgo.ApplicationCommandOptionUser:
		id, err := optionID(opt)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			if u, ok := resolved.Users[id]; ok {
				return u, nil
			}
		}
		u, err := s.User(id)
		if err != nil {
			return nil, parseErr(id, opt.Type, err)
		}
		return u, nil

	case discordgo.ApplicationCommandOptionChannel:
		id, err := optionID(opt)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			if ch, ok := resolved.Channels[id]; ok {
				return ch, nil
			}
		}
		ch, err := s.Channel(id)
		if err != nil {
			return nil, parseErr(id, opt.Type, err)
		}
		return ch, nil

	case discordgo.ApplicationCommandOptionRole:
		id, err := optionID(opt)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			if role, ok := resolved.Roles[id]; ok {
				return role, nil
			}
		}
		role, err := fetchRole(s, i.GuildID, id)
		if err != nil {
			return nil, parseErr(id, opt.Type, err)
		}
		return role, nil

	case discordgo.ApplicationCommandOptionMentionable:
		id, err := optionID(opt)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			if u, ok := resolved.Users[id]; ok {
				return u, nil
			}
			if role, ok := resolved.Roles[id]; ok {
				return role, nil
			}
		}
		if u, err := s.User(id); err == nil {
			return u, nil
		}
		role, err := fetchRole(s, i.GuildID, id)
		if err != nil {
			return nil, parseErr(id, opt.Type, err)
		}
		return role, nil

	default:
		return nil, parseErr(opt.Value, opt.Type, fmt.Errorf("unsupported option type"))
	}
}

func optionID(opt *discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	id, ok := opt.Value.(string)
	if !ok || id == "" {
		return "", parseErr(opt.Value, opt.Type, fmt.Errorf("expected a snowflake id"))
	}
	return id, nil
}

func fetchRole(s Session, guildID, roleID string) (*discordgo.Role, error) {
	if guildID == "" {
		return nil, fmt.Errorf("role option outside a guild")
	}
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role, nil
		}
	}
	return nil, fmt.Errorf("role %s not in guild %s", roleID, guildID)
}
