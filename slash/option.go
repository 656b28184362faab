package slash

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minNameLength        = 1
	maxNameLength        = 32
	minDescriptionLength = 1
	maxDescriptionLength = 100
)

var lower = cases.Lower(language.Und)

// FormatName normalizes a command name the way Discord expects it: lowercased
// with spaces replaced by dashes. Normalizing an already normalized name is a
// no-op.
func FormatName(name string) string {
	return strings.ReplaceAll(lower.String(name), " ", "-")
}

// formatOptionName normalizes an option name. Options use underscores instead
// of the dashes used for command names.
func formatOptionName(name string) string {
	return strings.ReplaceAll(lower.String(name), " ", "_")
}

// AnyToType resolves a user supplied type hint to a command option type. It
// accepts an already resolved discordgo type, a raw integer, or a string
// alias such as "str", "user" or "mentionable".
func AnyToType(hint interface{}) (discordgo.ApplicationCommandOptionType, error) {
	switch v := hint.(type) {
	case discordgo.ApplicationCommandOptionType:
		if v < discordgo.ApplicationCommandOptionSubCommand || v > discordgo.ApplicationCommandOptionNumber {
			return 0, invalidArgumentf("no option type with value %d", v)
		}
		return v, nil
	case int:
		return AnyToType(discordgo.ApplicationCommandOptionType(v))
	case string:
		switch strings.ToLower(v) {
		case "str", "string":
			return discordgo.ApplicationCommandOptionString, nil
		case "int", "integer":
			return discordgo.ApplicationCommandOptionInteger, nil
		case "bool", "boolean":
			return discordgo.ApplicationCommandOptionBoolean, nil
		case "user", "member", "usr", "mbr":
			return discordgo.ApplicationCommandOptionUser, nil
		case "channel", "textchannel", "txtchannel":
			return discordgo.ApplicationCommandOptionChannel, nil
		case "role":
			return discordgo.ApplicationCommandOptionRole, nil
		case "mentionable", "mention":
			return discordgo.ApplicationCommandOptionMentionable, nil
		case "float", "number", "f":
			return discordgo.ApplicationCommandOptionNumber, nil
		}
		return 0, invalidArgumentf("no option type matches %q", v)
	default:
		return 0, &WrongTypeError{Field: "type hint", Value: hint, Expected: "ApplicationCommandOptionType, int or string"}
	}
}

// Choice is a single name/value pair a user can pick for an option.
type Choice struct {
	Name  string
	Value interface{}
}

// ChoiceGenerator produces autocomplete choices while the user is still
// typing an option value.
type ChoiceGenerator func(ctx *AutocompleteContext) ([]Choice, error)

// Option is a typed parameter of a slash command. Subcommand and
// subcommand-group options carry nested options instead of a value.
type Option struct {
	Type         discordgo.ApplicationCommandOptionType
	Name         string
	Description  string
	Required     bool
	Choices      []Choice
	Autocomplete bool
	Generator    ChoiceGenerator
	Options      []Option
}

// NewOption builds a validated leaf option. The type hint is resolved through
// AnyToType; the description falls back to the name when empty.
func NewOption(hint interface{}, name, description string) (Option, error) {
	typ, err := AnyToType(hint)
	if err != nil {
		return Option{}, err
	}
	o := Option{Type: typ, Name: formatOptionName(name), Description: description}
	if o.Description == "" {
		o.Description = o.Name
	}
	if err := o.Validate(); err != nil {
		return Option{}, err
	}
	return o, nil
}

// WithRequired marks the option as required.
func (o Option) WithRequired() Option {
	o.Required = true
	return o
}

// WithChoices attaches fixed choices. Mutually exclusive with a choice
// generator; enforced by Validate.
func (o Option) WithChoices(choices ...Choice) Option {
	o.Choices = choices
	return o
}

// WithGenerator attaches an autocomplete choice generator and flags the
// option for autocomplete.
func (o Option) WithGenerator(g ChoiceGenerator) Option {
	o.Generator = g
	o.Autocomplete = true
	return o
}

func (o Option) isNested() bool {
	return o.Type == discordgo.ApplicationCommandOptionSubCommand ||
		o.Type == discordgo.ApplicationCommandOptionSubCommandGroup
}

// Validate checks the declaration-time invariants of the option and all
// nested options.
func (o Option) Validate() error {
	if n := len(o.Name); n < minNameLength || n > maxNameLength {
		return &InvalidLengthError{Field: "option name", Min: minNameLength, Max: maxNameLength, Got: n}
	}
	if n := len(o.Description); n < minDescriptionLength || n > maxDescriptionLength {
		return &InvalidLengthError{Field: "option description", Min: minDescriptionLength, Max: maxDescriptionLength, Got: n}
	}
	if o.Autocomplete && len(o.Choices) > 0 {
		return invalidArgumentf("option %q cannot have both choices and autocomplete", o.Name)
	}
	if len(o.Options) > 0 && !o.isNested() {
		return invalidArgumentf("option %q carries nested options but is not a subcommand or group", o.Name)
	}
	for _, nested := range o.Options {
		if err := nested.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToApplication converts the option to the wire representation used by the
// command API.
func (o Option) ToApplication() *discordgo.ApplicationCommandOption {
	out := &discordgo.ApplicationCommandOption{
		Type:         o.Type,
		Name:         o.Name,
		Description:  o.Description,
		Required:     o.Required,
		Autocomplete: o.Autocomplete,
	}
	for _, c := range o.Choices {
		out.Choices = append(out.Choices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
	}
	for _, nested := range o.Options {
		out.Options = append(out.Options, nested.ToApplication())
	}
	return out
}

// EqualsApplication reports whether the option matches its wire
// representation, treating absent and empty collections as equal.
func (o Option) EqualsApplication(remote *discordgo.ApplicationCommandOption) bool {
	if remote == nil {
		return false
	}
	if o.Type != remote.Type || o.Name != remote.Name || o.Description != remote.Description {
		return false
	}
	if o.Required != remote.Required || o.Autocomplete != remote.Autocomplete {
		return false
	}
	if len(o.Choices) != len(remote.Choices) {
		return false
	}
	for i, c := range o.Choices {
		if remote.Choices[i] == nil || c.Name != remote.Choices[i].Name || !choiceValueEqual(c.Value, remote.Choices[i].Value) {
			return false
		}
	}
	if len(o.Options) != len(remote.Options) {
		return false
	}
	for i, nested := range o.Options {
		if !nested.EqualsApplication(remote.Options[i]) {
			return false
		}
	}
	return true
}

// choiceValueEqual compares a declared choice value with one decoded from
// JSON, where all numbers come back as float64.
func choiceValueEqual(local, remote interface{}) bool {
	if local == remote {
		return true
	}
	lf, lok := asFloat(local)
	rf, rok := asFloat(remote)
	return lok && rok && lf == rf
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
