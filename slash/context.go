package slash

import (
	"github.com/bwmarrin/discordgo"
)

// Responder is the slice of the bot session used to answer interactions.
// *discordgo.Session satisfies it.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Options holds the parsed option values of one invocation, keyed by option
// name. Reference kinds are stored as resolved objects.
type Options map[string]interface{}

// Context is the per-interaction invocation context handed to a command
// handler. It is built fresh for every incoming event and never persisted.
type Context struct {
	Session     Responder
	Interaction *discordgo.InteractionCreate

	// Command is the declared command the interaction resolved to.
	Command *Command

	// Path is the traversed subcommand path, empty for top-level commands.
	Path []string

	// User is the invoking user, taken from the member in guilds and the
	// user object in DMs.
	User *discordgo.User

	Options Options

	// TargetUser is set for user context commands.
	TargetUser *discordgo.User

	// TargetMessage is set for message context commands.
	TargetMessage *discordgo.Message

	deferred bool
}

// Deferred reports whether a deferred acknowledgment was already sent for
// this interaction.
func (ctx *Context) Deferred() bool {
	return ctx.deferred
}

// MarkDeferred records that the interaction was acknowledged with a deferred
// response. Follow-up replies must go through Followup or Edit.
func (ctx *Context) MarkDeferred() {
	ctx.deferred = true
}

// String returns the named string option, or "" when absent.
func (ctx *Context) String(name string) string {
	v, _ := ctx.Options[name].(string)
	return v
}

// Int returns the named integer option, or 0 when absent.
func (ctx *Context) Int(name string) int64 {
	switch v := ctx.Options[name].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Bool returns the named boolean option.
func (ctx *Context) Bool(name string) bool {
	v, _ := ctx.Options[name].(bool)
	return v
}

// Float returns the named number option.
func (ctx *Context) Float(name string) float64 {
	v, _ := ctx.Options[name].(float64)
	return v
}

// UserOption returns the named resolved user option, or nil.
func (ctx *Context) UserOption(name string) *discordgo.User {
	v, _ := ctx.Options[name].(*discordgo.User)
	return v
}

// ChannelOption returns the named resolved channel option, or nil.
func (ctx *Context) ChannelOption(name string) *discordgo.Channel {
	v, _ := ctx.Options[name].(*discordgo.Channel)
	return v
}

// RoleOption returns the named resolved role option, or nil.
func (ctx *Context) RoleOption(name string) *discordgo.Role {
	v, _ := ctx.Options[name].(*discordgo.Role)
	return v
}

// Respond sends a public message response.
func (ctx *Context) Respond(content string) error {
	return ctx.respond(content, 0)
}

// RespondEphemeral sends an ephemeral message response.
func (ctx *Context) RespondEphemeral(content string) error {
	return ctx.respond(content, discordgo.MessageFlagsEphemeral)
}

func (ctx *Context) respond(content string, flags discordgo.MessageFlags) error {
	if ctx.deferred {
		_, err := ctx.Session.FollowupMessageCreate(ctx.Interaction.Interaction, true, &discordgo.WebhookParams{
			Content: content,
			Flags:   flags,
		})
		return err
	}
	return ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
	})
}

// Defer acknowledges the interaction without a reply, keeping the token
// alive past the 3 second window.
func (ctx *Context) Defer(ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	if err == nil {
		ctx.deferred = true
	}
	return err
}

// Edit replaces the content of the original response.
func (ctx *Context) Edit(content string) error {
	_, err := ctx.Session.InteractionResponseEdit(ctx.Interaction.Interaction, &discordgo.WebhookEdit{Content: &content})
	return err
}

// Followup sends a follow-up message after the first response.
func (ctx *Context) Followup(content string, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_, err := ctx.Session.FollowupMessageCreate(ctx.Interaction.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   flags,
	})
	return err
}

// AutocompleteContext is handed to a choice generator while the user is
// typing. Options carries the values entered so far; Focused names the option
// being completed.
type AutocompleteContext struct {
	Interaction *discordgo.InteractionCreate
	Command     *Command
	User        *discordgo.User

	// Focused is the name of the option the user is currently typing.
	Focused string

	// Partial is the raw value entered so far for the focused option.
	Partial string

	Options Options
}
