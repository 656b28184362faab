package components

import (
	"github.com/bwmarrin/discordgo"
)

// Responder is the slice of the bot session used to answer component
// interactions. *discordgo.Session satisfies it.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Context is the per-interaction context handed to a component listener.
type Context struct {
	Session     Responder
	Interaction *discordgo.InteractionCreate

	// CustomID is the custom id of the pressed button or submitted select.
	CustomID string

	// Kind is the component type that produced the interaction.
	Kind discordgo.ComponentType

	// Values carries the selected values of a select menu, nil for buttons.
	Values []string

	// User is the interacting user.
	User *discordgo.User

	// Message is the message the component lives on.
	Message *discordgo.Message

	deferred bool
}

// Deferred reports whether a deferred acknowledgment was already sent for
// this interaction.
func (ctx *Context) Deferred() bool {
	return ctx.deferred
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

// UpdateMessage edits the message the component lives on in place.
func (ctx *Context) UpdateMessage(content string) error {
	return ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

// DeferUpdate acknowledges the interaction without any visible change.
// Later replies must go through Followup.
func (ctx *Context) DeferUpdate() error {
	err := ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err == nil {
		ctx.deferred = true
	}
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
