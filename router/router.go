package router

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/brotherelric/discord-ui/components"
	"github.com/brotherelric/discord-ui/internal/metrics"
	"github.com/brotherelric/discord-ui/slash"
)

// maxAutocompleteChoices is Discord's cap on suggestions per response.
const maxAutocompleteChoices = 25

// Session is the slice of the bot session the router needs to answer
// interactions and resolve option targets. *discordgo.Session satisfies it.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
}

// EventFunc receives a named dispatch event right before the handler runs.
// The context is a *slash.Context or *components.Context depending on the
// event.
type EventFunc func(event string, ctx interface{})

// Router classifies incoming interactions and dispatches them to the declared
// command handlers and component listeners. A handler error is logged and
// counted, never propagated to the gateway loop.
type Router struct {
	reg   *slash.Registry
	table *components.Table

	// AutoDefer acknowledges command interactions with a deferred response
	// before the handler runs, keeping the token alive past the 3 second
	// window.
	AutoDefer          bool
	AutoDeferEphemeral bool

	// OnEvent, when set, is called with a named event per dispatched
	// interaction.
	OnEvent EventFunc
}

// New builds a router over a command registry and a component listener table.
func New(reg *slash.Registry, table *components.Table) *Router {
	return &Router{reg: reg, table: table}
}

// HandleFunc returns a handler suitable for Session.AddHandler.
func (r *Router) HandleFunc() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		r.Handle(s, i)
	}
}

// Handle classifies and dispatches one interaction.
func (r *Router) Handle(s Session, i *discordgo.InteractionCreate) {
	kind := interactionKind(i.Type)
	metrics.InteractionsReceived.WithLabelValues(kind).Inc()

	switch i.Type {
	case discordgo.InteractionPing:
		r.handlePing(s, i)
	case discordgo.InteractionApplicationCommand:
		r.handleCommand(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		r.handleAutocomplete(s, i)
	case discordgo.InteractionMessageComponent:
		r.handleComponent(s, i)
	default:
		metrics.InteractionsDropped.WithLabelValues(kind, "unsupported").Inc()
		slog.Debug("Ignoring unsupported interaction", "type", i.Type)
	}
}

func (r *Router) handlePing(s Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponsePong,
	})
	if err != nil {
		slog.Error("Failed to acknowledge ping", "error", err)
	}
}

func (r *Router) handleCommand(s Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	typ := data.CommandType
	if typ == 0 {
		typ = discordgo.ChatApplicationCommand
	}

	leaf, path, valueOpts := walkCommand(&data)
	cmd := r.reg.Resolve(leaf, path, typ)
	if cmd == nil {
		metrics.InteractionsDropped.WithLabelValues("command", "unknown_command").Inc()
		slog.Warn("Dropping interaction for undeclared command", "name", data.Name, "path", path)
		return
	}

	opts, err := parseOptions(s, i, data.Resolved, valueOpts)
	if err != nil {
		metrics.InteractionsDropped.WithLabelValues("command", "parse_error").Inc()
		slog.Error("Failed to parse command options", "name", cmd.Name, "error", err)
		return
	}

	ctx := &slash.Context{
		Session:     s,
		Interaction: i,
		Command:     cmd,
		Path:        path,
		User:        interactionUser(i),
		Options:     opts,
	}
	if data.Resolved != nil && data.TargetID != "" {
		ctx.TargetUser = data.Resolved.Users[data.TargetID]
		ctx.TargetMessage = data.Resolved.Messages[data.TargetID]
	}

	if r.AutoDefer {
		if err := ctx.Defer(r.AutoDeferEphemeral); err != nil {
			slog.Error("Failed to auto-defer interaction", "name", cmd.Name, "error", err)
		}
	}

	r.emit(commandEvent(typ), ctx)

	if err := cmd.Handler(ctx); err != nil {
		metrics.HandlerErrors.WithLabelValues("command", cmd.Name).Inc()
		slog.Error("Command handler failed", "name", cmd.Name, "error", err)
	}
}

func (r *Router) handleAutocomplete(s Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	leaf, path, valueOpts := walkCommand(&data)
	cmd := r.reg.Resolve(leaf, path, discordgo.ChatApplicationCommand)
	if cmd == nil {
		metrics.InteractionsDropped.WithLabelValues("autocomplete", "unknown_command").Inc()
		return
	}

	focused := focusedOption(valueOpts)
	if focused == nil {
		metrics.InteractionsDropped.WithLabelValues("autocomplete", "no_focused_option").Inc()
		return
	}
	declared := cmd.Option(focused.Name)
	if declared == nil || declared.Generator == nil {
		metrics.InteractionsDropped.WithLabelValues("autocomplete", "no_generator").Inc()
		slog.Warn("Autocomplete without a generator", "name", cmd.Name, "option", focused.Name)
		return
	}

	partial, _ := focused.Value.(string)
	actx := &slash.AutocompleteContext{
		Interaction: i,
		Command:     cmd,
		User:        interactionUser(i),
		Focused:     focused.Name,
		Partial:     partial,
		Options:     rawOptions(valueOpts),
	}
	choices, err := declared.Generator(actx)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues("autocomplete", cmd.Name).Inc()
		slog.Error("Choice generator failed", "name", cmd.Name, "option", focused.Name, "error", err)
		return
	}
	if len(choices) > maxAutocompleteChoices {
		choices = choices[:maxAutocompleteChoices]
	}

	wire := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, c := range choices {
		wire = append(wire, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: wire},
	})
	if err != nil {
		slog.Error("Failed to send autocomplete choices", "name", cmd.Name, "error", err)
	}
}

func (r *Router) handleComponent(s Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	ctx := &components.Context{
		Session:     s,
		Interaction: i,
		CustomID:    data.CustomID,
		Kind:        data.ComponentType,
		Values:      data.Values,
		User:        interactionUser(i),
		Message:     i.Message,
	}

	if r.AutoDefer {
		if err := ctx.DeferUpdate(); err != nil {
			slog.Error("Failed to auto-defer component", "custom_id", data.CustomID, "error", err)
		}
	}

	r.emit(componentEvent(data.ComponentType), ctx)

	n, err := r.table.Dispatch(ctx)
	if n == 0 {
		metrics.InteractionsDropped.WithLabelValues("component", "no_listener").Inc()
		slog.Debug("No listener for component", "custom_id", data.CustomID)
	}
	if err != nil {
		metrics.HandlerErrors.WithLabelValues("component", data.CustomID).Inc()
		slog.Error("Component listener failed", "custom_id", data.CustomID, "error", err)
	}
}

func (r *Router) emit(event string, ctx interface{}) {
	if r.OnEvent != nil {
		r.OnEvent(event, ctx)
	}
}

// walkCommand unwraps subcommand and group nesting: it returns the name of
// the handler-carrying command, the traversed base path and the leaf's value
// options.
func walkCommand(data *discordgo.ApplicationCommandInteractionData) (leaf string, path []string, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(data.Options) == 1 {
		first := data.Options[0]
		switch first.Type {
		case discordgo.ApplicationCommandOptionSubCommand:
			return first.Name, []string{data.Name}, first.Options
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			if len(first.Options) == 1 && first.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
				sub := first.Options[0]
				return sub.Name, []string{data.Name, first.Name}, sub.Options
			}
		}
	}
	return data.Name, nil, data.Options
}

func focusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range opts {
		if opt.Focused {
			return opt
		}
	}
	return nil
}

// rawOptions maps the untyped values entered so far, for autocomplete where
// reference kinds stay as ids.
func rawOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) slash.Options {
	out := make(slash.Options, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt.Value
	}
	return out
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func interactionKind(t discordgo.InteractionType) string {
	switch t {
	case discordgo.InteractionPing:
		return "ping"
	case discordgo.InteractionApplicationCommand:
		return "command"
	case discordgo.InteractionApplicationCommandAutocomplete:
		return "autocomplete"
	case discordgo.InteractionMessageComponent:
		return "component"
	case discordgo.InteractionModalSubmit:
		return "modal"
	default:
		return "unknown"
	}
}

func commandEvent(typ discordgo.ApplicationCommandType) string {
	switch typ {
	case discordgo.UserApplicationCommand:
		return "user_command"
	case discordgo.MessageApplicationCommand:
		return "message_command"
	default:
		return "slash_command"
	}
}

func componentEvent(typ discordgo.ComponentType) string {
	if typ == discordgo.SelectMenuComponent {
		return "menu_select"
	}
	return "button_press"
}
