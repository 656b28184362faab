package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/brotherelric/discord-ui/components"
	"github.com/brotherelric/discord-ui/slash"
)

type mockSession struct {
	respondFunc func(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	userFunc    func(userID string) (*discordgo.User, error)
	channelFunc func(channelID string) (*discordgo.Channel, error)
	rolesFunc   func(guildID string) ([]*discordgo.Role, error)

	responses []*discordgo.InteractionResponse
}

func (m *mockSession) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error {
	m.responses = append(m.responses, resp)
	if m.respondFunc != nil {
		return m.respondFunc(i, resp)
	}
	return nil
}

func (m *mockSession) InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (m *mockSession) FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (m *mockSession) User(userID string, opts ...discordgo.RequestOption) (*discordgo.User, error) {
	if m.userFunc != nil {
		return m.userFunc(userID)
	}
	return nil, errors.New("not found")
}

func (m *mockSession) Channel(channelID string, opts ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if m.channelFunc != nil {
		return m.channelFunc(channelID)
	}
	return nil, errors.New("not found")
}

func (m *mockSession) GuildRoles(guildID string, opts ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	if m.rolesFunc != nil {
		return m.rolesFunc(guildID)
	}
	return nil, errors.New("not found")
}

func newTestRouter(t *testing.T) (*Router, *slash.Registry, *components.Table) {
	t.Helper()
	reg := slash.NewRegistry()
	table := components.NewTable()
	return New(reg, table), reg, table
}

func addCommand(t *testing.T, reg *slash.Registry, name, description string, h slash.Handler) *slash.Command {
	t.Helper()
	c, err := slash.NewCommand(name, description, h)
	if err != nil {
		t.Fatalf("declaring %q: %v", name, err)
	}
	if err := reg.Add(c); err != nil {
		t.Fatalf("adding %q: %v", name, err)
	}
	return c
}

func commandInteraction(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
			User: &discordgo.User{ID: "user-1", Username: "tester"},
		},
	}
}

func TestRouter_Handle_PingIsAcknowledged(t *testing.T) {
	r, _, _ := newTestRouter(t)
	session := &mockSession{}

	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing},
	})

	if len(session.responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(session.responses))
	}
	if session.responses[0].Type != discordgo.InteractionResponsePong {
		t.Errorf("expected pong, got type %d", session.responses[0].Type)
	}
}

func TestRouter_Handle_DispatchesTopLevelCommand(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	var got *slash.Context
	addCommand(t, reg, "ping", "Pong!", func(ctx *slash.Context) error {
		got = ctx
		return ctx.Respond("Pong!")
	})

	r.Handle(session, commandInteraction("ping"))

	if got == nil {
		t.Fatal("handler was not invoked")
	}
	if got.User == nil || got.User.ID != "user-1" {
		t.Error("context should carry the invoking user")
	}
	if len(session.responses) != 1 {
		t.Fatalf("expected exactly one response, got %d", len(session.responses))
	}
	if session.responses[0].Data.Content != "Pong!" {
		t.Errorf("unexpected response content %q", session.responses[0].Data.Content)
	}
}

func TestRouter_Handle_ResolvesSubcommandPath(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	var sum int64
	add, err := slash.NewSubcommand([]string{"math"}, "add", "Add two numbers", func(ctx *slash.Context) error {
		sum = ctx.Int("a") + ctx.Int("b")
		return nil
	})
	if err != nil {
		t.Fatalf("declaring add: %v", err)
	}
	if err := reg.Add(add); err != nil {
		t.Fatalf("adding add: %v", err)
	}

	r.Handle(session, commandInteraction("math", &discordgo.ApplicationCommandInteractionDataOption{
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Name: "add",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "a", Value: float64(2)},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "b", Value: float64(40)},
		},
	}))

	if sum != 42 {
		t.Errorf("expected handler to compute 42, got %d", sum)
	}
}

func TestRouter_Handle_ResolvesGroupedSubcommand(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	called := false
	sub, err := slash.NewSubcommand([]string{"admin", "roles"}, "grant", "Grant a role", func(ctx *slash.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("declaring grant: %v", err)
	}
	if err := reg.Add(sub); err != nil {
		t.Fatalf("adding grant: %v", err)
	}

	r.Handle(session, commandInteraction("admin", &discordgo.ApplicationCommandInteractionDataOption{
		Type: discordgo.ApplicationCommandOptionSubCommandGroup,
		Name: "roles",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "grant"},
		},
	}))

	if !called {
		t.Error("grouped subcommand handler was not invoked")
	}
}

func TestRouter_Handle_DropsUndeclaredCommand(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	called := false
	addCommand(t, reg, "known", "A declared command", func(ctx *slash.Context) error {
		called = true
		return nil
	})

	r.Handle(session, commandInteraction("unknown"))

	if called {
		t.Error("handler must not run for an undeclared command")
	}
	if len(session.responses) != 0 {
		t.Error("dropped interaction must not be answered")
	}
}

func TestRouter_Handle_AutoDeferRunsBeforeHandler(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	r.AutoDefer = true
	r.AutoDeferEphemeral = true
	session := &mockSession{}

	var deferredInHandler bool
	var responsesBeforeHandler int
	addCommand(t, reg, "slow", "Long running command", func(ctx *slash.Context) error {
		deferredInHandler = ctx.Deferred()
		responsesBeforeHandler = len(session.responses)
		return nil
	})

	r.Handle(session, commandInteraction("slow"))

	if !deferredInHandler {
		t.Error("context should be marked deferred before the handler runs")
	}
	if responsesBeforeHandler != 1 {
		t.Fatalf("expected the deferred ack before the handler, got %d responses", responsesBeforeHandler)
	}
	ack := session.responses[0]
	if ack.Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Errorf("expected deferred ack, got type %d", ack.Type)
	}
	if ack.Data.Flags != discordgo.MessageFlagsEphemeral {
		t.Error("expected ephemeral deferred ack")
	}
}

func TestRouter_Handle_HandlerErrorIsContained(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	addCommand(t, reg, "broken", "Always fails", func(ctx *slash.Context) error {
		return errors.New("boom")
	})

	// must not panic or answer on the handler's behalf
	r.Handle(session, commandInteraction("broken"))

	if len(session.responses) != 0 {
		t.Errorf("expected no responses, got %d", len(session.responses))
	}
}

func TestRouter_Handle_UserCommandCarriesTarget(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	var target *discordgo.User
	cmd, err := slash.NewUserCommand("Report User", func(ctx *slash.Context) error {
		target = ctx.TargetUser
		return nil
	})
	if err != nil {
		t.Fatalf("declaring user command: %v", err)
	}
	if err := reg.Add(cmd); err != nil {
		t.Fatalf("adding user command: %v", err)
	}

	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:        "Report User",
				CommandType: discordgo.UserApplicationCommand,
				TargetID:    "target-1",
				Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
					Users: map[string]*discordgo.User{"target-1": {ID: "target-1", Username: "offender"}},
				},
			},
			User: &discordgo.User{ID: "user-1"},
		},
	})

	if target == nil || target.ID != "target-1" {
		t.Errorf("expected resolved target user, got %v", target)
	}
}

func TestRouter_Handle_AutocompleteRespondsWithChoices(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	opt, err := slash.NewOption("str", "city", "City to look up")
	if err != nil {
		t.Fatalf("declaring option: %v", err)
	}
	opt = opt.WithGenerator(func(ctx *slash.AutocompleteContext) ([]slash.Choice, error) {
		if ctx.Partial != "ber" {
			t.Errorf("expected partial %q, got %q", "ber", ctx.Partial)
		}
		return []slash.Choice{{Name: "Berlin", Value: "berlin"}, {Name: "Bern", Value: "bern"}}, nil
	})

	cmd, err := slash.NewCommand("weather", "Weather lookup", func(ctx *slash.Context) error { return nil })
	if err != nil {
		t.Fatalf("declaring weather: %v", err)
	}
	cmd.Options = []slash.Option{opt}
	if err := reg.Add(cmd); err != nil {
		t.Fatalf("adding weather: %v", err)
	}

	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommandAutocomplete,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: "weather",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "city", Value: "ber", Focused: true},
				},
			},
			User: &discordgo.User{ID: "user-1"},
		},
	})

	if len(session.responses) != 1 {
		t.Fatalf("expected one autocomplete response, got %d", len(session.responses))
	}
	resp := session.responses[0]
	if resp.Type != discordgo.InteractionApplicationCommandAutocompleteResult {
		t.Fatalf("expected autocomplete result, got type %d", resp.Type)
	}
	if len(resp.Data.Choices) != 2 || resp.Data.Choices[0].Name != "Berlin" {
		t.Errorf("unexpected choices %v", resp.Data.Choices)
	}
}

func TestRouter_Handle_AutocompleteCapsChoices(t *testing.T) {
	r, reg, _ := newTestRouter(t)
	session := &mockSession{}

	opt, err := slash.NewOption("str", "item", "Item name")
	if err != nil {
		t.Fatalf("declaring option: %v", err)
	}
	opt = opt.WithGenerator(func(ctx *slash.AutocompleteContext) ([]slash.Choice, error) {
		choices := make([]slash.Choice, 40)
		for i := range choices {
			choices[i] = slash.Choice{Name: fmt.Sprintf("item-%d", i), Value: i}
		}
		return choices, nil
	})

	cmd, err := slash.NewCommand("shop", "Shop lookup", func(ctx *slash.Context) error { return nil })
	if err != nil {
		t.Fatalf("declaring shop: %v", err)
	}
	cmd.Options = []slash.Option{opt}
	if err := reg.Add(cmd); err != nil {
		t.Fatalf("adding shop: %v", err)
	}

	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommandAutocomplete,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: "shop",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "item", Value: "", Focused: true},
				},
			},
			User: &discordgo.User{ID: "user-1"},
		},
	})

	if len(session.responses) != 1 {
		t.Fatalf("expected one response, got %d", len(session.responses))
	}
	if got := len(session.responses[0].Data.Choices); got != maxAutocompleteChoices {
		t.Errorf("expected choices capped at %d, got %d", maxAutocompleteChoices, got)
	}
}

func TestRouter_Handle_ComponentDispatch(t *testing.T) {
	r, _, table := newTestRouter(t)
	session := &mockSession{}

	var got *components.Context
	if err := table.On("role-picker", func(ctx *components.Context) error {
		got = ctx
		return nil
	}); err != nil {
		t.Fatalf("registering listener: %v", err)
	}

	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				CustomID:      "role-picker",
				ComponentType: discordgo.SelectMenuComponent,
				Values:        []string{"role-1"},
			},
			Message: &discordgo.Message{ID: "msg-1"},
			Member:  &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
		},
	})

	if got == nil {
		t.Fatal("listener was not invoked")
	}
	if got.Kind != discordgo.SelectMenuComponent {
		t.Errorf("expected select kind, got %d", got.Kind)
	}
	if len(got.Values) != 1 || got.Values[0] != "role-1" {
		t.Errorf("expected selected values, got %v", got.Values)
	}
	if got.User == nil || got.User.ID != "user-1" {
		t.Error("context should carry the member's user")
	}
	if got.Message == nil || got.Message.ID != "msg-1" {
		t.Error("context should carry the component's message")
	}
}

func TestRouter_Handle_AutoDefersComponentBeforeListener(t *testing.T) {
	r, _, table := newTestRouter(t)
	r.AutoDefer = true
	session := &mockSession{}

	var deferredInListener bool
	var responsesBeforeListener int
	if err := table.On("slow-button", func(ctx *components.Context) error {
		deferredInListener = ctx.Deferred()
		responsesBeforeListener = len(session.responses)
		return nil
	}); err != nil {
		t.Fatalf("registering listener: %v", err)
	}

	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				CustomID:      "slow-button",
				ComponentType: discordgo.ButtonComponent,
			},
			Message: &discordgo.Message{ID: "msg-1"},
			User:    &discordgo.User{ID: "user-1"},
		},
	})

	if !deferredInListener {
		t.Error("context should be marked deferred before the listener runs")
	}
	if responsesBeforeListener != 1 {
		t.Fatalf("expected the deferred ack before the listener, got %d responses", responsesBeforeListener)
	}
	if session.responses[0].Type != discordgo.InteractionResponseDeferredMessageUpdate {
		t.Errorf("expected deferred update ack, got type %d", session.responses[0].Type)
	}
}

func TestRouter_Handle_EmitsNamedEvents(t *testing.T) {
	r, reg, table := newTestRouter(t)
	session := &mockSession{}

	var events []string
	r.OnEvent = func(event string, ctx interface{}) { events = append(events, event) }

	addCommand(t, reg, "ping", "Pong!", func(ctx *slash.Context) error { return nil })
	if err := table.On("btn", func(ctx *components.Context) error { return nil }); err != nil {
		t.Fatalf("registering listener: %v", err)
	}

	r.Handle(session, commandInteraction("ping"))
	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				CustomID:      "btn",
				ComponentType: discordgo.ButtonComponent,
			},
			Message: &discordgo.Message{ID: "msg-1"},
			User:    &discordgo.User{ID: "user-1"},
		},
	})

	if len(events) != 2 || events[0] != "slash_command" || events[1] != "button_press" {
		t.Errorf("unexpected events %v", events)
	}
}

func TestRouter_Handle_IgnoresModalSubmit(t *testing.T) {
	r, _, _ := newTestRouter(t)
	session := &mockSession{}

	r.Handle(session, &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{Type: discordgo.InteractionModalSubmit},
	})

	if len(session.responses) != 0 {
		t.Errorf("modal submit should be ignored, got %d responses", len(session.responses))
	}
}
