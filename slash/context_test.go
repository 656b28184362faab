package slash

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

type mockResponder struct {
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	edits     []*discordgo.WebhookEdit
}

func (m *mockResponder) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error {
	m.responses = append(m.responses, resp)
	return nil
}

func (m *mockResponder) InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.edits = append(m.edits, newresp)
	return &discordgo.Message{}, nil
}

func (m *mockResponder) FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.followups = append(m.followups, data)
	return &discordgo.Message{}, nil
}

func newTestContext() (*Context, *mockResponder) {
	session := &mockResponder{}
	ctx := &Context{
		Session:     session,
		Interaction: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}},
	}
	return ctx, session
}

func TestContext_Respond(t *testing.T) {
	ctx, session := newTestContext()

	if err := ctx.Respond("hello"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(session.responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(session.responses))
	}
	resp := session.responses[0]
	if resp.Type != discordgo.InteractionResponseChannelMessageWithSource {
		t.Errorf("expected channel message response, got type %d", resp.Type)
	}
	if resp.Data.Content != "hello" || resp.Data.Flags != 0 {
		t.Errorf("unexpected response data %+v", resp.Data)
	}
}

func TestContext_RespondEphemeral(t *testing.T) {
	ctx, session := newTestContext()

	if err := ctx.RespondEphemeral("secret"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if session.responses[0].Data.Flags != discordgo.MessageFlagsEphemeral {
		t.Error("expected ephemeral flag")
	}
}

func TestContext_RespondAfterDeferBecomesFollowup(t *testing.T) {
	ctx, session := newTestContext()

	if err := ctx.Defer(false); err != nil {
		t.Fatalf("defer: %v", err)
	}
	if !ctx.Deferred() {
		t.Fatal("context should be marked deferred")
	}
	if session.responses[0].Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Error("expected deferred ack")
	}

	if err := ctx.Respond("late answer"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(session.responses) != 1 {
		t.Error("a deferred interaction must not be responded to twice")
	}
	if len(session.followups) != 1 || session.followups[0].Content != "late answer" {
		t.Errorf("expected a followup with the content, got %v", session.followups)
	}
}

func TestContext_DeferEphemeral(t *testing.T) {
	ctx, session := newTestContext()

	if err := ctx.Defer(true); err != nil {
		t.Fatalf("defer: %v", err)
	}
	if session.responses[0].Data.Flags != discordgo.MessageFlagsEphemeral {
		t.Error("expected ephemeral deferred ack")
	}
}

func TestContext_Edit(t *testing.T) {
	ctx, session := newTestContext()

	if err := ctx.Edit("updated"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(session.edits) != 1 || session.edits[0].Content == nil || *session.edits[0].Content != "updated" {
		t.Errorf("unexpected edit %v", session.edits)
	}
}

func TestContext_TypedGetters(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.Options = Options{
		"text":    "hello",
		"count":   int64(3),
		"legacy":  float64(4),
		"flag":    true,
		"ratio":   0.25,
		"user":    &discordgo.User{ID: "u-1"},
		"channel": &discordgo.Channel{ID: "c-1"},
		"role":    &discordgo.Role{ID: "r-1"},
	}

	if ctx.String("text") != "hello" {
		t.Error("String getter")
	}
	if ctx.Int("count") != 3 {
		t.Error("Int getter for int64")
	}
	if ctx.Int("legacy") != 4 {
		t.Error("Int getter should accept raw float64 values")
	}
	if !ctx.Bool("flag") {
		t.Error("Bool getter")
	}
	if ctx.Float("ratio") != 0.25 {
		t.Error("Float getter")
	}
	if u := ctx.UserOption("user"); u == nil || u.ID != "u-1" {
		t.Error("UserOption getter")
	}
	if ch := ctx.ChannelOption("channel"); ch == nil || ch.ID != "c-1" {
		t.Error("ChannelOption getter")
	}
	if r := ctx.RoleOption("role"); r == nil || r.ID != "r-1" {
		t.Error("RoleOption getter")
	}

	// absent keys fall back to zero values
	if ctx.String("missing") != "" || ctx.Int("missing") != 0 || ctx.Bool("missing") {
		t.Error("absent options should yield zero values")
	}
}
