package main

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	discordui "github.com/brotherelric/discord-ui"
	"github.com/brotherelric/discord-ui/components"
	"github.com/brotherelric/discord-ui/internal/config"
	"github.com/brotherelric/discord-ui/slash"
)

var cities = []string{"Amsterdam", "Berlin", "Bern", "Lisbon", "Madrid", "Oslo", "Paris", "Vienna", "Warsaw"}

// RegisterCommands declares the example commands. With DISCORD_GUILD_ID set
// they register in that guild only, which makes them show up instantly.
func RegisterCommands(ui *discordui.UI, cfg *config.Config) error {
	scope := func(c *slash.Command) {
		if cfg.GuildID != "" {
			c.GuildIDs = []string{cfg.GuildID}
		}
	}

	ping, err := ui.Command("ping", "Check whether the bot is alive", handlePing)
	if err != nil {
		return err
	}
	scope(ping)

	echo, err := ui.Command("echo", "Repeat a message back to you", handleEcho)
	if err != nil {
		return err
	}
	text, err := slash.NewOption("str", "text", "What to repeat")
	if err != nil {
		return err
	}
	echo.Options = []slash.Option{text.WithRequired()}
	scope(echo)

	for _, sub := range []struct {
		name        string
		description string
		handler     slash.Handler
	}{
		{"add", "Add two numbers", handleAdd},
		{"sub", "Subtract two numbers", handleSub},
	} {
		c, err := ui.Subcommand([]string{"math"}, sub.name, sub.description, sub.handler)
		if err != nil {
			return err
		}
		a, err := slash.NewOption("int", "a", "First number")
		if err != nil {
			return err
		}
		b, err := slash.NewOption("int", "b", "Second number")
		if err != nil {
			return err
		}
		c.Options = []slash.Option{a.WithRequired(), b.WithRequired()}
		scope(c)
	}

	weather, err := ui.Command("weather", "Look up the weather in a city", handleWeather)
	if err != nil {
		return err
	}
	city, err := slash.NewOption("str", "city", "City to look up")
	if err != nil {
		return err
	}
	weather.Options = []slash.Option{city.WithRequired().WithGenerator(completeCities)}
	scope(weather)

	picker, err := ui.Command("role-picker", "Pick a display role", handleRolePicker)
	if err != nil {
		return err
	}
	scope(picker)

	return ui.On("role-select", handleRoleSelected)
}

func handlePing(ctx *slash.Context) error {
	return ctx.Respond("Pong!")
}

func handleEcho(ctx *slash.Context) error {
	return ctx.Respond(ctx.String("text"))
}

func handleAdd(ctx *slash.Context) error {
	a, b := ctx.Int("a"), ctx.Int("b")
	return ctx.Respond(fmt.Sprintf("%d + %d = %d", a, b, a+b))
}

func handleSub(ctx *slash.Context) error {
	a, b := ctx.Int("a"), ctx.Int("b")
	return ctx.Respond(fmt.Sprintf("%d - %d = %d", a, b, a-b))
}

func handleWeather(ctx *slash.Context) error {
	return ctx.Respond(fmt.Sprintf("It is always sunny in %s.", ctx.String("city")))
}

func completeCities(ctx *slash.AutocompleteContext) ([]slash.Choice, error) {
	partial := strings.ToLower(ctx.Partial)
	var choices []slash.Choice
	for _, city := range cities {
		if strings.HasPrefix(strings.ToLower(city), partial) {
			choices = append(choices, slash.Choice{Name: city, Value: city})
		}
	}
	return choices, nil
}

func handleRolePicker(ctx *slash.Context) error {
	return ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pick your role:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							CustomID:    "role-select",
							Placeholder: "Choose a role",
							Options: []discordgo.SelectMenuOption{
								{Label: "Gamer", Value: "gamer", Emoji: &discordgo.ComponentEmoji{Name: "🎮"}},
								{Label: "Musician", Value: "musician", Emoji: &discordgo.ComponentEmoji{Name: "🎸"}},
								{Label: "Reader", Value: "reader", Emoji: &discordgo.ComponentEmoji{Name: "📚"}},
							},
						},
					},
				},
			},
		},
	})
}

func handleRoleSelected(ctx *components.Context) error {
	if len(ctx.Values) == 0 {
		return ctx.RespondEphemeral("Nothing selected.")
	}
	return ctx.UpdateMessage(fmt.Sprintf("You are now a %s!", ctx.Values[0]))
}
