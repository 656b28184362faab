package main

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/brotherelric/discord-ui/internal/config"
)

func NewDiscordSession(cfg *config.Config) (*discordgo.Session, error) {
	discord, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		slog.Error("Failed to create discord session", "error", err)
		return nil, err
	}

	// interactions arrive without any privileged intents
	discord.Identify.Intents = discordgo.IntentsGuilds

	return discord, nil
}
