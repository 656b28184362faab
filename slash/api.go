package slash

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

// CommandAPI is the slice of the bot session the synchronizer talks to.
// *discordgo.Session satisfies it.
type CommandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
	ApplicationCommandPermissions(appID, guildID, cmdID string, options ...discordgo.RequestOption) (*discordgo.GuildApplicationCommandPermissions, error)
	ApplicationCommandPermissionsEdit(appID, guildID, cmdID string, permissions *discordgo.ApplicationCommandPermissionsList, options ...discordgo.RequestOption) error
}

// GuildSource enumerates the guilds the bot is currently a member of.
type GuildSource interface {
	GuildIDs() []string
}

// GuildSourceFunc adapts a function to the GuildSource interface.
type GuildSourceFunc func() []string

func (f GuildSourceFunc) GuildIDs() []string { return f() }

// StateGuilds reads the member guild list from the session state.
func StateGuilds(s *discordgo.Session) GuildSource {
	return GuildSourceFunc(func() []string {
		s.State.RLock()
		defer s.State.RUnlock()
		ids := make([]string, 0, len(s.State.Guilds))
		for _, g := range s.State.Guilds {
			ids = append(ids, g.ID)
		}
		return ids
	})
}

// httpStatus extracts the status code from a REST error, or 0.
func httpStatus(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

func isForbidden(err error) bool {
	return httpStatus(err) == http.StatusForbidden
}

func isNotFound(err error) bool {
	return httpStatus(err) == http.StatusNotFound
}

// retryDelay reports whether the error is a rate limit and how long to wait
// before retrying the identical call.
func retryDelay(err error) (time.Duration, bool) {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		if rl.RateLimit != nil && rl.RateLimit.TooManyRequests != nil {
			return rl.RateLimit.TooManyRequests.RetryAfter, true
		}
		return time.Second, true
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusTooManyRequests {
		if raw := rest.Response.Header.Get("Retry-After"); raw != "" {
			if secs, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil {
				return time.Duration(secs * float64(time.Second)), true
			}
		}
		return time.Second, true
	}
	return 0, false
}
