package filler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/broodcaster/pkg/stats"
)

// Template identifiers.
const (
	IDSummary       = "summary"
	IDCasualties    = "casualties"
	IDCliche        = "cliche"
	IDPatreon       = "patreon"
	IDTwitchYoutube = "twitch-youtube"
	IDAnecdote      = "anecdote"
	IDPlayerStats   = "player-stats"
)

// DefaultTemplates returns the built-in filler set. The player-stats template
// is included only when src is non-nil.
func DefaultTemplates(src stats.Source) []Template {
	ts := []Template{
		{
			ID:              IDSummary,
			Cooldown:        time.Minute,
			AppendSituation: true,
			Produce:         Static("(now summarize the game so far to fill some time)"),
		},
		{
			ID:              IDCasualties,
			Cooldown:        5 * time.Minute,
			AppendSituation: true,
			Produce:         Static("(now summarize how much both players lost in this game so far and who's in a better shape)"),
		},
		{
			ID:              IDCliche,
			Cooldown:        time.Minute,
			AppendSituation: true,
			Produce:         Static("(now say some general StarCraft commentator cliche that doesn't relate to the current game situation.)"),
		},
		{
			ID:       IDPatreon,
			Cooldown: time.Hour,
			Produce:  Static(`(now remind watchers they can support "SSCAIT" on Patreon to keep alive the project that combines StarCraft and Artificial Intelligence. but keep this under 35 words.)`),
		},
		{
			ID:       IDTwitchYoutube,
			Cooldown: 45 * time.Minute,
			Produce:  Static(`(now remind watchers that we stream StarCraft bot games 24/7 on "SSCAIT" Twitch and also publish videos with human commentary on Youtube. but keep this under 50 words and don't start with word "and")`),
		},
		{
			ID:       IDAnecdote,
			Cooldown: 20 * time.Minute,
			Produce:  Static("(now say some interesting anecdote from the world of professional starcraft or its pro players)"),
		},
	}
	if src != nil {
		ts = append(ts, PlayerStats(src))
	}
	return ts
}

// PlayerStats returns the template that compares both bots' tournament win
// rates. It has nothing to say until both players are known, when either
// lookup fails, or when either bot has no decided games.
func PlayerStats(src stats.Source) Template {
	return Template{
		ID:       IDPlayerStats,
		Cooldown: 10 * time.Minute,
		Produce: func(ctx context.Context, g Game) (string, bool) {
			if g.Bot1 == "" || g.Bot2 == "" {
				return "", false
			}
			r1, r2, err := stats.LookupPair(ctx, src, g.Bot1, g.Bot2)
			if err != nil {
				slog.Warn("filler: player stats unavailable", "bot1", g.Bot1, "bot2", g.Bot2, "err", err)
				return "", false
			}
			if r1.Games() == 0 || r2.Games() == 0 {
				return "", false
			}
			return fmt.Sprintf(
				"(now explain that %s's win rate in the tournament is %d%% and %s's win rate is %d%% and what it means for the ongoing game)",
				g.Bot1, r1.WinRate(), g.Bot2, r2.WinRate(),
			), true
		},
	}
}
