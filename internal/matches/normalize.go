package matches

import (
	"reviewant/internal/api"
	"reviewant/internal/constants"
	"reviewant/internal/domain"
)

// Normalize converts raw matches into the stable internal shape relative to
// the queried identity. It never fails: an identity missing from a match
// yields an Unknown team, zero stats and zero rounds for that match.
func Normalize(id domain.Identity, raw []api.V3Match) []domain.NormalizedMatch {
	out := make([]domain.NormalizedMatch, 0, len(raw))
	for _, m := range raw {
		if m.Metadata.MatchID == "" {
			continue
		}
		out = append(out, normalizeOne(id, m))
	}
	return out
}

func normalizeOne(id domain.Identity, m api.V3Match) domain.NormalizedMatch {
	nm := domain.NormalizedMatch{
		MatchID:   m.Metadata.MatchID,
		MyAgent:   constants.UnknownAgent,
		Mode:      m.Metadata.Mode,
		Timestamp: m.Metadata.GameStart,
		Map:       m.Metadata.Map,
		MyTeam:    domain.TeamUnknown,
		Players:   make([]domain.PlayerMatchEntry, 0, len(m.Players.AllPlayers)),
	}

	for _, p := range m.Players.AllPlayers {
		nm.Players = append(nm.Players, toEntry(p))
	}

	if me := findPlayer(m.Players.AllPlayers, id); me != nil {
		nm.MyTeam = domain.ParseTeam(me.Team)
		nm.MyAgent = me.Character
		nm.MyAgentImage = me.Assets.Agent.Small
		nm.Kill = nonNegative(me.Stats.Kills)
		nm.Death = nonNegative(me.Stats.Deaths)
		nm.Assist = nonNegative(me.Stats.Assists)
	}

	nm.MyTeamRound, nm.EnemyTeamRound = RoundsFor(nm.MyTeam, m.Teams.Red.RoundsWon, m.Teams.Blue.RoundsWon)
	return nm
}

// RoundsFor attributes the red and blue round totals to "my" and "enemy"
// from the perspective of team. An unknown team scores zero on both sides.
func RoundsFor(team domain.Team, red, blue int) (mine, enemy int) {
	red, blue = nonNegative(red), nonNegative(blue)
	switch team {
	case domain.TeamRed:
		return red, blue
	case domain.TeamBlue:
		return blue, red
	default:
		return 0, 0
	}
}

func toEntry(p api.V3Player) domain.PlayerMatchEntry {
	return domain.PlayerMatchEntry{
		Name:       p.Name,
		Tag:        p.Tag,
		PlayerName: domain.Identity{Name: p.Name, Tag: p.Tag}.String(),
		Agent:      p.Character,
		AgentImage: p.Assets.Agent.Small,
		Rank:       clampTier(p.CurrentTier),
		Team:       domain.ParseTeam(p.Team),
		Kills:      nonNegative(p.Stats.Kills),
		Deaths:     nonNegative(p.Stats.Deaths),
		Assists:    nonNegative(p.Stats.Assists),
	}
}

func findPlayer(players []api.V3Player, id domain.Identity) *api.V3Player {
	for i := range players {
		if id.Matches(players[i].Name, players[i].Tag) {
			return &players[i]
		}
	}
	return nil
}

func clampTier(t int) int {
	return min(max(t, domain.MinTier), domain.MaxTier)
}

func nonNegative(v int) int {
	return max(v, 0)
}
