package domain

import "strings"

type Team string

const (
	TeamRed     Team = "Red"
	TeamBlue    Team = "Blue"
	TeamUnknown Team = "Unknown"
)

func ParseTeam(s string) Team {
	switch {
	case strings.EqualFold(s, string(TeamRed)):
		return TeamRed
	case strings.EqualFold(s, string(TeamBlue)):
		return TeamBlue
	default:
		return TeamUnknown
	}
}

const (
	MinTier = 0
	MaxTier = 27
)

// Labels in ascending order. Codes 1 and 2 are unused by the game and share
// the unranked label.
var tierLabels = []string{
	"ランクなし",
	"アイアン",
	"ブロンズ",
	"シルバー",
	"ゴールド",
	"プラチナ",
	"ダイヤ",
	"アセンダント",
	"イモータル",
	"レディアント",
}

// TierLabel maps a tier code onto its localized label. Out of range codes are
// clamped so the mapping stays total and order-preserving.
func TierLabel(code int) string {
	switch {
	case code < 3:
		return tierLabels[0]
	case code >= MaxTier:
		return tierLabels[len(tierLabels)-1]
	default:
		return tierLabels[1+(code-3)/3]
	}
}

// TierLabels returns every label, lowest first.
func TierLabels() []string {
	out := make([]string, len(tierLabels))
	copy(out, tierLabels)
	return out
}

func IsTierLabel(label string) bool {
	for _, l := range tierLabels {
		if l == label {
			return true
		}
	}
	return false
}
