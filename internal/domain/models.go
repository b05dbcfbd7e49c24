package domain

import (
	"time"
)

type User struct {
	ID        string
	Username  string // name#tag
	Email     string
	CreatedAt time.Time
}

// Player is a reviewed identity. Name holds the canonical name#tag form.
type Player struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Review struct {
	ID                int64
	PlayerID          int64
	UserID            *string // nil when posted anonymously
	Username          string  // reviewer username, empty when anonymous
	Rank              string  // localized tier label
	Rating            int     // 1..5
	Comment           string
	CreatedAt         time.Time
	ScheduledPostTime *time.Time
}

// VisibleAt reports whether the review may be shown publicly at now.
func (r Review) VisibleAt(now time.Time) bool {
	return r.ScheduledPostTime == nil || !r.ScheduledPostTime.After(now)
}

type NormalizedMatch struct {
	MatchID        string             `json:"match_id"`
	MyAgent        string             `json:"my_agent"`
	MyAgentImage   string             `json:"my_agent_image"`
	Mode           string             `json:"mode"`
	Timestamp      int64              `json:"timestamp"` // game start, unix seconds
	Map            string             `json:"map"`
	MyTeam         Team               `json:"my_team"`
	MyTeamRound    int                `json:"my_team_round"`
	EnemyTeamRound int                `json:"enemy_team_round"`
	Kill           int                `json:"kill"`
	Death          int                `json:"death"`
	Assist         int                `json:"assist"`
	Players        []PlayerMatchEntry `json:"players"`
}

type PlayerMatchEntry struct {
	Name       string `json:"name"`
	Tag        string `json:"tag"`
	PlayerName string `json:"playerName"` // name#tag
	Agent      string `json:"agent"`
	AgentImage string `json:"agent_image"`
	Rank       int    `json:"rank"`
	Team       Team   `json:"team"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Assists    int    `json:"assists"`
}

type ReviewDraft struct {
	Player  Identity
	Rank    int // tier code 0..27
	Rating  int
	Comment string

	// DelayHours schedules the review N hours after submission; zero posts it now.
	DelayHours int
}

type DraftOutcome struct {
	Player   string // name#tag
	PlayerID int64
	ReviewID int64
	Err      error
}

func (o DraftOutcome) OK() bool { return o.Err == nil }

type BatchResult struct {
	Submitted int
	Failed    int
	Outcomes  []DraftOutcome
}

// PartialFailure reports whether some, but not all, drafts failed.
func (b BatchResult) PartialFailure() bool {
	return b.Failed > 0 && b.Submitted > 0
}
