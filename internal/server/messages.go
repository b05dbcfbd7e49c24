package server

import (
	"time"

	"reviewant/internal/domain"
	"reviewant/internal/review"
)

type GetMatchesRequest struct {
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	Refresh bool   `json:"refresh"`
}

type GetMatchesResponse struct {
	Name             string                   `json:"name"`
	Tag              string                   `json:"tag"`
	Matches          []domain.NormalizedMatch `json:"matches"`
	Cached           bool                     `json:"cached"`
	CanRefresh       bool                     `json:"can_refresh"`
	RemainingSeconds int                      `json:"remaining_seconds"`
}

type GetMatchRequest struct {
	MatchID string `json:"match_id"`
}

type GetMatchResponse struct {
	Match domain.NormalizedMatch `json:"match"`
}

type ReviewDraft struct {
	Name       string `json:"name"`
	Tag        string `json:"tag"`
	Rank       int    `json:"rank"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	DelayHours int    `json:"delay_hours"`
}

type SubmitReviewsRequest struct {
	Reviews   []ReviewDraft `json:"reviews"`
	Anonymous bool          `json:"anonymous"`
}

type DraftResult struct {
	Player   string `json:"player"`
	OK       bool   `json:"ok"`
	ReviewID int64  `json:"review_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type SubmitReviewsResponse struct {
	Submitted int           `json:"submitted"`
	Failed    int           `json:"failed"`
	Results   []DraftResult `json:"results"`
	ShareText string        `json:"share_text,omitempty"`
	ShareURL  string        `json:"share_url,omitempty"`
}

type SubmitReviewRequest struct {
	Name       string `json:"name"`
	Tag        string `json:"tag"`
	Rank       string `json:"rank"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	DelayHours int    `json:"delay_hours"`
	Anonymous  bool   `json:"anonymous"`
}

type SubmitReviewResponse struct {
	PlayerID int64  `json:"player_id"`
	ReviewID int64  `json:"review_id"`
	ShareURL string `json:"share_url"`
}

type Review struct {
	ID        int64     `json:"id"`
	Reviewer  string    `json:"reviewer"`
	Rank      string    `json:"rank"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type GetPlayerReviewsRequest struct {
	Player string `json:"player"` // name#tag
}

type GetPlayerReviewsResponse struct {
	Player  string         `json:"player"`
	Found   bool           `json:"found"`
	Average review.Average `json:"average"`
	Hidden  int            `json:"hidden"`
	Reviews []Review       `json:"reviews"`
}

type GetRecentReviewsRequest struct {
	Limit int `json:"limit"`
}

type PlayerFeed struct {
	Player  string         `json:"player"`
	Average review.Average `json:"average"`
	Reviews []Review       `json:"reviews"`
}

type GetRecentReviewsResponse struct {
	Players []PlayerFeed `json:"players"`
}

type SearchPlayersRequest struct {
	Query string `json:"query"`
}

type SearchPlayersResponse struct {
	Players []string `json:"players"`
}

type RegisterUserRequest struct {
	Name  string `json:"name"`
	Tag   string `json:"tag"`
	Email string `json:"email"`
}

type RegisterUserResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type ChangeIdentityRequest struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

type ChangeIdentityResponse struct {
	Username string `json:"username"`
}

type RefreshStatusRequest struct{}

type RefreshStatus struct {
	Allowed          bool `json:"allowed"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// edgeMatch is the document served by the plain /api/matches route.
type edgeMatch struct {
	Metadata edgeMetadata              `json:"metadata"`
	Players  []domain.PlayerMatchEntry `json:"players"`
}

type edgeMetadata struct {
	MatchID        string `json:"match_id"`
	MyAgent        string `json:"my_agent"`
	MyAgentImage   string `json:"my_agent_image"`
	Mode           string `json:"mode"`
	Timestamp      int64  `json:"timestamp"`
	Map            string `json:"map"`
	MyTeamRound    int    `json:"my_team_round"`
	EnemyTeamRound int    `json:"enemy_team_round"`
	Kill           int    `json:"kill"`
	Death          int    `json:"death"`
	Assist         int    `json:"assist"`
}

func toReviews(in []domain.Review) []Review {
	out := make([]Review, len(in))
	for i, r := range in {
		out[i] = Review{
			ID:        r.ID,
			Reviewer:  review.Reviewer(r),
			Rank:      r.Rank,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	return out
}

func toEdgeMatches(in []domain.NormalizedMatch) []edgeMatch {
	out := make([]edgeMatch, len(in))
	for i, m := range in {
		out[i] = edgeMatch{
			Metadata: edgeMetadata{
				MatchID:        m.MatchID,
				MyAgent:        m.MyAgent,
				MyAgentImage:   m.MyAgentImage,
				Mode:           m.Mode,
				Timestamp:      m.Timestamp,
				Map:            m.Map,
				MyTeamRound:    m.MyTeamRound,
				EnemyTeamRound: m.EnemyTeamRound,
				Kill:           m.Kill,
				Death:          m.Death,
				Assist:         m.Assist,
			},
			Players: m.Players,
		}
	}
	return out
}
