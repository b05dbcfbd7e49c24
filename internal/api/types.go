package api

import "errors"

type V3MatchesResponse struct {
	Status int        `json:"status"`
	Data   *[]V3Match `json:"data"`
}

func (r *V3MatchesResponse) Validate() error {
	if r.Data == nil {
		return errors.New("payload has no data array")
	}
	return nil
}

// Matches returns the decoded matches; safe on a response without data.
func (r *V3MatchesResponse) Matches() []V3Match {
	if r == nil || r.Data == nil {
		return nil
	}
	return *r.Data
}

type V3Match struct {
	Metadata V3Metadata `json:"metadata"`
	Players  struct {
		AllPlayers []V3Player `json:"all_players"`
	} `json:"players"`
	Teams V3Teams `json:"teams"`
}

type V3Metadata struct {
	MatchID      string `json:"matchid"`
	Map          string `json:"map"`
	Mode         string `json:"mode"`
	GameStart    int64  `json:"game_start"`
	GameVersion  string `json:"game_version"`
	RoundsPlayed int    `json:"rounds_played"`
	Region       string `json:"region"`
	Cluster      string `json:"cluster"`
	SeasonID     string `json:"season_id"`
}

type V3Player struct {
	Puuid              string `json:"puuid"`
	Name               string `json:"name"`
	Tag                string `json:"tag"`
	Team               string `json:"team"`
	Level              int    `json:"level"`
	Character          string `json:"character"`
	CurrentTier        int    `json:"currenttier"`
	CurrentTierPatched string `json:"currenttier_patched"`
	Stats              struct {
		Score   int `json:"score"`
		Kills   int `json:"kills"`
		Deaths  int `json:"deaths"`
		Assists int `json:"assists"`
	} `json:"stats"`
	Assets struct {
		Agent struct {
			Small    string `json:"small"`
			Full     string `json:"full"`
			Bust     string `json:"bust"`
			Killfeed string `json:"killfeed"`
		} `json:"agent"`
	} `json:"assets"`
}

type V3Teams struct {
	Red  V3TeamResult `json:"red"`
	Blue V3TeamResult `json:"blue"`
}

type V3TeamResult struct {
	HasWon     bool `json:"has_won"`
	RoundsWon  int  `json:"rounds_won"`
	RoundsLost int  `json:"rounds_lost"`
}
