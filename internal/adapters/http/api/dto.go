package api

import (
	service "github.com/okian/kartcup/internal/app"
	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/internal/domain/ranking"
)

type matchResponse struct {
	ID           string `json:"id"`
	TournamentID string `json:"tournament_id"`
	Mode         string `json:"mode"`
	Stage        string `json:"stage"`
	Group        string `json:"group,omitempty"`
	MatchNumber  int    `json:"match_number"`
	Round        string `json:"round,omitempty"`
	Bracket      string `json:"bracket,omitempty"`
	Player1ID    string `json:"player1_id"`
	Player2ID    string `json:"player2_id"`
	Score1       int    `json:"score1"`
	Score2       int    `json:"score2"`
	Completed    bool   `json:"completed"`
	Version      int64  `json:"version"`
}

func toMatch(m model.Match) matchResponse {
	return matchResponse{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		Mode:         string(m.Mode),
		Stage:        string(m.Stage),
		Group:        m.Group,
		MatchNumber:  m.MatchNumber,
		Round:        string(m.Round),
		Bracket:      string(m.Bracket),
		Player1ID:    m.Player1ID,
		Player2ID:    m.Player2ID,
		Score1:       m.Score1,
		Score2:       m.Score2,
		Completed:    m.Completed,
		Version:      m.Version,
	}
}

func toMatches(ms []model.Match) []matchResponse {
	out := make([]matchResponse, len(ms))
	for i, m := range ms {
		out[i] = toMatch(m)
	}
	return out
}

// resultRequest is the body of PUT /matches/{id}/result. ExpectedVersion is
// the version the client last saw; omit it to write against the current row.
type resultRequest struct {
	Score1          *int  `json:"score1"`
	Score2          *int  `json:"score2"`
	ExpectedVersion int64 `json:"expected_version"`
}

type advancementResponse struct {
	MatchNumber int    `json:"match_number"`
	Slot        int    `json:"slot"`
	PlayerID    string `json:"player_id"`
	Reason      string `json:"reason"`
	Result      string `json:"result"`
	Error       string `json:"error,omitempty"`
}

type statsResponse struct {
	MP         int `json:"mp"`
	Wins       int `json:"wins"`
	Ties       int `json:"ties"`
	Losses     int `json:"losses"`
	WinRounds  int `json:"win_rounds"`
	LossRounds int `json:"loss_rounds"`
	Points     int `json:"points"`
	Score      int `json:"score"`
}

type outcomeResponse struct {
	Match      *matchResponse           `json:"match,omitempty"`
	Advanced   []advancementResponse    `json:"advanced"`
	Skipped    []advancementResponse    `json:"skipped"`
	Partial    bool                     `json:"partial"`
	Complete   bool                     `json:"complete"`
	Champion   string                   `json:"champion,omitempty"`
	Eliminated string                   `json:"eliminated,omitempty"`
	Stats      map[string]statsResponse `json:"stats,omitempty"`
}

func toAdvancements(as []service.Advancement) []advancementResponse {
	out := make([]advancementResponse, len(as))
	for i, a := range as {
		out[i] = advancementResponse{
			MatchNumber: a.Placement.MatchNumber,
			Slot:        a.Placement.Slot,
			PlayerID:    a.Placement.PlayerID,
			Reason:      string(a.Placement.Reason),
			Result:      a.Result,
		}
		if a.Err != nil {
			out[i].Error = a.Err.Error()
		}
	}
	return out
}

func toOutcome(o service.Outcome, withMatch bool) outcomeResponse {
	resp := outcomeResponse{
		Advanced:   toAdvancements(o.Advanced),
		Skipped:    toAdvancements(o.Skipped),
		Partial:    o.Partial,
		Complete:   o.Complete,
		Champion:   o.Champion,
		Eliminated: o.Eliminated,
	}
	if withMatch {
		m := toMatch(o.Match)
		resp.Match = &m
	}
	if len(o.Stats) > 0 {
		resp.Stats = make(map[string]statsResponse, len(o.Stats))
		for id, st := range o.Stats {
			resp.Stats[id] = statsResponse(st)
		}
	}
	return resp
}

type standingResponse struct {
	PlayerID         string `json:"player_id"`
	Group            string `json:"group,omitempty"`
	MatchPoints      int    `json:"match_points"`
	NormalizedPoints int    `json:"normalized_points"`
	Rank             int    `json:"rank"`
}

func toStandings(rs []ranking.Result) []standingResponse {
	out := make([]standingResponse, len(rs))
	for i, r := range rs {
		out[i] = standingResponse(r)
	}
	return out
}

type finalsResponse struct {
	PlayerID   string `json:"player_id"`
	PlaceStart int    `json:"place_start"`
	PlaceEnd   int    `json:"place_end"`
	Points     int    `json:"points"`
}

func toFinals(fs []service.FinalsStanding) []finalsResponse {
	out := make([]finalsResponse, len(fs))
	for i, f := range fs {
		out[i] = finalsResponse{
			PlayerID:   f.PlayerID,
			PlaceStart: f.Place.Start,
			PlaceEnd:   f.Place.End,
			Points:     f.Points,
		}
	}
	return out
}

type pointsResponse struct {
	PlayerID string         `json:"player_id"`
	Total    int            `json:"total"`
	ByMode   map[string]int `json:"by_mode"`
}

func toPoints(ps []service.PlayerPoints) []pointsResponse {
	out := make([]pointsResponse, len(ps))
	for i, p := range ps {
		byMode := make(map[string]int, len(p.ByMode))
		for m, v := range p.ByMode {
			byMode[string(m)] = v
		}
		out[i] = pointsResponse{PlayerID: p.PlayerID, Total: p.Total, ByMode: byMode}
	}
	return out
}

type bracketRequest struct {
	// Seeds lists player ids by seed. Empty seeds from qualification standings.
	Seeds []string `json:"seeds"`
}

type groupRequest struct {
	Players []string `json:"players"`
}

type timeAttackRequest struct {
	Entries []struct {
		PlayerID string   `json:"player_id"`
		Times    []string `json:"times"`
	} `json:"entries"`
}

type timeAttackResponse struct {
	PlayerID   string `json:"player_id"`
	Total      string `json:"total,omitempty"`
	Rank       int    `json:"rank,omitempty"`
	Points     int    `json:"points"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

type resetResponse struct {
	Deleted int `json:"deleted"`
}
