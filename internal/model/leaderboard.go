package model

// LeaderboardEntry is one row of the top-N ranking snapshot. The
// snapshot is regenerated wholesale each refresh, never patched.
type LeaderboardEntry struct {
	Rank       int32  `json:"rank"`
	PlayerID   uint32 `json:"playerId"`
	Name       string `json:"name"`
	Level      int32  `json:"level"`
	Experience int64  `json:"experience"`
	JobName    string `json:"jobName"`
}
