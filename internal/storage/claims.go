package storage

import "github.com/mcoot/battleship-go/internal/model"

// ClaimDiff lists the active-game claims a game write must take and drop
type ClaimDiff struct {
	Acquire []model.PlayerID
	Release []model.PlayerID
}

// DiffClaims compares the stored game with its replacement. Players seated in
// an active replacement acquire a claim; players that were seated before but
// are no longer seated in an active game release theirs.
func DiffClaims(before, after *model.Game) ClaimDiff {
	var diff ClaimDiff

	now := map[model.PlayerID]bool{}
	if after.Active() {
		for _, pid := range after.Players() {
			now[pid] = true
			diff.Acquire = append(diff.Acquire, pid)
		}
	}
	for _, pid := range before.Players() {
		if !now[pid] {
			diff.Release = append(diff.Release, pid)
		}
	}
	return diff
}

// ClaimedPlayers returns every player whose claim a write may touch
func ClaimedPlayers(before, after *model.Game) []model.PlayerID {
	seen := map[model.PlayerID]bool{}
	var out []model.PlayerID
	for _, pid := range append(before.Players(), after.Players()...) {
		if pid != "" && !seen[pid] {
			seen[pid] = true
			out = append(out, pid)
		}
	}
	return out
}
