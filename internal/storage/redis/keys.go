package redis

import (
	"fmt"

	"github.com/mcoot/battleship-go/internal/model"
)

// Key prefix for all battleship data
const keyPrefix = "bship"

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// activeGameKey returns the Redis key holding the id of the game a player is seated in
func activeGameKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:active:%s", keyPrefix, playerID)
}

// profileKey returns the Redis key for a Profile
func profileKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}
