package room

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	appErr "codeduel/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// TTL is how long a room survives after its last write.
const TTL = time.Hour

const maxPlayers = 2

// solutionFieldPrefix namespaces per-player solution fields in the room hash.
const solutionFieldPrefix = "solution:"

func solutionField(playerID string) string {
	return solutionFieldPrefix + playerID
}

// appendPlayerScript atomically appends a player to the room's roster.
// Returns the new player count, 0 when the player was already present, and
// -1 when the room is full. Running it as one script closes the race where
// two joins both read a one-player roster.
var appendPlayerScript = redis.NewScript(`
local doc = redis.call('HGET', KEYS[1], 'players')
if not doc then
  return -2
end
local players = cjson.decode(doc)
if #players >= tonumber(ARGV[3]) then
  return -1
end
for _, p in ipairs(players) do
  if p.id == ARGV[1] then
    return 0
  end
end
players[#players + 1] = {id = ARGV[1], name = ARGV[2]}
redis.call('HSET', KEYS[1], 'players', cjson.encode(players))
redis.call('EXPIRE', KEYS[1], ARGV[4])
return #players
`)

// Store persists rooms as redis hashes under room:<id>.
type Store struct {
	rdb redis.UniversalClient
}

func NewStore(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func key(roomID string) string {
	return "room:" + roomID
}

// Create writes a fresh room document and arms its expiry.
func (s *Store) Create(ctx context.Context, r *Room) error {
	fields, err := encodeRoom(r)
	if err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key(r.ID), fields)
	pipe.Expire(ctx, key(r.ID), TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	return nil
}

// Get loads a room. A missing or expired room yields RoomNotFound.
func (s *Store) Get(ctx context.Context, roomID string) (*Room, error) {
	fields, err := s.rdb.HGetAll(ctx, key(roomID)).Result()
	if err != nil {
		return nil, appErr.Wrap(err, appErr.StoreError)
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.RoomNotFound)
	}
	return decodeRoom(roomID, fields)
}

// AppendPlayer adds a player atomically and returns the resulting roster
// size. A duplicate join is a no-op reported through alreadyPresent.
func (s *Store) AppendPlayer(ctx context.Context, roomID string, p Player) (count int, alreadyPresent bool, err error) {
	n, err := appendPlayerScript.Run(ctx, s.rdb, []string{key(roomID)},
		p.ID, p.Name, maxPlayers, int(TTL.Seconds())).Int()
	if err != nil {
		return 0, false, appErr.Wrap(err, appErr.StoreError)
	}
	switch n {
	case -2:
		return 0, false, appErr.New(appErr.RoomNotFound)
	case -1:
		return maxPlayers, false, appErr.New(appErr.RoomFull)
	case 0:
		return 0, true, nil
	default:
		return n, false, nil
	}
}

// SetStarted marks the room started and records the start time.
func (s *Store) SetStarted(ctx context.Context, roomID string, at time.Time) error {
	return s.setFields(ctx, roomID, map[string]interface{}{
		"state":     string(StateStarted),
		"startedAt": at.UTC().Format(time.RFC3339Nano),
	})
}

// SetFinished records the outcome. An empty winnerID records a draw.
func (s *Store) SetFinished(ctx context.Context, roomID, winnerID string, at time.Time) error {
	return s.setFields(ctx, roomID, map[string]interface{}{
		"state":      string(StateFinished),
		"winnerId":   winnerID,
		"finishedAt": at.UTC().Format(time.RFC3339Nano),
	})
}

// SaveSolution upserts a player's latest submission. Each player owns a
// separate hash field, so concurrent submissions never clobber each other.
func (s *Store) SaveSolution(ctx context.Context, roomID, playerID string, sol Solution) error {
	data, err := json.Marshal(sol)
	if err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	return s.setFields(ctx, roomID, map[string]interface{}{
		solutionField(playerID): string(data),
	})
}

// Reset rewrites the mutable duel fields for a rematch round. The roster and
// creation time survive; solutions and outcome do not. An empty difficulty
// keeps the previous one.
func (s *Store) Reset(ctx context.Context, roomID string, newChallenge []byte, difficulty string) error {
	hashFields, err := s.rdb.HKeys(ctx, key(roomID)).Result()
	if err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	if len(hashFields) == 0 {
		return appErr.New(appErr.RoomNotFound)
	}
	var stale []string
	for _, f := range hashFields {
		if strings.HasPrefix(f, solutionFieldPrefix) {
			stale = append(stale, f)
		}
	}

	fields := map[string]interface{}{
		"challenge":  string(newChallenge),
		"state":      string(StateWaiting),
		"winnerId":   "",
		"startedAt":  "",
		"finishedAt": "",
	}
	if difficulty != "" {
		fields["difficulty"] = difficulty
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key(roomID), fields)
	if len(stale) > 0 {
		pipe.HDel(ctx, key(roomID), stale...)
	}
	pipe.Expire(ctx, key(roomID), TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	return nil
}

// Delete removes a room immediately instead of waiting for expiry.
func (s *Store) Delete(ctx context.Context, roomID string) error {
	if err := s.rdb.Del(ctx, key(roomID)).Err(); err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	return nil
}

func (s *Store) setFields(ctx context.Context, roomID string, fields map[string]interface{}) error {
	exists, err := s.rdb.Exists(ctx, key(roomID)).Result()
	if err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	if exists == 0 {
		return appErr.New(appErr.RoomNotFound)
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key(roomID), fields)
	pipe.Expire(ctx, key(roomID), TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return appErr.Wrap(err, appErr.StoreError)
	}
	return nil
}
