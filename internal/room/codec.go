package room

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"codeduel/internal/challenge"
	appErr "codeduel/pkg/errors"
)

func encodeRoom(r *Room) (map[string]interface{}, error) {
	challengeJSON, err := json.Marshal(r.Challenge)
	if err != nil {
		return nil, fmt.Errorf("encode challenge: %w", err)
	}
	playersJSON, err := json.Marshal(r.Players)
	if err != nil {
		return nil, fmt.Errorf("encode players: %w", err)
	}
	fields := map[string]interface{}{
		"challenge":  string(challengeJSON),
		"difficulty": r.Difficulty,
		"players":    string(playersJSON),
		"state":      string(r.State),
		"winnerId":   r.WinnerID,
		"createdAt":  r.CreatedAt.UTC().Format(time.RFC3339Nano),
		"startedAt":  "",
		"finishedAt": "",
	}
	for playerID, sol := range r.Solutions {
		data, err := json.Marshal(sol)
		if err != nil {
			return nil, fmt.Errorf("encode solution for %s: %w", playerID, err)
		}
		fields[solutionField(playerID)] = string(data)
	}
	if !r.StartedAt.IsZero() {
		fields["startedAt"] = r.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if !r.FinishedAt.IsZero() {
		fields["finishedAt"] = r.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return fields, nil
}

func decodeRoom(roomID string, fields map[string]string) (*Room, error) {
	r := &Room{
		ID:         roomID,
		Difficulty: fields["difficulty"],
		State:      State(fields["state"]),
		WinnerID:   fields["winnerId"],
		Solutions:  make(map[string]Solution),
	}

	if raw := fields["challenge"]; raw != "" && raw != "null" {
		var ch challenge.Challenge
		if err := json.Unmarshal([]byte(raw), &ch); err != nil {
			return nil, appErr.Wrapf(err, appErr.StoreError, "room %s: corrupt challenge", roomID)
		}
		r.Challenge = &ch
	}
	if raw := fields["players"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.Players); err != nil {
			return nil, appErr.Wrapf(err, appErr.StoreError, "room %s: corrupt roster", roomID)
		}
	}
	for field, raw := range fields {
		if !strings.HasPrefix(field, solutionFieldPrefix) {
			continue
		}
		var sol Solution
		if err := json.Unmarshal([]byte(raw), &sol); err != nil {
			return nil, appErr.Wrapf(err, appErr.StoreError, "room %s: corrupt solution field %s", roomID, field)
		}
		r.Solutions[strings.TrimPrefix(field, solutionFieldPrefix)] = sol
	}

	var err error
	if r.CreatedAt, err = parseTime(fields["createdAt"]); err != nil {
		return nil, appErr.Wrapf(err, appErr.StoreError, "room %s: corrupt createdAt", roomID)
	}
	if r.StartedAt, err = parseTime(fields["startedAt"]); err != nil {
		return nil, appErr.Wrapf(err, appErr.StoreError, "room %s: corrupt startedAt", roomID)
	}
	if r.FinishedAt, err = parseTime(fields["finishedAt"]); err != nil {
		return nil, appErr.Wrapf(err, appErr.StoreError, "room %s: corrupt finishedAt", roomID)
	}
	return r, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
