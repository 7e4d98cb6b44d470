package commentary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks requests rejected before any session state is
// touched.
var ErrInvalidInput = errors.New("commentary: invalid input")

// Request is one validated commentary turn.
type Request struct {
	GameID string

	// Situation holds the game events of this turn. It may be empty, which
	// asks for a filler.
	Situation []string

	// End asks to forget the game instead of commenting on it.
	End bool
}

// ParseRequest validates a game id and a raw JSON situation array. The array
// may be empty but must be present, and every element must be a string.
func ParseRequest(gameID string, situation []byte) (Request, error) {
	if strings.TrimSpace(gameID) == "" {
		return Request{}, fmt.Errorf("%w: gameId is required", ErrInvalidInput)
	}
	raw := bytes.TrimSpace(situation)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Request{}, fmt.Errorf("%w: situation is required", ErrInvalidInput)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return Request{}, fmt.Errorf("%w: situation must be a JSON array: %w", ErrInvalidInput, err)
	}
	events := make([]string, len(elems))
	for i, e := range elems {
		if err := json.Unmarshal(e, &events[i]); err != nil || bytes.Equal(bytes.TrimSpace(e), []byte("null")) {
			return Request{}, fmt.Errorf("%w: situation[%d] is not a string", ErrInvalidInput, i)
		}
	}
	return Request{GameID: gameID, Situation: events}, nil
}

// DecodeRequest parses one JSON object of the form
//
//	{"gameId": "g1", "situation": ["Player 1 is called Flash and plays as Terran"]}
//
// and validates it with [ParseRequest]. A game that is over is announced as
//
//	{"gameId": "g1", "end": true}
func DecodeRequest(line []byte) (Request, error) {
	var in struct {
		GameID    string          `json:"gameId"`
		Situation json.RawMessage `json:"situation"`
		End       bool            `json:"end"`
	}
	if err := json.Unmarshal(line, &in); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if in.End {
		if strings.TrimSpace(in.GameID) == "" {
			return Request{}, fmt.Errorf("%w: gameId is required", ErrInvalidInput)
		}
		return Request{GameID: in.GameID, End: true}, nil
	}
	return ParseRequest(in.GameID, in.Situation)
}
