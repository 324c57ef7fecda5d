package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LocalScore is the anonymous score this machine submitted and has not yet
// attached to an account. It is sent with the next login.
type LocalScore struct {
	ScoreID           string `json:"score_id,omitempty"`
	ClientRef         string `json:"client_ref,omitempty"`
	Date              string `json:"date,omitempty"`
	Score             int    `json:"score"`
	TimeSeconds       int    `json:"time_seconds"`
	Mistakes          int    `json:"mistakes"`
	CorrectPlacements int    `json:"correct_placements"`
}

// LoadLocalScore reads the state file. A missing file yields nil.
func (c *Config) LoadLocalScore() (*LocalScore, error) {
	data, err := os.ReadFile(c.StateFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var local LocalScore
	if err := json.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("corrupt local score file %s: %w", c.StateFile, err)
	}
	return &local, nil
}

// SaveLocalScore replaces the state file
func (c *Config) SaveLocalScore(local *LocalScore) error {
	data, err := json.MarshalIndent(local, "", "  ")
	if err != nil {
		return err
	}
	return writePrivate(c.StateFile, data)
}

// ClearLocalScore removes the state file
func (c *Config) ClearLocalScore() error {
	err := os.Remove(c.StateFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
