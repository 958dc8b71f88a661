package store

import (
	"encoding/json"
	"fmt"

	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/mind"
)

func decodeState(raw string) (mind.MindState, error) {
	var state mind.MindState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return mind.MindState{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, nil
}

func encodeRecord(rec memory.EpisodicRecord) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode episodic record: %w", err)
	}
	return string(b), nil
}

func decodeRecord(raw string) (memory.EpisodicRecord, error) {
	var rec memory.EpisodicRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return memory.EpisodicRecord{}, fmt.Errorf("decode episodic record: %w", err)
	}
	return rec, nil
}
