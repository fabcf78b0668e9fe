// Package model defines shared data structures.
package model

import "time"

// Settings holds the resolved command settings after flags and the config
// file are merged.
type Settings struct {
	GridWidth    int
	GridHeight   int
	LayoutPath   string
	NoCorrection bool
	LogLevel     string
	LogFormat    string
	Samples      int
	Sigma        float64
	Seed         int64
	WordList     string
}

// HistoryFilter narrows history listings.
type HistoryFilter struct {
	Layout string
	Since  *time.Time
	Last   int
}

// ExportRecord is a stored proximity payload snapshot.
type ExportRecord struct {
	ID         int64
	CreatedAt  time.Time
	Layout     string
	GridWidth  int
	GridHeight int
	KeyCount   int
	Correction bool
	Payload    []byte
}

// KeyTally counts simulated touches aimed at one key.
type KeyTally struct {
	Samples       int
	Hits          int
	CandidateHits int
}

// SimulationResult summarizes a batch of simulated touches. Keys is keyed by
// key code and is not persisted.
type SimulationResult struct {
	Samples       int
	Hits          int
	Misses        int
	CandidateHits int
	NoKey         int
	Keys          map[int]KeyTally
}

// SimulationRecord is a stored simulation run.
type SimulationRecord struct {
	ID        int64
	CreatedAt time.Time
	Layout    string
	Sigma     float64
	Result    SimulationResult
}
