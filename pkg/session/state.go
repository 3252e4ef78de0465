package session

import (
	"math"
	"time"

	"github.com/entrhq/serpwalk/pkg/profile"
)

// ObjectiveStatus is the lifecycle state of a single objective. A record is
// created when its objective starts running, so there is no pending status.
type ObjectiveStatus string

const (
	StatusRunning   ObjectiveStatus = "running"
	StatusCompleted ObjectiveStatus = "completed"
	StatusFailed    ObjectiveStatus = "failed"
)

// Phase is the lifecycle state of a whole session.
type Phase string

const (
	PhaseStarted    Phase = "started"
	PhaseFinalizing Phase = "finalizing"
	PhasePersisted  Phase = "persisted"
)

// ExecutionRecord is the outcome of one objective. It is immutable once
// appended to a State.
type ExecutionRecord struct {
	Objective          string              `json:"objective"`
	Status             ObjectiveStatus     `json:"status"`
	StartTime          time.Time           `json:"start_time"`
	Completed          bool                `json:"completed"`
	FoundTarget        bool                `json:"found_target"`
	ResultText         string              `json:"result"`
	DurationSeconds    float64             `json:"duration_seconds"`
	DeviceClass        profile.DeviceClass `json:"device_class,omitempty"`
	UserAgent          string              `json:"user_agent,omitempty"`
	InteractionSeconds int                 `json:"interaction_seconds,omitempty"`
}

// State aggregates every record of one session plus its counters.
type State struct {
	RunID                  string            `json:"run_id,omitempty"`
	TargetSite             string            `json:"target_site"`
	StartTime              time.Time         `json:"start_time"`
	ExecutionRecords       []ExecutionRecord `json:"execution_records"`
	TotalInteractions      int               `json:"total_interactions"`
	TargetVisits           int               `json:"target_visits"`
	SessionDurationSeconds float64           `json:"session_duration_seconds"`
	ReportPath             string            `json:"-"`
	Phase                  Phase             `json:"-"`
}

func newState(runID, targetSite string, start time.Time) *State {
	return &State{
		RunID:            runID,
		TargetSite:       targetSite,
		StartTime:        start,
		ExecutionRecords: []ExecutionRecord{},
		Phase:            PhaseStarted,
	}
}

// record appends rec in submission order and updates the counters. Every
// attempted objective counts as one interaction regardless of outcome.
func (s *State) record(rec ExecutionRecord) {
	s.ExecutionRecords = append(s.ExecutionRecords, rec)
	s.TotalInteractions++
	if rec.FoundTarget {
		s.TargetVisits++
	}
}

// FailedCount returns the number of objectives whose engine call failed.
func (s *State) FailedCount() int {
	n := 0
	for _, rec := range s.ExecutionRecords {
		if !rec.Completed {
			n++
		}
	}
	return n
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
