package model

import "time"

type RunSnapshot struct {
	Running     bool       `json:"running"`
	Pid         int        `json:"pid,omitempty"`
	Executable  string     `json:"executable,omitempty"`
	Seq         uint64     `json:"seq"`
	Command     []string   `json:"command"`
	Patterns    []string   `json:"patterns"`
	StartedAt   time.Time  `json:"started_at"`
	Runs        int        `json:"runs"`
	Failed      int        `json:"failed"`
	Canceled    int        `json:"canceled"`
	SpawnErrors int        `json:"spawn_errors"`
	LastStatus  RunStatus  `json:"last_status,omitempty"`
	LastExit    int        `json:"last_exit"`
	LastChanged *time.Time `json:"last_changed,omitempty"`

	// History covers every recorded run, including earlier sessions.
	History *RunStats `json:"history,omitempty"`
}

type RunStats struct {
	Total    int64 `json:"total"`
	Success  int64 `json:"success"`
	Failed   int64 `json:"failed"`
	Canceled int64 `json:"canceled"`
}
