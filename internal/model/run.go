package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type RunStatus string

const (
	RunSuccess    RunStatus = "SUCCESS"
	RunFailed     RunStatus = "FAILED"
	RunCanceled   RunStatus = "CANCELED"
	RunSpawnError RunStatus = "SPAWN_ERROR"
)

type RunResult struct {
	Seq        uint64
	Pid        int
	Argv       []string
	Trigger    Trigger
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   int
	Status     RunStatus
	Err        error
}

func (r RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

type Run struct {
	gorm.Model
	Seq        uint64    `gorm:"not null;index" json:"seq"`
	Command    string    `gorm:"not null" json:"command"`
	Status     RunStatus `gorm:"not null" json:"status"`
	ExitCode   int       `json:"exit_code"`
	ErrMsg     string    `json:"err_msg"`
	Paths      string    `json:"paths"`
	StartedAt  time.Time `gorm:"not null" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func NewRun(result RunResult) Run {
	run := Run{
		Seq:        result.Seq,
		Command:    strings.Join(result.Argv, " "),
		Status:     result.Status,
		ExitCode:   result.ExitCode,
		Paths:      strings.Join(result.Trigger.Paths, ","),
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	if result.Err != nil {
		run.ErrMsg = result.Err.Error()
	}
	return run
}
