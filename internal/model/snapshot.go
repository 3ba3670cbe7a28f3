package model

import "time"

type DaemonSnapshot struct {
	StartedAt  time.Time      `json:"started_at"`
	WatchRoot  string         `json:"watch_root"`
	Roots      []string       `json:"roots"`
	Shipped    int            `json:"shipped"`
	Unchanged  int            `json:"unchanged"`
	Failed     int            `json:"failed"`
	Rejected   int            `json:"rejected"`
	Deletes    int            `json:"deletes"`
	LastResult *ResultSummary `json:"last_result,omitempty"`
}

type ResultSummary struct {
	AttemptID  string    `json:"attempt_id"`
	Outcome    Outcome   `json:"outcome"`
	LocalPath  string    `json:"local_path"`
	RemotePath string    `json:"remote_path"`
	Err        string    `json:"err,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
