package model

import (
	"time"

	"gorm.io/gorm"
)

type History struct {
	gorm.Model
	AttemptID  string    `gorm:"uniqueIndex;not null" json:"attempt_id"`
	Outcome    Outcome   `gorm:"index;not null" json:"outcome"`
	LocalPath  string    `gorm:"not null" json:"local_path"`
	ReportName string    `gorm:"not null" json:"report_name"`
	RemotePath string    `json:"remote_path"`
	ErrMsg     string    `json:"err_msg"`
	Retried    bool      `gorm:"not null;default:false" json:"retried"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `gorm:"not null" json:"finished_at"`
}
