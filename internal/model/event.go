package model

import "time"

type EventType string

const (
	EventCreate EventType = "CREATE"
	EventRemove EventType = "REMOVE"
)

type FileEvent struct {
	Type      EventType
	Path      string
	Dir       string
	Name      string
	IsDir     bool
	Timestamp time.Time
}
