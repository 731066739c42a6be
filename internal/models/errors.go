package models

import "errors"

var (
	// Agent CLI errors
	ErrAgentNotFound = errors.New("AI CLI not found")
	ErrNoCommand     = errors.New("no command specified")

	// Task errors
	ErrTaskNotFound = errors.New("task not found")

	// Archive errors
	ErrNothingToArchive = errors.New("nothing to archive")
)
