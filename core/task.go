package core

import (
	"strings"

	"github.com/google/uuid"
)

// Task is a single unit of work submitted to a pool. Tasks are immutable
// once submitted; strategies derive subtasks by constructing new Task values
// sharing the same ID.
type Task struct {
	// ID uniquely identifies the task across pools and memory categories.
	ID string `json:"id"`

	// Description is the natural-language statement of the work.
	Description string `json:"description"`

	// Context optionally carries upstream output the task should build on.
	Context string `json:"context,omitempty"`
}

// NewTask creates a task with a generated ID.
func NewTask(description string) Task {
	return Task{ID: uuid.NewString(), Description: description}
}

// Validate checks that the task is well formed. An empty description is a
// configuration error.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return NewError(KindConfig, "task description must not be empty")
	}
	return nil
}
