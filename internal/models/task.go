package models

import "sort"

// DefaultTaskPriority applies to tasks without an explicit priority. 1 is highest.
const DefaultTaskPriority = 3

// Task is a unit of work tracked in the task list.
type Task struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty"`
	Priority           int      `json:"priority"`
	Passes             bool     `json:"passes"`
	Source             string   `json:"source,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// TaskList is the document stored in tasks.json.
type TaskList struct {
	Project     string `json:"project,omitempty"`
	BranchName  string `json:"branchName,omitempty"`
	Description string `json:"description,omitempty"`
	Tasks       []Task `json:"userStories"`
	LastSynced  string `json:"lastSynced,omitempty"`
}

// Pending returns incomplete tasks ordered by priority, highest first.
// Tasks sharing a priority keep their document order.
func (l *TaskList) Pending() []Task {
	if l == nil {
		return nil
	}
	pending := make([]Task, 0, len(l.Tasks))
	for _, task := range l.Tasks {
		if !task.Passes {
			pending = append(pending, task)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority < pending[j].Priority
	})
	return pending
}

// Next returns the highest-priority pending task.
func (l *TaskList) Next() (Task, bool) {
	pending := l.Pending()
	if len(pending) == 0 {
		return Task{}, false
	}
	return pending[0], true
}

// AllComplete reports whether every task passes. An empty list is complete.
func (l *TaskList) AllComplete() bool {
	if l == nil {
		return true
	}
	for _, task := range l.Tasks {
		if !task.Passes {
			return false
		}
	}
	return true
}

// CompletedCount returns the number of passing tasks.
func (l *TaskList) CompletedCount() int {
	if l == nil {
		return 0
	}
	count := 0
	for _, task := range l.Tasks {
		if task.Passes {
			count++
		}
	}
	return count
}

// MarkComplete flags the task with the given id as passing.
func (l *TaskList) MarkComplete(id string) error {
	if l == nil {
		return ErrTaskNotFound
	}
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			l.Tasks[i].Passes = true
			return nil
		}
	}
	return ErrTaskNotFound
}

// Normalize fills defaults for fields omitted in the stored document.
func (l *TaskList) Normalize() {
	if l == nil {
		return
	}
	for i := range l.Tasks {
		if l.Tasks[i].Priority == 0 {
			l.Tasks[i].Priority = DefaultTaskPriority
		}
		if l.Tasks[i].Source == "" {
			l.Tasks[i].Source = "unknown"
		}
		if l.Tasks[i].Description == "" {
			l.Tasks[i].Description = l.Tasks[i].Title
		}
	}
}
