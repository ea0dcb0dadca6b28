package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/DanielPopoola/jmw-payments/internal/application"
)

// RecordingSink is an application.TaskSink that keeps every enqueued task.
type RecordingSink struct {
	mu    sync.Mutex
	tasks []application.Task

	// Err, when set, is returned from Enqueue and the task is dropped.
	Err error
}

func (s *RecordingSink) Enqueue(_ context.Context, task application.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *RecordingSink) Tasks() []application.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *RecordingSink) Count(kind application.TaskKind) int {
	n := 0
	for _, t := range s.Tasks() {
		if t.Kind == kind {
			n++
		}
	}
	return n
}
