package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type cleanupTask struct {
	name string
	fn   func(ctx context.Context) error
}

// cleanupStack releases started components in reverse start order
type cleanupStack struct {
	tasks []cleanupTask
}

func (s *cleanupStack) push(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	s.tasks = append(s.tasks, cleanupTask{name: name, fn: fn})
}

// run executes every task LIFO; a failing task is logged and does not stop the rest
func (s *cleanupStack) run(ctx context.Context) {
	for i := len(s.tasks) - 1; i >= 0; i-- {
		task := s.tasks[i]
		if err := task.fn(ctx); err != nil {
			log.WithFields(log.Fields{
				"component": task.name,
				"error":     err,
			}).Error("Error during shutdown")
		}
	}
	s.tasks = nil
}
