package app

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task фоновая задача, работает до отмены ctx
type Task struct {
	Name string
	Run  func(ctx context.Context)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	tasks  []Task
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(logger *zap.Logger, tasks ...Task) *Scheduler {
	return &Scheduler{
		tasks:  tasks,
		logger: logger,
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("tasks", len(s.tasks)))

	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		s.wg.Add(1)
		go func(task Task) {
			defer s.wg.Done()
			task.Run(ctx)
			s.logger.Info("Background task finished", zap.String("task", task.Name))
		}(task)
	}
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
