package scheduler

import (
	"context"
	"sync"

	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/pipeline"
	"github.com/skilldocs/grader/pkg/constants"
	"github.com/skilldocs/grader/pkg/errors"
	"github.com/skilldocs/grader/pkg/grading"
	"github.com/skilldocs/grader/pkg/problem"
	"go.uber.org/zap"
)

// Scheduler owns a fixed pool of pipeline workers. Each grading pass occupies
// one worker for its whole duration; when every worker is busy, callers get
// ErrFailedToGetFreeWorker and can retry or requeue.
type Scheduler interface {
	GradeSubmission(ctx context.Context, runID string, def *problem.Definition, source string) (grading.Result, error)
	GetWorkersStatus() map[string]interface{}
}

type scheduler struct {
	mu               sync.Mutex
	busyWorkersCount int
	workers          map[int]pipeline.Worker
	maxWorkers       int
	logger           *zap.SugaredLogger
}

func NewScheduler(maxWorkers int, newWorker func(id int) pipeline.Worker) Scheduler {
	workers := make(map[int]pipeline.Worker, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		workers[i] = newWorker(i)
	}

	return &scheduler{
		workers:    workers,
		maxWorkers: maxWorkers,
		logger:     logger.NewNamedLogger("scheduler"),
	}
}

func (s *scheduler) GetWorkersStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make(map[int]string, len(s.workers))
	for id, worker := range s.workers {
		if worker.GetStatus() == constants.WorkerStatusBusy {
			statuses[id] = "busy, processing run: " + worker.GetProcessingID()
			continue
		}
		statuses[id] = "idle"
	}

	return map[string]interface{}{
		"busy_workers":  s.busyWorkersCount,
		"total_workers": s.maxWorkers,
		"worker_status": statuses,
	}
}

// getFreeWorker claims an idle worker and stamps it with the run it will
// process. Worker state is only ever touched under s.mu so status reads
// observe a consistent pair of status and processing ID.
func (s *scheduler) getFreeWorker(runID string) (pipeline.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, worker := range s.workers {
		if worker.GetStatus() == constants.WorkerStatusIdle {
			worker.UpdateStatus(constants.WorkerStatusBusy)
			worker.SetProcessingID(runID)
			s.busyWorkersCount++
			return worker, nil
		}
	}

	return nil, errors.ErrFailedToGetFreeWorker
}

func (s *scheduler) GradeSubmission(
	ctx context.Context,
	runID string,
	def *problem.Definition,
	source string,
) (grading.Result, error) {
	s.logger.Infof("Scheduling grading run [RunID: %s]", runID)

	worker, err := s.getFreeWorker(runID)
	if err != nil {
		s.logger.Errorf("No available workers: %s", err)
		return grading.Result{}, err
	}
	defer s.markWorkerAsIdle(worker)

	return worker.GradeSubmission(ctx, def, source), nil
}

func (s *scheduler) markWorkerAsIdle(worker pipeline.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker.SetProcessingID("")
	worker.UpdateStatus(constants.WorkerStatusIdle)
	s.busyWorkersCount--
}
