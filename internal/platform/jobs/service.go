package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"workpay/internal/platform/querier"
)

const (
	JobAnalyticsSnapshot   = "analytics_snapshot"
	JobAttendanceNormalize = "attendance_normalize"
)

type Func func(context.Context) (any, error)

// Service runs background jobs from a bounded queue and records each run in
// job_runs. A nil DB skips recording.
type Service struct {
	DB    querier.Querier
	queue chan job
}

type job struct {
	Type      string
	SubjectID string
	Run       Func
}

func New(db querier.Querier, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Service{
		DB:    db,
		queue: make(chan job, queueSize),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue drops the job with a warning when the queue is full.
func (s *Service) Enqueue(jobType, subjectID string, run Func) bool {
	select {
	case s.queue <- job{Type: jobType, SubjectID: subjectID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "subjectId", subjectID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, subjectID string, run Func) (any, error) {
	return s.runJob(ctx, job{Type: jobType, SubjectID: subjectID, Run: run})
}

// Every enqueues a job on each tick until ctx ends. subject is evaluated per tick.
func (s *Service) Every(ctx context.Context, interval time.Duration, jobType string, subject func(time.Time) string, run func(context.Context, time.Time) (any, error)) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Enqueue(jobType, subject(now), func(ctx context.Context) (any, error) {
					return run(ctx, now)
				})
			}
		}
	}()
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "subjectId", j.SubjectID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, subject_id, status)
      VALUES ($1,$2,$3)
      RETURNING id
    `, j.Type, j.SubjectID, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error(), "details": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	slog.Info("job run finished", "jobType", j.Type, "subjectId", j.SubjectID, "status", status)
	return details, err
}
