package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobagent-backend/internal/activitylog"
	"jobagent-backend/internal/agents"
	"jobagent-backend/internal/applyqueue"
	"jobagent-backend/internal/artifacts"
	"jobagent-backend/internal/events"
	"jobagent-backend/internal/jobs"
	"jobagent-backend/internal/shared/metrics"
	"jobagent-backend/internal/shared/telemetry"
)

const (
	defaultApplyDelay   = 500 * time.Millisecond
	defaultApplyTimeout = 60 * time.Second

	candidatePoolSize = 100
)

// ArtifactSource yields the user's latest fact artifact.
type ArtifactSource interface {
	Latest(ctx context.Context, userID string) (artifacts.Artifact, error)
}

// JobSource resolves job listings.
type JobSource interface {
	List(ctx context.Context, limit int) ([]jobs.Job, error)
	GetByID(ctx context.Context, jobID string) (jobs.Job, error)
}

// Service drives the five-phase auto-apply run: initialize, rank, queue,
// apply, completion. One run executes per invocation; callers trigger it in
// the background and observe progress on the event channel.
type Service struct {
	Artifacts ArtifactSource
	Jobs      JobSource
	Ranker    agents.Ranker
	Writer    agents.CoverLetterWriter
	Queue     applyqueue.Repo
	Hub       *events.Hub
	Logs      *activitylog.Service

	// ApplyDelay paces sequential application attempts. ApplyTimeout bounds
	// one cover-letter generation; hitting it fails that item only.
	ApplyDelay   time.Duration
	ApplyTimeout time.Duration
}

func NewService(
	artifactSrc ArtifactSource,
	jobSrc JobSource,
	ranker agents.Ranker,
	writer agents.CoverLetterWriter,
	queue applyqueue.Repo,
	hub *events.Hub,
	logs *activitylog.Service,
) *Service {
	return &Service{
		Artifacts:    artifactSrc,
		Jobs:         jobSrc,
		Ranker:       ranker,
		Writer:       writer,
		Queue:        queue,
		Hub:          hub,
		Logs:         logs,
		ApplyDelay:   defaultApplyDelay,
		ApplyTimeout: defaultApplyTimeout,
	}
}

// Run executes one workflow run for the user. It never returns an error:
// every failure, including panics, is folded into the outcome and announced
// on the event channel.
func (s *Service) Run(ctx context.Context, userID string, maxJobs int, autoApply bool) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("workflow.panic", map[string]any{
				"user_id": userID,
				"error":   fmt.Sprint(r),
			})
			outcome = s.failRun(ctx, userID, fmt.Sprintf("unexpected failure: %v", r), outcome)
		}
	}()

	if maxJobs < 1 {
		maxJobs = 1
	}
	startedAt := time.Now()
	metrics.IncRunStarted()
	defer func() {
		metrics.ObserveRunDurationMs(float64(time.Since(startedAt).Microseconds()) / 1000.0)
	}()

	// Phase 1: initialize.
	s.publish(userID, events.NewLog(events.LevelInfo, "Auto-apply workflow starting"))
	s.publishStatus(userID, "running", "initializing", 0, 0)
	s.Logs.Record(ctx, userID, "info", "Auto-apply workflow started")

	artifact, err := s.Artifacts.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			s.publish(userID, events.NewLog(events.LevelError, noArtifactError))
			s.publishStatus(userID, "failed", "failed", 0, 0)
			metrics.IncRunFailed()
			s.Logs.Record(ctx, userID, "error", noArtifactError)
			return Outcome{Success: false, Error: noArtifactError}
		}
		return s.failRun(ctx, userID, fmt.Sprintf("load artifact: %v", err), outcome)
	}

	// Phase 2: rank.
	s.publishStatus(userID, "running", "ranking", 0, 0)
	ranked, err := s.rankPhase(ctx, userID, artifact.Pack, maxJobs)
	if err != nil {
		return s.failRun(ctx, userID, fmt.Sprintf("rank jobs: %v", err), outcome)
	}
	outcome.Ranked = ranked

	if len(ranked) == 0 {
		s.publish(userID, events.NewLog(events.LevelInfo, "No matching jobs found"))
		s.completeRun(ctx, userID, 0, 0)
		outcome.Success = true
		return outcome
	}

	// Phase 3: queue.
	s.publishStatus(userID, "running", "adding_to_queue", 0, 0)
	queued, err := s.queuePhase(ctx, userID, ranked)
	if err != nil {
		return s.failRun(ctx, userID, fmt.Sprintf("queue jobs: %v", err), outcome)
	}
	outcome.Ranked = queued

	if !autoApply {
		s.publish(userID, events.NewLog(events.LevelInfo,
			fmt.Sprintf("%d jobs queued; auto-apply disabled", len(queued))))
		s.completeRun(ctx, userID, 0, 0)
		outcome.Success = true
		return outcome
	}

	// Phase 4: apply.
	s.publishStatus(userID, "running", "applying", 0, 0)
	applied, failed := s.applyPhase(ctx, userID, artifact.Pack, queued)
	outcome.Applied = applied
	outcome.Failed = failed
	outcome.TasksCompleted = len(applied)
	outcome.TasksFailed = len(failed)

	// Phase 5: completion.
	s.publish(userID, events.NewLog(events.LevelSuccess,
		fmt.Sprintf("Workflow complete: %d applied, %d failed", len(applied), len(failed))))
	s.Logs.Record(ctx, userID, "info",
		fmt.Sprintf("Auto-apply run finished: %d applied, %d failed", len(applied), len(failed)))
	s.completeRun(ctx, userID, len(applied), len(failed))

	outcome.Success = true
	return outcome
}

// rankPhase resolves and scores up to maxJobs candidates. Unresolvable job
// references are logged and skipped, never fatal.
func (s *Service) rankPhase(ctx context.Context, userID string, pack artifacts.Pack, maxJobs int) ([]RankedJob, error) {
	pool, err := s.Jobs.List(ctx, candidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil
	}

	postings := make([]agents.JobPosting, 0, len(pool))
	for _, job := range pool {
		postings = append(postings, agents.JobPosting{
			ID:             job.ID,
			Title:          job.Title,
			Company:        job.Company,
			Description:    job.Description,
			RequiredSkills: job.RequiredSkills,
		})
	}

	refs, err := s.Ranker.Rank(ctx, pack, postings, maxJobs)
	if err != nil {
		return nil, err
	}

	userSkills := pack.Profile.Skills.All()
	ranked := make([]RankedJob, 0, len(refs))
	for idx, ref := range refs {
		job, err := s.Jobs.GetByID(ctx, ref.JobID)
		if err != nil {
			s.publish(userID, events.NewLog(events.LevelWarning,
				fmt.Sprintf("Skipping job %s: listing unavailable", ref.JobID)))
			telemetry.Warn("workflow.job_unresolved", map[string]any{
				"user_id": userID,
				"job_id":  ref.JobID,
				"error":   err.Error(),
			})
			continue
		}

		score := matchScore(ref.Score, idx)
		entry := RankedJob{
			Job:           job,
			MatchScore:    score,
			MatchedSkills: intersectSkills(job.RequiredSkills, userSkills),
		}
		ranked = append(ranked, entry)

		s.publish(userID, events.NewJobUpdate(events.ActionRanking, map[string]any{
			"id":             job.ID,
			"name":           job.Title,
			"company":        job.Company,
			"match_score":    score,
			"matched_skills": entry.MatchedSkills,
		}))
		s.publish(userID, events.NewProcessUpdate(events.StageRanking, idx+1, len(refs), nil))
	}

	s.publish(userID, events.NewLog(events.LevelSuccess,
		fmt.Sprintf("Ranked %d jobs", len(ranked))))
	return ranked, nil
}

// queuePhase materializes queue items for the ranked jobs, reusing any item
// that already exists for the (user, job) pair.
func (s *Service) queuePhase(ctx context.Context, userID string, ranked []RankedJob) ([]RankedJob, error) {
	out := make([]RankedJob, 0, len(ranked))
	for _, entry := range ranked {
		existing, err := s.Queue.FindOne(ctx, userID, entry.Job.ID)
		switch {
		case err == nil:
			entry.QueueItemID = existing.ID
			entry.Existing = true
			s.publish(userID, events.NewLog(events.LevelInfo,
				fmt.Sprintf("%s at %s is already in the queue (%s)", entry.Job.Title, entry.Job.Company, existing.Status)))
		case errors.Is(err, applyqueue.ErrNotFound):
			item := applyqueue.Item{
				ID:         uuid.NewString(),
				UserID:     userID,
				JobID:      entry.Job.ID,
				JobTitle:   entry.Job.Title,
				Company:    entry.Job.Company,
				MatchScore: entry.MatchScore,
				Status:     applyqueue.StatusQueued,
			}
			if insertErr := s.Queue.Insert(ctx, item); insertErr != nil {
				if errors.Is(insertErr, applyqueue.ErrDuplicate) {
					// Lost a race with a concurrent run; reuse the winner's item.
					if won, findErr := s.Queue.FindOne(ctx, userID, entry.Job.ID); findErr == nil {
						entry.QueueItemID = won.ID
						entry.Existing = true
						out = append(out, entry)
						continue
					}
				}
				return nil, fmt.Errorf("insert queue item for job %s: %w", entry.Job.ID, insertErr)
			}
			entry.QueueItemID = item.ID
		default:
			return nil, fmt.Errorf("find queue item for job %s: %w", entry.Job.ID, err)
		}
		out = append(out, entry)
	}

	s.publishQueueSnapshot(ctx, userID)
	return out, nil
}

// applyPhase walks the queue sequentially, applying to every item that is
// not already submitted. One item's failure never aborts the loop.
func (s *Service) applyPhase(ctx context.Context, userID string, pack artifacts.Pack, ranked []RankedJob) (applied, failed []string) {
	delay := s.ApplyDelay
	timeout := s.ApplyTimeout
	if timeout <= 0 {
		timeout = defaultApplyTimeout
	}

	total := len(ranked)
	for idx, entry := range ranked {
		if entry.Existing {
			item, err := s.Queue.GetByID(ctx, userID, entry.QueueItemID)
			if err == nil && item.Status == applyqueue.StatusSubmitted {
				s.publish(userID, events.NewLog(events.LevelInfo,
					fmt.Sprintf("Already applied to %s at %s, skipping", entry.Job.Title, entry.Job.Company)))
				continue
			}
		}

		if err := s.applyOne(ctx, userID, pack, entry, timeout); err != nil {
			failed = append(failed, entry.Job.ID)
			metrics.IncApplyFailed()
			s.publish(userID, events.NewJobUpdate(events.ActionFailed, map[string]any{
				"id":      entry.Job.ID,
				"name":    entry.Job.Title,
				"company": entry.Job.Company,
				"error":   err.Error(),
			}))
			s.publish(userID, events.NewLog(events.LevelError,
				fmt.Sprintf("Application to %s at %s failed: %v", entry.Job.Title, entry.Job.Company, err)))
		} else {
			applied = append(applied, entry.Job.ID)
			metrics.IncApplySubmitted()
			s.publish(userID, events.NewJobUpdate(events.ActionCompleted, map[string]any{
				"id":          entry.Job.ID,
				"name":        entry.Job.Title,
				"company":     entry.Job.Company,
				"match_score": entry.MatchScore,
			}))
			s.publish(userID, events.NewLog(events.LevelSuccess,
				fmt.Sprintf("Applied to %s at %s", entry.Job.Title, entry.Job.Company)))
		}

		s.publish(userID, events.NewProcessUpdate(events.StageApplying, idx+1, total, nil))

		if delay > 0 && idx < total-1 {
			select {
			case <-ctx.Done():
				return applied, failed
			case <-time.After(delay):
			}
		}
	}
	return applied, failed
}

// applyOne drives one item through APPLYING and into a terminal status. The
// status write always lands before the matching event is published.
func (s *Service) applyOne(ctx context.Context, userID string, pack artifacts.Pack, entry RankedJob, timeout time.Duration) error {
	if err := s.Queue.UpdateStatus(ctx, entry.QueueItemID, applyqueue.StatusUpdate{
		Status: applyqueue.StatusApplying,
	}); err != nil {
		return fmt.Errorf("mark applying: %w", err)
	}
	s.publish(userID, events.NewJobUpdate(events.ActionApplying, map[string]any{
		"id":      entry.Job.ID,
		"name":    entry.Job.Title,
		"company": entry.Job.Company,
	}))

	// Re-resolve the listing; it may have vanished since ranking.
	job, err := s.Jobs.GetByID(ctx, entry.Job.ID)
	if err != nil {
		return s.failItem(ctx, entry.QueueItemID, fmt.Errorf("job listing vanished: %w", err))
	}

	genCtx, cancel := context.WithTimeout(ctx, timeout)
	letter, err := s.Writer.Generate(genCtx, pack, agents.JobPosting{
		ID:             job.ID,
		Title:          job.Title,
		Company:        job.Company,
		Description:    job.Description,
		RequiredSkills: job.RequiredSkills,
	})
	cancel()
	if err != nil {
		return s.failItem(ctx, entry.QueueItemID, err)
	}

	if err := s.Queue.UpdateStatus(ctx, entry.QueueItemID, applyqueue.StatusUpdate{
		Status:      applyqueue.StatusSubmitted,
		CoverLetter: letter,
	}); err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	return nil
}

func (s *Service) failItem(ctx context.Context, itemID string, cause error) error {
	if err := s.Queue.UpdateStatus(ctx, itemID, applyqueue.StatusUpdate{
		Status:       applyqueue.StatusFailed,
		ErrorMessage: cause.Error(),
	}); err != nil {
		return fmt.Errorf("mark failed (%v): %w", cause, err)
	}
	return cause
}

func (s *Service) completeRun(ctx context.Context, userID string, applied, failed int) {
	s.publishStatus(userID, "idle", "completed", applied, failed)
	s.publish(userID, events.NewProcessUpdate(events.StageCompleted, 1, 1, nil))
	s.publishQueueSnapshot(ctx, userID)
	metrics.IncRunCompleted()
}

func (s *Service) failRun(ctx context.Context, userID, message string, partial Outcome) Outcome {
	s.publish(userID, events.NewLog(events.LevelError, message))
	s.publishStatus(userID, "failed", "failed", partial.TasksCompleted, partial.TasksFailed)
	s.Logs.Record(ctx, userID, "error", "Auto-apply run failed: "+message)
	metrics.IncRunFailed()
	partial.Success = false
	partial.Error = message
	return partial
}

func (s *Service) publish(userID string, event events.Event) {
	if s.Hub != nil {
		s.Hub.Publish(userID, event)
	}
}

func (s *Service) publishStatus(userID, agentStatus, phase string, completed, failed int) {
	s.publish(userID, events.NewStatusUpdate(events.AgentStatus{
		AgentStatus:    agentStatus,
		CurrentPhase:   phase,
		TasksCompleted: completed,
		TasksFailed:    failed,
	}))
}

func (s *Service) publishQueueSnapshot(ctx context.Context, userID string) {
	items, err := s.Queue.ListByUser(ctx, userID)
	if err != nil {
		telemetry.Error("workflow.queue_snapshot_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	entries := make([]events.QueueEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, events.QueueEntry{
			ID:         item.ID,
			Name:       item.JobTitle,
			Status:     item.Status,
			MatchScore: item.MatchScore,
		})
	}
	s.publish(userID, events.NewQueueUpdate(entries))
}

// matchScore maps an adapter score in (0, 1] to a 0-100 display score. A
// missing or non-positive score gets a decaying positional fallback so the
// display order stays non-degenerate.
func matchScore(score float64, index int) float64 {
	if score > 0 {
		return math.Round(score*100*100) / 100
	}
	return math.Max(10, float64(100-2*index))
}

func intersectSkills(required, owned []string) []string {
	have := make(map[string]string, len(owned))
	for _, skill := range owned {
		have[strings.ToLower(strings.TrimSpace(skill))] = skill
	}
	var out []string
	for _, skill := range required {
		if _, ok := have[strings.ToLower(strings.TrimSpace(skill))]; ok {
			out = append(out, skill)
		}
	}
	sort.Strings(out)
	return out
}
