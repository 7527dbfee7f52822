package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"dosh_badges/internal/model"
	"dosh_badges/internal/rules"
	"dosh_badges/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ActionKind string

const (
	ActionKindCode     ActionKind = "code"
	ActionKindEvidence ActionKind = "evidence"
	ActionKindTool     ActionKind = "tool-usage"
)

type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeCanceled Outcome = "canceled"
	OutcomeFailed   Outcome = "failed"
)

const (
	msgCodeAccepted     = "Code validated! Progress updated."
	msgCodeRejected     = "Invalid code. Please check and try again."
	msgEvidenceAccepted = "Evidence analyzed and accepted! Badge progress updated."
	msgToolAccepted     = "Tool usage recorded! Progress updated."
	msgCanceled         = "Action canceled."
	msgFailed           = "Something went wrong. Please try again."

	// finished tasks kept for lookup by id
	retainedTasks = 256
)

// ActionResult is the resolution of an action task.
type ActionResult struct {
	ID      string             `json:"id"`
	BadgeID string             `json:"badgeId"`
	Kind    ActionKind         `json:"kind"`
	Outcome Outcome            `json:"outcome"`
	Message string             `json:"message,omitempty"`
	Badge   *model.BadgeStatus `json:"badge,omitempty"`
}

// Evidence is a learning-evidence submission. A file counts as evidence on
// its own.
type Evidence struct {
	Text     string `json:"text"`
	FileName string `json:"fileName,omitempty"`
}

// Task is one running action. It resolves exactly once.
type Task struct {
	id      string
	badgeID string
	kind    ActionKind

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result ActionResult
	err    error
}

func (t *Task) ID() string { return t.id }

func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel abandons the action. A task that already resolved is not affected.
func (t *Task) Cancel() { t.cancel() }

// Result blocks until the task resolves. A rejected action returns the result
// together with the rejection error.
func (t *Task) Result() (ActionResult, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Wait is Result bounded by ctx.
func (t *Task) Wait(ctx context.Context) (ActionResult, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		return t.Snapshot(), ctx.Err()
	}
}

// Snapshot returns the current result without blocking.
func (t *Task) Snapshot() ActionResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

func (t *Task) resolve(result ActionResult, err error) {
	t.mu.Lock()
	t.result = result
	t.err = err
	t.mu.Unlock()
	t.cancel()
	close(t.done)
}

// applyFunc turns the stored badge into its replacement when the action
// succeeds. Its error rejects the action and nothing is stored.
type applyFunc func(b model.Badge, cfg *model.BadgeConfig, now time.Time) (model.Badge, error)

type ActionService struct {
	repo    BadgeRepository
	hub     *Hub
	metrics *Metrics
	clock   Clock
	opts    Options

	inflight map[string]*Task
	tasks    map[string]*Task
	finished []string
	wg       sync.WaitGroup
	sync.Mutex
}

func NewActionService(repo BadgeRepository, hub *Hub, metrics *Metrics, clock Clock, opts Options) *ActionService {
	return &ActionService{
		repo:     repo,
		hub:      hub,
		metrics:  metrics,
		clock:    clock,
		opts:     opts,
		inflight: make(map[string]*Task),
		tasks:    make(map[string]*Task),
	}
}

// SubmitCode checks an entered code against the badge's valid codes. Codes
// are matched uppercased. A valid code counts as one completion.
func (s *ActionService) SubmitCode(ctx context.Context, badgeID, code string) (*Task, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidCode
	}

	return s.start(ctx, badgeID, ActionKindCode, model.ActionCodeEntry, s.opts.Delays.Code, msgCodeAccepted,
		func(b model.Badge, cfg *model.BadgeConfig, now time.Time) (model.Badge, error) {
			entry, _ := cfg.CodeEntry()
			if !slices.Contains(entry.ValidCodes, code) {
				return b, ErrInvalidCode
			}
			return completeAction(b, cfg, now), nil
		})
}

// SubmitEvidence accepts text or a file. Accepted evidence completes the
// badge at once.
func (s *ActionService) SubmitEvidence(ctx context.Context, badgeID string, evidence Evidence) (*Task, error) {
	text := strings.TrimSpace(evidence.Text)
	if text == "" && evidence.FileName == "" {
		return nil, ErrInsufficientEvidence
	}

	return s.start(ctx, badgeID, ActionKindEvidence, model.ActionEvidenceUpload, s.opts.Delays.Evidence, msgEvidenceAccepted,
		func(b model.Badge, cfg *model.BadgeConfig, now time.Time) (model.Badge, error) {
			if evidence.FileName == "" {
				if minimum := s.evidenceMinLength(cfg); len([]rune(text)) < minimum {
					return b, fmt.Errorf("%w: at least %d characters required", ErrInsufficientEvidence, minimum)
				}
			}
			return fillProgress(b, cfg, now), nil
		})
}

// RecordToolUsage counts one use of the badge's financial tool.
func (s *ActionService) RecordToolUsage(ctx context.Context, badgeID string) (*Task, error) {
	return s.start(ctx, badgeID, ActionKindTool, model.ActionToolUsage, s.opts.Delays.Tool, msgToolAccepted,
		func(b model.Badge, cfg *model.BadgeConfig, now time.Time) (model.Badge, error) {
			return completeAction(b, cfg, now), nil
		})
}

// Action looks up a running or recently finished task.
func (s *ActionService) Action(id string) (*Task, bool) {
	s.Lock()
	defer s.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Shutdown cancels running tasks and waits for them to resolve.
func (s *ActionService) Shutdown(ctx context.Context) error {
	s.Lock()
	for _, t := range s.inflight {
		t.Cancel()
	}
	s.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ActionService) evidenceMinLength(cfg *model.BadgeConfig) int {
	if evidence, ok := cfg.Evidence(); ok && evidence.RequiredLength > 0 {
		return evidence.RequiredLength
	}
	if s.opts.EvidenceMinLength > 0 {
		return s.opts.EvidenceMinLength
	}
	return DefaultEvidenceMinLength
}

func inflightKey(badgeID string, kind ActionKind) string {
	return badgeID + "|" + string(kind)
}

func (s *ActionService) start(
	ctx context.Context,
	badgeID string,
	kind ActionKind,
	want model.ActionType,
	delay time.Duration,
	accepted string,
	apply applyFunc,
) (*Task, error) {
	b, _, err := s.repo.GetBadge(ctx, badgeID)
	if err != nil {
		return nil, badgeErr(err)
	}
	if b.ActionType != want {
		return nil, ErrWrongActionType
	}
	if b.IsEarned {
		return nil, ErrAlreadyEarned
	}

	s.Lock()
	defer s.Unlock()

	key := inflightKey(badgeID, kind)
	if _, busy := s.inflight[key]; busy {
		return nil, ErrActionInFlight
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	t := &Task{
		id:      uuid.NewString(),
		badgeID: badgeID,
		kind:    kind,
		ctx:     taskCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	t.result = ActionResult{ID: t.id, BadgeID: badgeID, Kind: kind, Outcome: OutcomePending}

	s.inflight[key] = t
	s.tasks[t.id] = t
	s.wg.Add(1)
	go s.run(t, delay, accepted, apply)

	return t, nil
}

func (s *ActionService) run(t *Task, delay time.Duration, accepted string, apply applyFunc) {
	defer s.wg.Done()
	log := logger.Logger()

	result, err := s.execute(t, delay, accepted, apply)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		result.Outcome, result.Message = OutcomeCanceled, msgCanceled
	case errors.Is(err, ErrInvalidCode):
		result.Outcome, result.Message = OutcomeRejected, msgCodeRejected
	case errors.Is(err, ErrInsufficientEvidence):
		result.Outcome, result.Message = OutcomeRejected, err.Error()
	default:
		result.Outcome, result.Message = OutcomeFailed, msgFailed
		log.Error("failed to complete badge action",
			zap.String("action_id", t.id),
			zap.String("badge_id", t.badgeID),
			zap.String("kind", string(t.kind)),
			zap.Error(err))
	}

	s.Lock()
	delete(s.inflight, inflightKey(t.badgeID, t.kind))
	s.retain(t.id)
	s.Unlock()

	s.metrics.actionFinished(t.kind, result.Outcome)
	t.resolve(result, err)

	s.hub.Publish(Event{
		Type:     EventActionCompleted,
		BadgeID:  t.badgeID,
		ActionID: t.id,
		Progress: progressOf(result.Badge),
		Message:  result.Message,
		At:       s.clock(),
	})
}

func (s *ActionService) execute(t *Task, delay time.Duration, accepted string, apply applyFunc) (ActionResult, error) {
	result := t.Snapshot()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-t.ctx.Done():
		return result, context.Canceled
	case <-timer.C:
	}

	now := s.clock()
	var config *model.BadgeConfig
	b, err := s.repo.UpdateBadge(t.ctx, t.badgeID, func(b model.Badge, cfg *model.BadgeConfig) (model.Badge, error) {
		config = cfg
		return apply(b, cfg, now)
	})
	if err != nil {
		return result, badgeErr(err)
	}

	status := rules.Evaluate(b, config, now, s.opts.Rules)
	result.Outcome = OutcomeAccepted
	result.Message = accepted
	result.Badge = &status
	return result, nil
}

// retain keeps the most recent finished tasks addressable by id. Callers hold
// the lock.
func (s *ActionService) retain(id string) {
	s.finished = append(s.finished, id)
	if len(s.finished) <= retainedTasks {
		return
	}
	delete(s.tasks, s.finished[0])
	s.finished = s.finished[1:]
}

func progressOf(status *model.BadgeStatus) *int {
	if status == nil || status.Badge.Progress == nil {
		return nil
	}
	return model.IntPtr(*status.Badge.Progress)
}
