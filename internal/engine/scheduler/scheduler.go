/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package scheduler runs the action worker pool: it claims READY actions,
// routes them to the cluster or node runtime, and maps the outcome onto
// the action's terminal status.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/corral-cloud/corral/internal/engine/action"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage"
)

// Requeue policy for retriable outcomes.
const (
	maxRetries      = 5
	retryBackoffMin = time.Second
	retryBackoffMax = 60 * time.Second
)

// pollInterval bounds how stale a READY action can sit unnoticed when its
// wakeup notification was lost.
const pollInterval = 5 * time.Second

// readyQueueDepth sizes the wakeup channel.  A full queue is not a loss:
// the periodic poll picks the action up.
const readyQueueDepth = 1024

// Runtime executes one claimed action to completion.
type Runtime interface {
	Execute(ctx context.Context, act *models.Action) action.Result
}

// Scheduler owns the worker pool.  It implements the dispatcher surface
// the runtimes notify (NotifyReady) and the cancel fanout the lock
// manager uses when stealing (NotifyCancel).
type Scheduler struct {
	id       uuid.UUID
	store    storage.Store
	clusters Runtime
	nodes    Runtime
	workers  *semaphore.Weighted
	logger   *slog.Logger

	ready chan uuid.UUID

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	retries map[uuid.UUID]int
	wg      sync.WaitGroup
}

// New builds a scheduler with the given concurrency limit.
func New(store storage.Store, clusters, nodes Runtime, workerCount int64, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		id:       uuid.New(),
		store:    store,
		clusters: clusters,
		nodes:    nodes,
		workers:  semaphore.NewWeighted(workerCount),
		logger:   logger,
		ready:    make(chan uuid.UUID, readyQueueDepth),
		running:  map[uuid.UUID]context.CancelFunc{},
		retries:  map[uuid.UUID]int{},
	}
}

// ID identifies this scheduler instance as a lock and claim owner.
func (s *Scheduler) ID() uuid.UUID { return s.id }

// NotifyReady wakes the pool for a newly READY action.  The notification
// is advisory; a dropped one is recovered by the periodic poll.
func (s *Scheduler) NotifyReady(actionID uuid.UUID) {
	select {
	case s.ready <- actionID:
	default:
		s.logger.Debug("Ready queue full, deferring to poll",
			slog.String("action", actionID.String()))
	}
}

// NotifyCancel interrupts an action running in this process.  The durable
// signal is the control column; this only shortens the reaction time.
func (s *Scheduler) NotifyCancel(actionID uuid.UUID) {
	s.mu.Lock()
	cancel, found := s.running[actionID]
	s.mu.Unlock()
	if found {
		cancel()
	}
}

// Cancel requests cooperative cancellation of an action.
func (s *Scheduler) Cancel(ctx context.Context, actionID uuid.UUID) error {
	if err := s.store.Actions().SetControl(ctx, actionID, models.ActionControlCancel); err != nil {
		return err
	}
	s.NotifyCancel(actionID)
	return nil
}

// Start runs the dispatch loop until the context is cancelled, then waits
// for in-flight workers to drain.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.InfoContext(ctx, "Scheduler started", slog.String("scheduler", s.id.String()))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	s.pollReady(ctx)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("Scheduler stopped", slog.String("scheduler", s.id.String()))
			return
		case actionID := <-s.ready:
			s.launch(ctx, actionID)
		case <-ticker.C:
			s.pollReady(ctx)
		}
	}
}

// pollReady sweeps the store for READY actions, including ones queued
// before this process started or whose notification was lost.
func (s *Scheduler) pollReady(ctx context.Context) {
	actions, err := s.store.Actions().GetReady(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to poll ready actions", slog.String("error", err.Error()))
		return
	}
	for i := range actions {
		s.launch(ctx, *actions[i].ID)
	}
}

// launch claims one worker slot and runs the action on it.  A saturated
// pool never blocks the dispatch loop: the action stays READY and the
// periodic poll picks it up once a slot frees.
func (s *Scheduler) launch(ctx context.Context, actionID uuid.UUID) {
	if !s.workers.TryAcquire(1) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.workers.Release(1)
		s.run(ctx, actionID)
	}()
}

func (s *Scheduler) run(ctx context.Context, actionID uuid.UUID) {
	claimed, err := s.store.Actions().AcquireForRun(ctx, actionID, s.id)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to claim action",
			slog.String("action", actionID.String()), slog.String("error", err.Error()))
		return
	}
	if !claimed {
		return
	}

	act, err := s.store.Actions().Get(ctx, actionID)
	if err != nil {
		s.logger.WarnContext(ctx, "Claimed action vanished",
			slog.String("action", actionID.String()), slog.String("error", err.Error()))
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.running[actionID] = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.running, actionID)
		s.mu.Unlock()
	}()

	s.logger.InfoContext(ctx, "Action execution started",
		slog.String("action", actionID.String()), slog.String("name", act.Action))

	result := s.route(runCtx, act)
	s.settle(ctx, act, result)
}

func (s *Scheduler) route(ctx context.Context, act *models.Action) action.Result {
	switch {
	case strings.HasPrefix(act.Action, "CLUSTER_"):
		return s.clusters.Execute(ctx, act)
	case strings.HasPrefix(act.Action, "NODE_"):
		return s.nodes.Execute(ctx, act)
	default:
		return action.Result{Code: action.ResultError,
			Reason: fmt.Sprintf("Unsupported action '%s'", act.Action)}
	}
}

// settle maps the result onto a status.  Retriable outcomes requeue with
// backoff until the attempt budget runs out.
func (s *Scheduler) settle(ctx context.Context, act *models.Action, result action.Result) {
	actionID := *act.ID

	var status string
	switch result.Code {
	case action.ResultOK:
		status = models.ActionStatusSucceeded
	case action.ResultCancel:
		status = models.ActionStatusCancelled
	case action.ResultRetry:
		s.requeue(ctx, act, result)
		return
	case action.ResultWaiting:
		// The worker slot is free again; the action resumes when the last
		// of its dependents settles.
		if err := s.store.Actions().UpdateStatus(ctx, actionID, models.ActionStatusWaiting, result.Reason); err != nil {
			s.logger.WarnContext(ctx, "Failed to park waiting action",
				slog.String("action", actionID.String()), slog.String("error", err.Error()))
		}
		s.logger.InfoContext(ctx, "Action parked",
			slog.String("action", actionID.String()), slog.String("name", act.Action))
		// Children that settled before the park saw a RUNNING parent and
		// skipped the wakeup; re-checking here closes that window.
		s.maybeWake(ctx, actionID)
		return
	default:
		// ERROR and TIMEOUT both settle as FAILED; the reason records which.
		status = models.ActionStatusFailed
	}

	s.mu.Lock()
	delete(s.retries, actionID)
	s.mu.Unlock()

	if err := s.store.Actions().UpdateStatus(ctx, actionID, status, result.Reason); err != nil {
		s.logger.ErrorContext(ctx, "Failed to settle action",
			slog.String("action", actionID.String()), slog.String("status", status),
			slog.String("error", err.Error()))
		return
	}
	s.logger.InfoContext(ctx, "Action settled",
		slog.String("action", actionID.String()), slog.String("name", act.Action),
		slog.String("status", status), slog.String("reason", result.Reason))

	s.wakeDependents(ctx, actionID)
}

// wakeDependents re-dispatches WAITING parents whose dependent set has
// fully settled.  Concurrent wakers race on the status update; the losers
// are stopped by the store's transition guard.
func (s *Scheduler) wakeDependents(ctx context.Context, childID uuid.UUID) {
	parentIDs, err := s.store.Actions().ListDependents(ctx, childID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list dependents",
			slog.String("action", childID.String()), slog.String("error", err.Error()))
		return
	}
	for _, parentID := range parentIDs {
		s.maybeWake(ctx, parentID)
	}
}

// maybeWake readies a WAITING action once every one of its dependents has
// reached a terminal status.
func (s *Scheduler) maybeWake(ctx context.Context, parentID uuid.UUID) {
	parent, err := s.store.Actions().Get(ctx, parentID)
	if err != nil || parent.Status != models.ActionStatusWaiting {
		return
	}
	childIDs, err := s.store.Actions().ListDependencies(ctx, parentID)
	if err != nil {
		return
	}
	for _, id := range childIDs {
		child, err := s.store.Actions().Get(ctx, id)
		if err != nil || !models.IsTerminalActionStatus(child.Status) {
			return
		}
	}
	if err := s.store.Actions().UpdateStatus(ctx, parentID,
		models.ActionStatusReady, "All depended actions completed"); err != nil {
		return
	}
	s.NotifyReady(parentID)
}

func (s *Scheduler) requeue(ctx context.Context, act *models.Action, result action.Result) {
	actionID := *act.ID

	s.mu.Lock()
	s.retries[actionID]++
	attempt := s.retries[actionID]
	s.mu.Unlock()

	if attempt > maxRetries {
		s.mu.Lock()
		delete(s.retries, actionID)
		s.mu.Unlock()
		reason := fmt.Sprintf("Exceeded %d retries: %s", maxRetries, result.Reason)
		if err := s.store.Actions().UpdateStatus(ctx, actionID, models.ActionStatusFailed, reason); err != nil {
			s.logger.ErrorContext(ctx, "Failed to fail exhausted action",
				slog.String("action", actionID.String()), slog.String("error", err.Error()))
			return
		}
		s.wakeDependents(ctx, actionID)
		return
	}

	if err := s.store.Actions().MarkReady(ctx, actionID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to requeue action",
			slog.String("action", actionID.String()), slog.String("error", err.Error()))
		return
	}

	backoff := retryBackoffMin << (attempt - 1)
	if backoff > retryBackoffMax {
		backoff = retryBackoffMax
	}
	s.logger.InfoContext(ctx, "Action requeued",
		slog.String("action", actionID.String()), slog.Int("attempt", attempt),
		slog.Duration("backoff", backoff), slog.String("reason", result.Reason))

	timer := time.AfterFunc(backoff, func() { s.NotifyReady(actionID) })
	go func() {
		<-ctx.Done()
		timer.Stop()
	}()
}
