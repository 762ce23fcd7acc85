/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Engine evaluates the policies bound to a cluster at the BEFORE/AFTER
// checkpoints of a cluster action.
type Engine struct {
	registry *Registry
	services Services
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine builds a policy engine over the given registry and services.
func NewEngine(registry *Registry, services Services) *Engine {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, services: services, logger: logger, now: time.Now}
}

// Check runs every enabled, subscribed binding of the cluster for the
// given phase, in priority order.  Hooks accumulate decisions in
// action.Data; the first veto stops the iteration and is returned as a
// PolicyCheckError.  A hook that fails unexpectedly counts as a veto with
// the error text as reason but does not disable the binding.
func (e *Engine) Check(ctx context.Context, clusterID uuid.UUID, action *models.Action, phase string) error {
	bindings, err := e.services.Store.Bindings().ListForCluster(ctx, clusterID)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		return nil
	}

	if action.Data == nil {
		action.Data = map[string]any{}
	}
	action.Data[models.DataKeyStatus] = models.CheckOK

	for i := range bindings {
		binding := &bindings[i]
		if !binding.Enabled {
			continue
		}
		if e.inCooldown(binding) {
			e.logger.DebugContext(ctx, "Skipping policy in cooldown",
				slog.String("cluster", clusterID.String()),
				slog.String("policy", binding.PolicyID.String()))
			continue
		}

		record, err := e.services.Store.Policies().Get(ctx, binding.PolicyID)
		if err != nil {
			return err
		}
		kind, err := e.registry.New(record, e.services)
		if err != nil {
			return err
		}
		if !subscribed(kind, phase, action.Action) {
			continue
		}

		var hookErr error
		switch phase {
		case PhaseBefore:
			hookErr = kind.PreOp(ctx, clusterID, action)
		case PhaseAfter:
			hookErr = kind.PostOp(ctx, clusterID, action)
		}
		if hookErr != nil {
			e.logger.ErrorContext(ctx, "Policy hook failed",
				slog.String("policy", binding.PolicyID.String()),
				slog.String("phase", phase),
				slog.String("error", hookErr.Error()))
			action.Data[models.DataKeyStatus] = models.CheckError
			action.Data[models.DataKeyReason] = hookErr.Error()
			return typederrors.NewPolicyCheckError(hookErr, "%s", hookErr.Error())
		}
		if reason, veto := vetoed(action); veto {
			return typederrors.NewPolicyCheckError(nil, "%s", reason)
		}

		fired := e.now().UTC()
		binding.LastOp = &fired
		if _, err := e.services.Store.Bindings().Update(ctx, binding); err != nil {
			e.logger.WarnContext(ctx, "Failed to record policy firing time",
				slog.String("policy", binding.PolicyID.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (e *Engine) inCooldown(binding *models.ClusterPolicy) bool {
	if binding.Cooldown <= 0 || binding.LastOp == nil {
		return false
	}
	return e.now().Sub(*binding.LastOp) < time.Duration(binding.Cooldown)*time.Second
}

// ValidateSpec instantiates the kind for the record and runs its
// validation hook.  Used by the intent surface before storing a policy.
func (e *Engine) ValidateSpec(record *models.Policy) error {
	kind, err := e.registry.New(record, e.services)
	if err != nil {
		return err
	}
	return kind.Validate()
}

// KindFor instantiates the kind for a stored policy record.
func (e *Engine) KindFor(record *models.Policy) (Kind, error) {
	return e.registry.New(record, e.services)
}

// Store exposes the backing store for callers holding only the engine.
func (e *Engine) Store() storage.Store { return e.services.Store }
