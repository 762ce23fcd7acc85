/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package engine assembles the control plane: storage, locks, policy and
// profile frameworks, the action runtimes and the scheduler, exposed
// through the intent service.
package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/corral-cloud/corral/internal/driver"
	"github.com/corral-cloud/corral/internal/engine/action"
	"github.com/corral-cloud/corral/internal/engine/lock"
	"github.com/corral-cloud/corral/internal/engine/policy"
	"github.com/corral-cloud/corral/internal/engine/profile"
	"github.com/corral-cloud/corral/internal/engine/scheduler"
	"github.com/corral-cloud/corral/internal/engine/service"
	"github.com/corral-cloud/corral/internal/storage"
)

// Params configures an engine instance.
type Params struct {
	Store    storage.Store
	Provider driver.Provider
	Workers  int64
	// AuthURL is the default identity endpoint handed to driver sessions
	// built outside a request scope.
	AuthURL string
	Logger  *slog.Logger

	// Optional registry overrides; nil selects the built-in kinds.
	Policies *policy.Registry
	Profiles *profile.Registry
}

// Engine is one running control-plane instance.
type Engine struct {
	service   *service.Service
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// New wires an engine from its parts.
func New(params Params) *Engine {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	provider := params.Provider
	if provider == nil {
		provider = driver.Unconfigured()
	}
	policyRegistry := params.Policies
	if policyRegistry == nil {
		policyRegistry = policy.DefaultRegistry()
	}
	profileRegistry := params.Profiles
	if profileRegistry == nil {
		profileRegistry = profile.DefaultRegistry()
	}

	policyServices := policy.Services{Store: params.Store, Provider: provider,
		AuthURL: params.AuthURL, Logger: logger}
	profileServices := profile.Services{Store: params.Store, Provider: provider,
		AuthURL: params.AuthURL, Logger: logger}
	policyEngine := policy.NewEngine(policyRegistry, policyServices)

	// The scheduler doubles as the cancel notifier the lock manager fires
	// when stealing and as the dispatcher the runtimes wake, so it is wired
	// in after construction.
	locks := lock.NewManager(params.Store, nil, logger)
	clusters := action.NewClusterRuntime(params.Store, locks, policyEngine, nil, logger)
	nodes := action.NewNodeRuntime(params.Store, locks, profileRegistry, profileServices, logger)
	sched := scheduler.New(params.Store, clusters, nodes, params.Workers, logger)
	locks.SetNotifier(sched)
	clusters.SetDispatcher(sched)

	svc := service.New(params.Store, policyEngine, profileRegistry, profileServices, sched, logger)

	return &Engine{service: svc, scheduler: sched, logger: logger}
}

// Service returns the intent surface.
func (e *Engine) Service() *service.Service { return e.service }

// Scheduler returns the worker pool.
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.scheduler }

// Run starts the scheduler and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		e.scheduler.Start(ctx)
		return nil
	})
	return group.Wait()
}
