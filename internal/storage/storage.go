/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package storage defines the narrow repository surface consumed by the
// engine.  Implementations live in the postgres and memory sub-packages;
// the engine never sees a database handle directly.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/models"
)

// Store aggregates the per-entity repositories.
type Store interface {
	Clusters() ClusterStore
	Nodes() NodeStore
	Profiles() ProfileStore
	Policies() PolicyStore
	Bindings() BindingStore
	Actions() ActionStore
	Locks() LockStore
	Events() EventStore
	Receivers() ReceiverStore
	Credentials() CredentialStore
}

// ClusterStore persists clusters.  List is scoped to the caller's project
// unless the request context is an admin one.
type ClusterStore interface {
	Create(ctx context.Context, cluster *models.Cluster) (*models.Cluster, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Cluster, error)
	List(ctx context.Context) ([]models.Cluster, error)
	Update(ctx context.Context, cluster *models.Cluster) (*models.Cluster, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// NextIndex atomically fetches and increments the cluster's node index
	// counter.  Callers must hold the cluster lock.
	NextIndex(ctx context.Context, id uuid.UUID) (int, error)
}

type NodeStore interface {
	Create(ctx context.Context, node *models.Node) (*models.Node, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Node, error)
	List(ctx context.Context) ([]models.Node, error)
	ListByCluster(ctx context.Context, clusterID uuid.UUID) ([]models.Node, error)
	Update(ctx context.Context, node *models.Node) (*models.Node, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileStore interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PolicyStore interface {
	Create(ctx context.Context, policy *models.Policy) (*models.Policy, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Policy, error)
	List(ctx context.Context) ([]models.Policy, error)
	Update(ctx context.Context, policy *models.Policy) (*models.Policy, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BindingStore persists cluster/policy bindings.  ListForCluster returns
// bindings ordered by priority descending, attach time ascending.
type BindingStore interface {
	Attach(ctx context.Context, binding *models.ClusterPolicy) (*models.ClusterPolicy, error)
	Get(ctx context.Context, clusterID, policyID uuid.UUID) (*models.ClusterPolicy, error)
	ListForCluster(ctx context.Context, clusterID uuid.UUID) ([]models.ClusterPolicy, error)
	ListForPolicy(ctx context.Context, policyID uuid.UUID) ([]models.ClusterPolicy, error)
	Update(ctx context.Context, binding *models.ClusterPolicy) (*models.ClusterPolicy, error)
	Detach(ctx context.Context, clusterID, policyID uuid.UUID) error
}

// ActionStore persists actions and their dependency edges.  UpdateStatus
// validates the transition table and rejects illegal transitions.
type ActionStore interface {
	Create(ctx context.Context, action *models.Action) (*models.Action, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Action, error)
	List(ctx context.Context) ([]models.Action, error)
	ListByTarget(ctx context.Context, targetID uuid.UUID) ([]models.Action, error)
	Update(ctx context.Context, action *models.Action) (*models.Action, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, reason string) error
	MarkReady(ctx context.Context, id uuid.UUID) error
	// GetReady returns READY actions ordered by creation time ascending.
	GetReady(ctx context.Context) ([]models.Action, error)
	// AcquireForRun claims a READY (or resumable SUSPENDED) action for the
	// given worker, transitioning it to RUNNING.  Returns false when the
	// action was not claimable.
	AcquireForRun(ctx context.Context, id, workerID uuid.UUID) (bool, error)
	// AddDependency declares that parent waits on child.  The child moves
	// INIT->READY; the parent moves to WAITING.
	AddDependency(ctx context.Context, childID, parentID uuid.UUID) error
	// ListDependencies returns the child ids the given action waits on.
	ListDependencies(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	// ListDependents returns the parent ids waiting on the given action.
	ListDependents(ctx context.Context, childID uuid.UUID) ([]uuid.UUID, error)
	SetControl(ctx context.Context, id uuid.UUID, control string) error
}

// LockStore persists advisory lock rows.  The semantics (busy detection,
// stealing, orphan reclaim) live in the engine's lock manager; these
// operations are the atomic primitives it builds on.
type LockStore interface {
	// ClusterLockAcquire inserts the lock row when free and returns the
	// owning action id, which equals actionID on success.
	ClusterLockAcquire(ctx context.Context, clusterID, actionID uuid.UUID) (uuid.UUID, error)
	ClusterLockRelease(ctx context.Context, clusterID, actionID uuid.UUID) (bool, error)
	ClusterLockSteal(ctx context.Context, clusterID, actionID uuid.UUID) (uuid.UUID, error)
	ClusterLockGet(ctx context.Context, clusterID uuid.UUID) (*models.ClusterLock, error)
	NodeLockAcquire(ctx context.Context, nodeID, actionID uuid.UUID) ([]uuid.UUID, error)
	NodeLockRelease(ctx context.Context, nodeID, actionID uuid.UUID) (bool, error)
	NodeLockSteal(ctx context.Context, nodeID, actionID uuid.UUID) ([]uuid.UUID, error)
	NodeLockGet(ctx context.Context, nodeID uuid.UUID) (*models.NodeLock, error)
}

type EventStore interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	ListByObject(ctx context.Context, objectID uuid.UUID) ([]models.Event, error)
}

type ReceiverStore interface {
	Create(ctx context.Context, receiver *models.Receiver) (*models.Receiver, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Receiver, error)
	List(ctx context.Context) ([]models.Receiver, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CredentialStore interface {
	Create(ctx context.Context, credential *models.Credential) (*models.Credential, error)
	GetByOwner(ctx context.Context, user, project string) (*models.Credential, error)
	Update(ctx context.Context, credential *models.Credential) (*models.Credential, error)
	Delete(ctx context.Context, user, project string) error
}
