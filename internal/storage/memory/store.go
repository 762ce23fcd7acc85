/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package memory implements the storage interfaces on plain maps guarded
// by a mutex.  It backs the engine's unit tests and the dev-mode server;
// semantics (transition validation, conflict detection, ordering) match
// the postgres implementation.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Store is the in-memory implementation of storage.Store.
type Store struct {
	mu sync.Mutex

	clusters     map[uuid.UUID]models.Cluster
	nodes        map[uuid.UUID]models.Node
	profiles     map[uuid.UUID]models.Profile
	policies     map[uuid.UUID]models.Policy
	bindings     map[uuid.UUID]models.ClusterPolicy
	actions      map[uuid.UUID]models.Action
	dependencies []models.ActionDependency
	clusterLocks map[uuid.UUID]uuid.UUID
	nodeLocks    map[uuid.UUID][]uuid.UUID
	events       []models.Event
	receivers    map[uuid.UUID]models.Receiver
	credentials  map[uuid.UUID]models.Credential
}

// Interface compile enforcement
var _ storage.Store = (*Store)(nil)

// NewStore builds an empty in-memory store.
func NewStore() *Store {
	return &Store{
		clusters:     map[uuid.UUID]models.Cluster{},
		nodes:        map[uuid.UUID]models.Node{},
		profiles:     map[uuid.UUID]models.Profile{},
		policies:     map[uuid.UUID]models.Policy{},
		bindings:     map[uuid.UUID]models.ClusterPolicy{},
		actions:      map[uuid.UUID]models.Action{},
		clusterLocks: map[uuid.UUID]uuid.UUID{},
		nodeLocks:    map[uuid.UUID][]uuid.UUID{},
		receivers:    map[uuid.UUID]models.Receiver{},
		credentials:  map[uuid.UUID]models.Credential{},
	}
}

func (s *Store) Clusters() storage.ClusterStore       { return (*clusterStore)(s) }
func (s *Store) Nodes() storage.NodeStore             { return (*nodeStore)(s) }
func (s *Store) Profiles() storage.ProfileStore       { return (*profileStore)(s) }
func (s *Store) Policies() storage.PolicyStore        { return (*policyStore)(s) }
func (s *Store) Bindings() storage.BindingStore       { return (*bindingStore)(s) }
func (s *Store) Actions() storage.ActionStore         { return (*actionStore)(s) }
func (s *Store) Locks() storage.LockStore             { return (*lockStore)(s) }
func (s *Store) Events() storage.EventStore           { return (*eventStore)(s) }
func (s *Store) Receivers() storage.ReceiverStore     { return (*receiverStore)(s) }
func (s *Store) Credentials() storage.CredentialStore { return (*credentialStore)(s) }

func now() *time.Time {
	t := time.Now().UTC()
	return &t
}

func newID() *uuid.UUID {
	id := uuid.New()
	return &id
}

func projectVisible(ctx context.Context, project string) bool {
	rc := rcontext.FromContext(ctx)
	return rc.Project == "" || rc.IsAdmin || rc.Project == project
}

// ---------------------------------------------------------------------------
// clusters

type clusterStore Store

func (s *clusterStore) Create(_ context.Context, cluster *models.Cluster) (*models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *cluster
	if record.ID == nil {
		record.ID = newID()
	}
	record.Metadata = maps.Clone(record.Metadata)
	record.Data = maps.Clone(record.Data)
	record.CreatedAt = now()
	record.UpdatedAt = now()
	if record.NextIndex == 0 {
		record.NextIndex = 1
	}
	s.clusters[*record.ID] = record
	return &record, nil
}

func (s *clusterStore) Get(_ context.Context, id uuid.UUID) (*models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.clusters[id]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "cluster '%s' not found", id)
	}
	return &record, nil
}

func (s *clusterStore) List(ctx context.Context) ([]models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.clusters), func(c models.Cluster, _ int) bool {
		return projectVisible(ctx, c.Project)
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *clusterStore) Update(_ context.Context, cluster *models.Cluster) (*models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cluster.ID == nil {
		return nil, typederrors.NewValidationError(nil, "cluster id is required for update")
	}
	current, ok := s.clusters[*cluster.ID]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "cluster '%s' not found", *cluster.ID)
	}
	record := *cluster
	record.CreatedAt = current.CreatedAt
	record.UpdatedAt = now()
	// The index counter moves only through NextIndex.
	record.NextIndex = current.NextIndex
	record.Metadata = maps.Clone(record.Metadata)
	record.Data = maps.Clone(record.Data)
	s.clusters[*record.ID] = record
	return &record, nil
}

func (s *clusterStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clusters[id]; !ok {
		return typederrors.NewNotFoundError(nil, "cluster '%s' not found", id)
	}
	delete(s.clusters, id)
	return nil
}

func (s *clusterStore) NextIndex(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.clusters[id]
	if !ok {
		return 0, typederrors.NewNotFoundError(nil, "cluster '%s' not found", id)
	}
	index := record.NextIndex
	record.NextIndex++
	s.clusters[id] = record
	return index, nil
}

// ---------------------------------------------------------------------------
// nodes

type nodeStore Store

func (s *nodeStore) Create(_ context.Context, node *models.Node) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *node
	if record.ID == nil {
		record.ID = newID()
	}
	record.Data = maps.Clone(record.Data)
	record.Metadata = maps.Clone(record.Metadata)
	record.CreatedAt = now()
	record.UpdatedAt = now()
	s.nodes[*record.ID] = record
	return &record, nil
}

func (s *nodeStore) Get(_ context.Context, id uuid.UUID) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.nodes[id]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "node '%s' not found", id)
	}
	return &record, nil
}

func (s *nodeStore) List(ctx context.Context) ([]models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.nodes), func(n models.Node, _ int) bool {
		return projectVisible(ctx, n.Project)
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *nodeStore) ListByCluster(_ context.Context, clusterID uuid.UUID) ([]models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.nodes), func(n models.Node, _ int) bool {
		return n.ClusterID != nil && *n.ClusterID == clusterID
	})
	sort.Slice(records, func(i, j int) bool { return records[i].Index < records[j].Index })
	return records, nil
}

func (s *nodeStore) Update(_ context.Context, node *models.Node) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node.ID == nil {
		return nil, typederrors.NewValidationError(nil, "node id is required for update")
	}
	current, ok := s.nodes[*node.ID]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "node '%s' not found", *node.ID)
	}
	record := *node
	record.CreatedAt = current.CreatedAt
	record.UpdatedAt = now()
	record.Data = maps.Clone(record.Data)
	record.Metadata = maps.Clone(record.Metadata)
	s.nodes[*record.ID] = record
	return &record, nil
}

func (s *nodeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return typederrors.NewNotFoundError(nil, "node '%s' not found", id)
	}
	delete(s.nodes, id)
	return nil
}

// ---------------------------------------------------------------------------
// profiles

type profileStore Store

func (s *profileStore) Create(_ context.Context, profile *models.Profile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *profile
	if record.ID == nil {
		record.ID = newID()
	}
	record.Spec = maps.Clone(record.Spec)
	record.Context = maps.Clone(record.Context)
	record.Metadata = maps.Clone(record.Metadata)
	record.CreatedAt = now()
	record.UpdatedAt = now()
	s.profiles[*record.ID] = record
	return &record, nil
}

func (s *profileStore) Get(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.profiles[id]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "profile '%s' not found", id)
	}
	return &record, nil
}

func (s *profileStore) List(ctx context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.profiles), func(p models.Profile, _ int) bool {
		return projectVisible(ctx, p.Project)
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *profileStore) Update(_ context.Context, profile *models.Profile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == nil {
		return nil, typederrors.NewValidationError(nil, "profile id is required for update")
	}
	current, ok := s.profiles[*profile.ID]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "profile '%s' not found", *profile.ID)
	}
	record := *profile
	record.CreatedAt = current.CreatedAt
	record.UpdatedAt = now()
	s.profiles[*record.ID] = record
	return &record, nil
}

func (s *profileStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return typederrors.NewNotFoundError(nil, "profile '%s' not found", id)
	}
	delete(s.profiles, id)
	return nil
}

// ---------------------------------------------------------------------------
// policies

type policyStore Store

func (s *policyStore) Create(_ context.Context, policy *models.Policy) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *policy
	if record.ID == nil {
		record.ID = newID()
	}
	record.Spec = maps.Clone(record.Spec)
	record.CreatedAt = now()
	record.UpdatedAt = now()
	s.policies[*record.ID] = record
	return &record, nil
}

func (s *policyStore) Get(_ context.Context, id uuid.UUID) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.policies[id]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "policy '%s' not found", id)
	}
	return &record, nil
}

func (s *policyStore) List(ctx context.Context) ([]models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.policies), func(p models.Policy, _ int) bool {
		return projectVisible(ctx, p.Project)
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *policyStore) Update(_ context.Context, policy *models.Policy) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if policy.ID == nil {
		return nil, typederrors.NewValidationError(nil, "policy id is required for update")
	}
	current, ok := s.policies[*policy.ID]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "policy '%s' not found", *policy.ID)
	}
	record := *policy
	record.CreatedAt = current.CreatedAt
	record.UpdatedAt = now()
	s.policies[*record.ID] = record
	return &record, nil
}

func (s *policyStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return typederrors.NewNotFoundError(nil, "policy '%s' not found", id)
	}
	delete(s.policies, id)
	return nil
}

// ---------------------------------------------------------------------------
// bindings

type bindingStore Store

func (s *bindingStore) Attach(_ context.Context, binding *models.ClusterPolicy) (*models.ClusterPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bindings {
		if b.ClusterID == binding.ClusterID && b.PolicyID == binding.PolicyID {
			return nil, typederrors.NewConflictError(nil, "policy '%s' is already attached to cluster '%s'",
				binding.PolicyID, binding.ClusterID)
		}
	}
	record := *binding
	if record.ID == nil {
		record.ID = newID()
	}
	record.Data = maps.Clone(record.Data)
	record.CreatedAt = now()
	s.bindings[*record.ID] = record
	return &record, nil
}

func (s *bindingStore) Get(_ context.Context, clusterID, policyID uuid.UUID) (*models.ClusterPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bindings {
		if b.ClusterID == clusterID && b.PolicyID == policyID {
			record := b
			return &record, nil
		}
	}
	return nil, typederrors.NewNotFoundError(nil, "policy '%s' is not attached to cluster '%s'", policyID, clusterID)
}

func (s *bindingStore) ListForCluster(_ context.Context, clusterID uuid.UUID) ([]models.ClusterPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.bindings), func(b models.ClusterPolicy, _ int) bool {
		return b.ClusterID == clusterID
	})
	sort.Slice(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority > records[j].Priority
		}
		return records[i].CreatedAt.Before(*records[j].CreatedAt)
	})
	return records, nil
}

func (s *bindingStore) ListForPolicy(_ context.Context, policyID uuid.UUID) ([]models.ClusterPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.bindings), func(b models.ClusterPolicy, _ int) bool {
		return b.PolicyID == policyID
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *bindingStore) Update(_ context.Context, binding *models.ClusterPolicy) (*models.ClusterPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if binding.ID == nil {
		return nil, typederrors.NewValidationError(nil, "binding id is required for update")
	}
	current, ok := s.bindings[*binding.ID]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "binding '%s' not found", *binding.ID)
	}
	record := *binding
	record.CreatedAt = current.CreatedAt
	record.Data = maps.Clone(record.Data)
	s.bindings[*record.ID] = record
	return &record, nil
}

func (s *bindingStore) Detach(_ context.Context, clusterID, policyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.bindings {
		if b.ClusterID == clusterID && b.PolicyID == policyID {
			delete(s.bindings, id)
			return nil
		}
	}
	return typederrors.NewNotFoundError(nil, "policy '%s' is not attached to cluster '%s'", policyID, clusterID)
}

// ---------------------------------------------------------------------------
// events, receivers, credentials

type eventStore Store

func (s *eventStore) Create(_ context.Context, event *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *event
	if record.ID == nil {
		record.ID = newID()
	}
	if record.Timestamp == nil {
		record.Timestamp = now()
	}
	s.events = append(s.events, record)
	return &record, nil
}

func (s *eventStore) ListByObject(_ context.Context, objectID uuid.UUID) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Filter(s.events, func(e models.Event, _ int) bool { return e.ObjectID == objectID }), nil
}

type receiverStore Store

func (s *receiverStore) Create(_ context.Context, receiver *models.Receiver) (*models.Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *receiver
	if record.ID == nil {
		record.ID = newID()
	}
	record.Actor = maps.Clone(record.Actor)
	record.Params = maps.Clone(record.Params)
	record.Channel = maps.Clone(record.Channel)
	record.CreatedAt = now()
	s.receivers[*record.ID] = record
	return &record, nil
}

func (s *receiverStore) Get(_ context.Context, id uuid.UUID) (*models.Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.receivers[id]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "receiver '%s' not found", id)
	}
	return &record, nil
}

func (s *receiverStore) List(ctx context.Context) ([]models.Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.receivers), func(r models.Receiver, _ int) bool {
		return projectVisible(ctx, r.Project)
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *receiverStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receivers[id]; !ok {
		return typederrors.NewNotFoundError(nil, "receiver '%s' not found", id)
	}
	delete(s.receivers, id)
	return nil
}

type credentialStore Store

func (s *credentialStore) Create(_ context.Context, credential *models.Credential) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if c.User == credential.User && c.Project == credential.Project {
			return nil, typederrors.NewConflictError(nil, "credential for '%s/%s' already exists",
				credential.User, credential.Project)
		}
	}
	record := *credential
	if record.ID == nil {
		record.ID = newID()
	}
	record.Cred = maps.Clone(record.Cred)
	s.credentials[*record.ID] = record
	return &record, nil
}

func (s *credentialStore) GetByOwner(_ context.Context, user, project string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if c.User == user && c.Project == project {
			record := c
			return &record, nil
		}
	}
	return nil, typederrors.NewNotFoundError(nil, "credential for '%s/%s' not found", user, project)
}

func (s *credentialStore) Update(_ context.Context, credential *models.Credential) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if credential.ID == nil {
		return nil, typederrors.NewValidationError(nil, "credential id is required for update")
	}
	if _, ok := s.credentials[*credential.ID]; !ok {
		return nil, typederrors.NewNotFoundError(nil, "credential '%s' not found", *credential.ID)
	}
	record := *credential
	record.Cred = maps.Clone(record.Cred)
	s.credentials[*record.ID] = record
	return &record, nil
}

func (s *credentialStore) Delete(_ context.Context, user, project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.credentials {
		if c.User == user && c.Project == project {
			delete(s.credentials, id)
			return nil
		}
	}
	return typederrors.NewNotFoundError(nil, "credential for '%s/%s' not found", user, project)
}
