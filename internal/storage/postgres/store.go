/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package postgres implements the storage interfaces on top of a pgx
// connection pool, building SQL through bob's psql dialect.
package postgres

import (
	"github.com/corral-cloud/corral/internal/database"
	"github.com/corral-cloud/corral/internal/storage"
)

// Store is the postgres-backed implementation of storage.Store.  The
// Queryable indirection lets tests substitute a pgxmock pool.
type Store struct {
	db database.Queryable

	clusters    *ClusterRepository
	nodes       *NodeRepository
	profiles    *ProfileRepository
	policies    *PolicyRepository
	bindings    *BindingRepository
	actions     *ActionRepository
	locks       *LockRepository
	events      *EventRepository
	receivers   *ReceiverRepository
	credentials *CredentialRepository
}

// Interface compile enforcement
var _ storage.Store = (*Store)(nil)

// NewStore builds a Store around the given database handle.
func NewStore(db database.Queryable) *Store {
	return &Store{
		db:          db,
		clusters:    &ClusterRepository{Db: db},
		nodes:       &NodeRepository{Db: db},
		profiles:    &ProfileRepository{Db: db},
		policies:    &PolicyRepository{Db: db},
		bindings:    &BindingRepository{Db: db},
		actions:     &ActionRepository{Db: db},
		locks:       &LockRepository{Db: db},
		events:      &EventRepository{Db: db},
		receivers:   &ReceiverRepository{Db: db},
		credentials: &CredentialRepository{Db: db},
	}
}

func (s *Store) Clusters() storage.ClusterStore         { return s.clusters }
func (s *Store) Nodes() storage.NodeStore               { return s.nodes }
func (s *Store) Profiles() storage.ProfileStore         { return s.profiles }
func (s *Store) Policies() storage.PolicyStore          { return s.policies }
func (s *Store) Bindings() storage.BindingStore         { return s.bindings }
func (s *Store) Actions() storage.ActionStore           { return s.actions }
func (s *Store) Locks() storage.LockStore               { return s.locks }
func (s *Store) Events() storage.EventStore             { return s.events }
func (s *Store) Receivers() storage.ReceiverStore       { return s.receivers }
func (s *Store) Credentials() storage.CredentialStore   { return s.credentials }
