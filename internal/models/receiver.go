/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/database"
)

// ReceiverTypeWebhook is the only receiver flavor currently supported.
const ReceiverTypeWebhook = "webhook"

// Interface compile enforcement
var _ database.Model = (*Receiver)(nil)

// Receiver is an external trigger bound to a named cluster action.  Actor
// carries the pre-bound credential (trust id) used when the trigger fires.
type Receiver struct {
	ID        *uuid.UUID     `db:"id"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	ClusterID uuid.UUID      `db:"cluster_id"`
	Action    string         `db:"action"`
	Actor     map[string]any `db:"actor"`
	Params    map[string]any `db:"params"`
	Channel   map[string]any `db:"channel"`
	User      string         `db:"owner_user"`
	Project   string         `db:"owner_project"`
	Domain    string         `db:"owner_domain"`
	CreatedAt *time.Time     `db:"created_at"`
}

// TableName returns the table name associated to this model
func (r Receiver) TableName() string { return "receiver" }

// PrimaryKey returns the primary key column associated to this model
func (r Receiver) PrimaryKey() string { return "id" }

// Interface compile enforcement
var _ database.Model = (*Credential)(nil)

// Credential is the opaque per-(user, project) bundle.  The engine reads
// only the trust id out of Cred when constructing driver parameter sets.
type Credential struct {
	ID      *uuid.UUID     `db:"id"`
	User    string         `db:"owner_user"`
	Project string         `db:"owner_project"`
	Cred    map[string]any `db:"cred"`
}

// TableName returns the table name associated to this model
func (c Credential) TableName() string { return "credential" }

// PrimaryKey returns the primary key column associated to this model
func (c Credential) PrimaryKey() string { return "id" }

// TrustID extracts the delegated trust id from the bundle, or "" when absent.
func (c Credential) TrustID() string {
	if t, ok := c.Cred["trust_id"].(string); ok {
		return t
	}
	return ""
}
