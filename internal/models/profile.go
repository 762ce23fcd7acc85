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

// Interface compile enforcement
var _ database.Model = (*Profile)(nil)

// Profile represents a record in the profile table.  Spec and Context are
// immutable once stored; only name and metadata may be updated.
type Profile struct {
	ID        *uuid.UUID     `db:"id"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	Version   string         `db:"version"`
	Spec      map[string]any `db:"spec"`
	Context   map[string]any `db:"context"`
	Metadata  map[string]any `db:"metadata"`
	User      string         `db:"owner_user"`
	Project   string         `db:"owner_project"`
	Domain    string         `db:"owner_domain"`
	CreatedAt *time.Time     `db:"created_at"`
	UpdatedAt *time.Time     `db:"updated_at"`
}

// TableName returns the table name associated to this model
func (p Profile) TableName() string { return "profile" }

// PrimaryKey returns the primary key column associated to this model
func (p Profile) PrimaryKey() string { return "id" }
