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
var _ database.Model = (*Policy)(nil)

// Policy represents a record in the policy table.
type Policy struct {
	ID        *uuid.UUID     `db:"id"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	Version   string         `db:"version"`
	Spec      map[string]any `db:"spec"`
	User      string         `db:"owner_user"`
	Project   string         `db:"owner_project"`
	Domain    string         `db:"owner_domain"`
	CreatedAt *time.Time     `db:"created_at"`
	UpdatedAt *time.Time     `db:"updated_at"`
}

// TableName returns the table name associated to this model
func (p Policy) TableName() string { return "policy" }

// PrimaryKey returns the primary key column associated to this model
func (p Policy) PrimaryKey() string { return "id" }
