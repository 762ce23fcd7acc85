/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package rcontext carries the identity of the caller through every
// repository call and driver construction.  The value is immutable once
// built; components must not cache data across tenants.
package rcontext

import "context"

// RequestContext identifies the caller of an engine operation.  TrustID is
// the opaque delegated credential used when acting on the user's behalf.
type RequestContext struct {
	User    string
	Project string
	Domain  string
	Roles   []string
	AuthURL string
	TrustID string
	IsAdmin bool
}

type contextKey struct{}

// WithRequestContext returns a context carrying the given request context.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext extracts the request context.  A zero value is returned when
// none was attached (internal callers such as the scheduler).
func FromContext(ctx context.Context) RequestContext {
	if rc, ok := ctx.Value(contextKey{}).(RequestContext); ok {
		return rc
	}
	return RequestContext{}
}
