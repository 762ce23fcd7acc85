/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"

	"github.com/corral-cloud/corral/internal/typederrors"
)

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, params Params) (Session, error)

func (f ProviderFunc) Session(ctx context.Context, params Params) (Session, error) {
	return f(ctx, params)
}

// Unconfigured returns a provider that rejects every session request.
// Deployments plug a concrete cloud adapter in its place.
func Unconfigured() Provider {
	return ProviderFunc(func(context.Context, Params) (Session, error) {
		return nil, typederrors.NewValidationError(nil, "no infrastructure driver configured")
	})
}
