/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -source=driver.go -destination=generated/mock_driver.generated.go -package=generated

// Package driver defines the capability surface the engine uses to talk to
// the backing cloud.  The engine only ever sees these interfaces; concrete
// adapters are registered by the hosting binary.
package driver

import (
	"context"
	"time"

	"github.com/corral-cloud/corral/internal/models"
)

// Params carries the per-tenant connection parameters used to construct a
// session.  TrustID comes from the stored credential bundle; the remaining
// fields come from the request context.
type Params struct {
	AuthURL string
	User    string
	Project string
	Domain  string
	TrustID string
	Region  string
}

// Provider builds tenant-scoped sessions.  Implementations may pool or
// cache sessions per Params but must never share state across tenants.
type Provider interface {
	Session(ctx context.Context, params Params) (Session, error)
}

// Session groups the capability clients for one tenant-scoped connection.
type Session interface {
	Identity() IdentityClient
	Compute() ComputeClient
	Network() NetworkClient
	LoadBalancing() LoadBalancingClient
	Orchestration() OrchestrationClient
}

// Trust is a delegation record held by the identity service.
type Trust struct {
	ID        string
	TrustorID string
	TrusteeID string
}

// Server is the engine's view of a compute instance.
type Server struct {
	ID        string
	Name      string
	Status    string
	Addresses map[string]any
	Metadata  map[string]string
}

// ServerInterface is a port attachment on a server.
type ServerInterface struct {
	ID        string
	NetworkID string
	FixedIPs  []string
}

// Stack is the engine's view of an orchestration stack.
type Stack struct {
	ID           string
	Status       string
	StatusReason string
	Outputs      map[string]any
}

// IdentityClient covers the trust operations used for long-lived
// credential delegation.
type IdentityClient interface {
	GetUserID(ctx context.Context) (string, error)
	TrustGetByTrustor(ctx context.Context, trustorID, trusteeID string) (*Trust, error)
	TrustCreate(ctx context.Context, trustorID, trusteeID string, roles []string) (*Trust, error)
}

// ComputeClient covers the server operations the node runtime drives.
type ComputeClient interface {
	ServerCreate(ctx context.Context, attrs map[string]any) (*Server, error)
	ServerGet(ctx context.Context, serverID string) (*Server, error)
	ServerDelete(ctx context.Context, serverID string, ignoreMissing bool) error
	WaitForServerDelete(ctx context.Context, serverID string, timeout time.Duration) error
	ServerRebuild(ctx context.Context, serverID, imageID, name string, metadata map[string]string) error
	ServerInterfaceList(ctx context.Context, serverID string) ([]ServerInterface, error)
	ServerInterfaceCreate(ctx context.Context, serverID, networkID string) (*ServerInterface, error)
	ServerInterfaceDelete(ctx context.Context, serverID, interfaceID string) error
	ServerMetadataGet(ctx context.Context, serverID string) (map[string]string, error)
	ServerMetadataUpdate(ctx context.Context, serverID string, metadata map[string]string) error
	ImageFind(ctx context.Context, name string) (string, error)
	FlavorFind(ctx context.Context, name string) (string, error)
}

// NetworkClient covers the raw network-service primitives.
type NetworkClient interface {
	NetworkGet(ctx context.Context, name string) (string, error)
	SubnetGet(ctx context.Context, name string) (string, error)
	LoadBalancerCreate(ctx context.Context, attrs map[string]any) (string, error)
	LoadBalancerDelete(ctx context.Context, lbID string) error
	ListenerCreate(ctx context.Context, attrs map[string]any) (string, error)
	ListenerDelete(ctx context.Context, listenerID string) error
	PoolCreate(ctx context.Context, attrs map[string]any) (string, error)
	PoolDelete(ctx context.Context, poolID string) error
	PoolMemberCreate(ctx context.Context, poolID string, attrs map[string]any) (string, error)
	PoolMemberDelete(ctx context.Context, poolID, memberID string) error
	HealthMonitorCreate(ctx context.Context, attrs map[string]any) (string, error)
	HealthMonitorDelete(ctx context.Context, monitorID string) error
}

// LoadBalancingClient is the higher-level membership capability used by
// the load-balancer member policy.
type LoadBalancingClient interface {
	MemberAdd(ctx context.Context, node *models.Node, poolID string, port int) (string, error)
	MemberRemove(ctx context.Context, memberID string) error
}

// OrchestrationClient covers the stack operations used by stack-backed
// profiles.
type OrchestrationClient interface {
	StackCreate(ctx context.Context, attrs map[string]any) (string, error)
	StackUpdate(ctx context.Context, stackID string, attrs map[string]any) error
	StackDelete(ctx context.Context, stackID string, ignoreMissing bool) error
	StackGet(ctx context.Context, stackID string) (*Stack, error)
	WaitForStack(ctx context.Context, stackID, status string, timeout time.Duration) error
}
