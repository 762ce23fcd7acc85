/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package profile

import (
	"context"
	"time"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// TypeHeatStack identifies the orchestration-stack profile.
const TypeHeatStack = "os.heat.stack"

// Stack status values the profile waits for.
const (
	StackCreateComplete = "CREATE_COMPLETE"
	StackUpdateComplete = "UPDATE_COMPLETE"
	StackDeleteComplete = "DELETE_COMPLETE"
)

const defaultStackTimeoutMinutes = 60

// HeatStackProfile provisions nodes as orchestration stacks.
type HeatStackProfile struct {
	Base
	services Services
	owner    ownerRef

	template    map[string]any
	parameters  map[string]any
	environment map[string]any
	timeout     int
	disableRB   bool
}

// NewHeatStackProfile builds the kind from its stored record.
func NewHeatStackProfile(record *models.Profile, services Services) (Kind, error) {
	p := &HeatStackProfile{
		services: services,
		owner:    ownerRef{user: record.User, project: record.Project},
		timeout:  defaultStackTimeoutMinutes,
	}
	spec := record.Spec
	p.template, _ = spec["template"].(map[string]any)
	p.parameters, _ = spec["parameters"].(map[string]any)
	p.environment, _ = spec["environment"].(map[string]any)
	if timeout := models.InputInt(spec, "timeout"); timeout != nil {
		p.timeout = *timeout
	}
	if disable, ok := spec["disable_rollback"].(bool); ok {
		p.disableRB = disable
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *HeatStackProfile) Validate() error {
	if len(p.template) == 0 {
		return typederrors.NewValidationError(nil, "profile property 'template' is required")
	}
	if p.timeout <= 0 {
		return typederrors.NewValidationError(nil, "profile property 'timeout' must be positive")
	}
	return nil
}

func (p *HeatStackProfile) stackAttrs(node *models.Node) map[string]any {
	return map[string]any{
		"name":             "cluster-node-" + node.ID.String(),
		"template":         p.template,
		"parameters":       p.parameters,
		"environment":      p.environment,
		"timeout_mins":     p.timeout,
		"disable_rollback": p.disableRB,
	}
}

func (p *HeatStackProfile) waitBudget() time.Duration {
	return time.Duration(p.timeout) * time.Minute
}

func (p *HeatStackProfile) DoCreate(ctx context.Context, node *models.Node) (string, error) {
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return "", err
	}
	orchestration := sess.Orchestration()
	stackID, err := orchestration.StackCreate(ctx, p.stackAttrs(node))
	if err != nil {
		return "", err
	}
	if err := orchestration.WaitForStack(ctx, stackID, StackCreateComplete, p.waitBudget()); err != nil {
		return "", err
	}
	return stackID, nil
}

func (p *HeatStackProfile) DoDelete(ctx context.Context, node *models.Node) error {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return nil
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return err
	}
	orchestration := sess.Orchestration()
	if err := orchestration.StackDelete(ctx, *node.PhysicalID, true); err != nil {
		return err
	}
	return orchestration.WaitForStack(ctx, *node.PhysicalID, StackDeleteComplete, p.waitBudget())
}

func (p *HeatStackProfile) DoUpdate(ctx context.Context, node *models.Node, newProfile *models.Profile) error {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return typederrors.NewValidationError(nil, "node '%s' has no physical resource", node.ID)
	}
	template, _ := newProfile.Spec["template"].(map[string]any)
	if len(template) == 0 {
		return typederrors.NewValidationError(nil, "profile property 'template' is required")
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return err
	}
	orchestration := sess.Orchestration()
	attrs := map[string]any{
		"template":   template,
		"parameters": newProfile.Spec["parameters"],
	}
	if err := orchestration.StackUpdate(ctx, *node.PhysicalID, attrs); err != nil {
		return err
	}
	return orchestration.WaitForStack(ctx, *node.PhysicalID, StackUpdateComplete, p.waitBudget())
}

func (p *HeatStackProfile) DoGetDetails(ctx context.Context, node *models.Node) (map[string]any, error) {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return nil, typederrors.NewValidationError(nil, "node '%s' has no physical resource", node.ID)
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return nil, err
	}
	stack, err := sess.Orchestration().StackGet(ctx, *node.PhysicalID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":            stack.ID,
		"status":        stack.Status,
		"status_reason": stack.StatusReason,
		"outputs":       stack.Outputs,
	}, nil
}

func (p *HeatStackProfile) DoCheck(ctx context.Context, node *models.Node) (bool, error) {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return false, nil
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return false, err
	}
	stack, err := sess.Orchestration().StackGet(ctx, *node.PhysicalID)
	if err != nil {
		if typederrors.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return stack.Status == StackCreateComplete || stack.Status == StackUpdateComplete, nil
}
