package services

import (
	"context"

	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/store"
)

type ResetResult struct {
	Reset   bool            `json:"reset"`
	Message string          `json:"message"`
	Plan    models.PlanView `json:"plan"`
}

// ResetController restores a plan to its original content. Reset on a plan
// that was never revised is a no-op, not an error.
type ResetController struct {
	plans store.PlanStore
	locks *KeyedLocker
	log   *logger.Logger
}

func NewResetController(plans store.PlanStore, locks *KeyedLocker, log *logger.Logger) *ResetController {
	return &ResetController{plans: plans, locks: locks, log: log}
}

func (c *ResetController) Reset(ctx context.Context, userID string, role models.Role) (*ResetResult, error) {
	unlock, err := c.locks.LockUnit(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reset, err := c.plans.ResetPlan(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	plan, err := c.plans.GetPlan(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	if !reset {
		c.log.Debug("reset skipped, plan already original", "user_id", userID, "role", role)
		return &ResetResult{Message: "Plan is already in its original state, nothing to reset", Plan: plan.View()}, nil
	}
	c.log.Info("plan reset to original", "user_id", userID, "role", role)
	return &ResetResult{Reset: true, Message: "Plan reset to original, chat history and update history cleared", Plan: plan.View()}, nil
}
