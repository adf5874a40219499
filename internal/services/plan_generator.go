package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/llm"
	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/prompts"
	"github.com/AnshRaj112/vitalcoach-backend/internal/store"
)

// PlanGenerator produces the four role plans from one profile snapshot.
// The batch is all-or-nothing: if any role fails nothing is written.
type PlanGenerator struct {
	plans    store.PlanStore
	profiles store.ProfileStore
	gen      llm.Generator
	locks    *KeyedLocker
	weeks    int
	log      *logger.Logger
	now      func() time.Time
}

func NewPlanGenerator(plans store.PlanStore, profiles store.ProfileStore, gen llm.Generator, locks *KeyedLocker, weeks int, log *logger.Logger) *PlanGenerator {
	return &PlanGenerator{
		plans:    plans,
		profiles: profiles,
		gen:      gen,
		locks:    locks,
		weeks:    weeks,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate writes fresh originals for all four roles and clears every
// thread and ledger the user had.
func (g *PlanGenerator) Generate(ctx context.Context, userID string) ([]models.Plan, error) {
	profile, err := g.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshot := *profile
	if err := ValidateProfile(snapshot); err != nil {
		return nil, err
	}

	requests := make(map[models.Role]string, len(models.Roles))
	for _, r := range models.Roles {
		prompt, err := prompts.GenerationPrompt(r, snapshot, g.weeks)
		if err != nil {
			return nil, fmt.Errorf("render %s prompt: %w", r, err)
		}
		requests[r] = prompt
	}

	start := time.Now()
	var mu sync.Mutex
	contents := make(map[models.Role]string, len(models.Roles))

	eg, egCtx := errgroup.WithContext(ctx)
	for _, r := range models.Roles {
		role := r
		eg.Go(func() error {
			text, err := g.gen.Generate(egCtx, prompts.GenerationMessages(role, requests[role]))
			if err != nil {
				return fmt.Errorf("%s: %w", role, err)
			}
			mu.Lock()
			contents[role] = text
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.log.Warn("plan generation failed", "user_id", userID, "error", err)
		return nil, apperr.UpstreamErr("plan generation failed", err)
	}

	unlock, err := g.locks.LockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	plans, err := g.plans.ReplacePlans(ctx, userID, contents, g.now())
	if err != nil {
		return nil, err
	}
	g.log.Info("plans generated", "user_id", userID, "duration", time.Since(start).String())
	return plans, nil
}
