package services

import (
	"context"

	"github.com/AnshRaj112/vitalcoach-backend/internal/llm"
	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/revision"
	"github.com/AnshRaj112/vitalcoach-backend/internal/store"
)

// CoachConfig carries the tunables of the coaching core.
type CoachConfig struct {
	ThreadWindow      int
	PlanDurationWeeks int
	RevisionPolicy    revision.Policy
}

// Coach is the boundary the transports talk to. All components share one
// KeyedLocker so generation, turns, clear and reset on one (user, role)
// never interleave.
type Coach struct {
	plans        store.PlanStore
	profiles     *ProfileService
	generator    *PlanGenerator
	orchestrator *Orchestrator
	resetter     *ResetController
	events       PlanNotifier
}

func NewCoach(plans store.PlanStore, profiles store.ProfileStore, gen llm.Generator, cfg CoachConfig, log *logger.Logger) *Coach {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.PlanDurationWeeks <= 0 {
		cfg.PlanDurationWeeks = 4
	}
	locks := NewKeyedLocker()
	classifier := revision.NewClassifier(cfg.RevisionPolicy)
	return &Coach{
		plans:        plans,
		profiles:     NewProfileService(profiles, log.With("component", "profiles")),
		generator:    NewPlanGenerator(plans, profiles, gen, locks, cfg.PlanDurationWeeks, log.With("component", "generator")),
		orchestrator: NewOrchestrator(plans, profiles, gen, classifier, locks, cfg.ThreadWindow, log.With("component", "orchestrator")),
		resetter:     NewResetController(plans, locks, log.With("component", "reset")),
	}
}

// SetNotifier makes the Coach announce plan changes (revision, reset,
// regeneration) to n.
func (c *Coach) SetNotifier(n PlanNotifier) {
	c.events = n
}

func (c *Coach) notify(ctx context.Context, event PlanEvent) {
	if c.events != nil {
		c.events.Publish(context.WithoutCancel(ctx), event)
	}
}

func (c *Coach) SubmitProfile(ctx context.Context, userID string, p models.Profile) (*models.Profile, error) {
	return c.profiles.Submit(ctx, userID, p)
}

func (c *Coach) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	return c.profiles.Get(ctx, userID)
}

func (c *Coach) GeneratePlans(ctx context.Context, userID string) ([]models.PlanView, error) {
	plans, err := c.generator.Generate(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.notify(ctx, PlanEvent{UserID: userID, Reason: PlansGenerated, Version: 1})
	return views(plans), nil
}

func (c *Coach) CurrentPlans(ctx context.Context, userID string) ([]models.PlanView, error) {
	plans, err := c.plans.ListPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	return views(plans), nil
}

func (c *Coach) Plan(ctx context.Context, userID string, role models.Role) (*models.PlanView, error) {
	p, err := c.plans.GetPlan(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	v := p.View()
	return &v, nil
}

func (c *Coach) Chat(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	res, err := c.orchestrator.HandleTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.PlanUpdated {
		c.notify(ctx, PlanEvent{UserID: req.UserID, Role: req.Role, Reason: PlanRevised, Version: res.Plan.Version})
	}
	return res, nil
}

func (c *Coach) ChatHistory(ctx context.Context, userID string, role models.Role, limit int) ([]models.Turn, error) {
	return c.orchestrator.ChatHistory(ctx, userID, role, limit)
}

func (c *Coach) ClearChat(ctx context.Context, userID string, role models.Role) error {
	return c.orchestrator.ClearChat(ctx, userID, role)
}

func (c *Coach) SessionStats(ctx context.Context, userID string, role models.Role) (models.ThreadStats, error) {
	return c.orchestrator.SessionStats(ctx, userID, role)
}

// UpdateHistory lists accepted revisions newest first.
func (c *Coach) UpdateHistory(ctx context.Context, userID string, role models.Role) ([]models.LedgerEntry, error) {
	if _, err := c.plans.GetPlan(ctx, userID, role); err != nil {
		return nil, err
	}
	entries, err := c.plans.Ledger(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return entries, nil
}

func (c *Coach) ResetToOriginal(ctx context.Context, userID string, role models.Role) (*ResetResult, error) {
	res, err := c.resetter.Reset(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if res.Reset {
		c.notify(ctx, PlanEvent{UserID: userID, Role: role, Reason: PlanReset, Version: res.Plan.Version})
	}
	return res, nil
}

func views(plans []models.Plan) []models.PlanView {
	out := make([]models.PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.View())
	}
	return out
}
