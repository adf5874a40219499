package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/llm"
	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/prompts"
	"github.com/AnshRaj112/vitalcoach-backend/internal/revision"
	"github.com/AnshRaj112/vitalcoach-backend/internal/store"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type TurnRequest struct {
	UserID    string
	Role      models.Role
	Message   string
	ThreadRef string
}

type TurnResult struct {
	Response    string      `json:"response"`
	PlanUpdated bool        `json:"plan_updated"`
	Plan        models.Plan `json:"-"`
}

// Orchestrator runs chat turns. Turns on one (user, role) are applied one at
// a time in arrival order; each turn sees every earlier turn's effects.
type Orchestrator struct {
	plans      store.PlanStore
	profiles   store.ProfileStore
	gen        llm.Generator
	classifier *revision.Classifier
	locks      *KeyedLocker
	window     int
	log        *logger.Logger
	now        func() time.Time
}

func NewOrchestrator(plans store.PlanStore, profiles store.ProfileStore, gen llm.Generator, classifier *revision.Classifier, locks *KeyedLocker, window int, log *logger.Logger) *Orchestrator {
	if window <= 0 {
		window = DefaultHistoryLimit
	}
	return &Orchestrator{
		plans:      plans,
		profiles:   profiles,
		gen:        gen,
		classifier: classifier,
		locks:      locks,
		window:     window,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperr.Validationf("message cannot be empty")
	}

	unlock, err := o.locks.LockUnit(ctx, req.UserID, req.Role)
	if err != nil {
		return nil, err
	}
	defer unlock()

	plan, err := o.plans.GetPlan(ctx, req.UserID, req.Role)
	if err != nil {
		return nil, err
	}
	profile, err := o.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	history, err := o.plans.RecentTurns(ctx, req.UserID, req.Role, o.window)
	if err != nil {
		return nil, err
	}

	log := o.log.With("user_id", req.UserID, "role", req.Role, "thread_ref", req.ThreadRef)

	response, err := o.gen.Generate(ctx, prompts.ConversationMessages(req.Role, *profile, *plan, history, message))
	if err != nil {
		log.Warn("chat generation failed", "error", err)
		return nil, apperr.UpstreamErr("failed to generate response", err)
	}

	// A response identical to the original would leave the plan flagged as
	// updated with unchanged content.
	isRevision := o.classifier.Classify(message, response) && response != plan.OriginalContent

	turn := models.Turn{
		ID:         uuid.NewString(),
		HumanText:  message,
		AIText:     response,
		IsRevision: isRevision,
		ThreadRef:  req.ThreadRef,
		Timestamp:  o.now(),
	}
	var rev *models.Revision
	if isRevision {
		rev = &models.Revision{
			Content: response,
			Summary: revision.Summary(message),
			Preview: revision.Preview(response),
		}
	}

	updated, err := o.plans.AppendTurn(ctx, req.UserID, req.Role, turn, rev)
	if err != nil {
		return nil, err
	}
	if isRevision {
		log.Info("plan revised", "version", updated.Version)
	}
	return &TurnResult{Response: response, PlanUpdated: isRevision, Plan: *updated}, nil
}

// ChatHistory returns the newest turns in their original order. The limit
// defaults to 20 and is capped at 100. A role without a plan is NotFound.
func (o *Orchestrator) ChatHistory(ctx context.Context, userID string, role models.Role, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if _, err := o.plans.GetPlan(ctx, userID, role); err != nil {
		return nil, err
	}
	turns, err := o.plans.RecentTurns(ctx, userID, role, limit)
	if err != nil {
		return nil, err
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	return turns, nil
}

// ClearChat drops the thread only; plan and ledger are kept.
func (o *Orchestrator) ClearChat(ctx context.Context, userID string, role models.Role) error {
	unlock, err := o.locks.LockUnit(ctx, userID, role)
	if err != nil {
		return err
	}
	defer unlock()
	return o.plans.ClearThread(ctx, userID, role)
}

func (o *Orchestrator) SessionStats(ctx context.Context, userID string, role models.Role) (models.ThreadStats, error) {
	if _, err := o.plans.GetPlan(ctx, userID, role); err != nil {
		return models.ThreadStats{}, err
	}
	return o.plans.ThreadStats(ctx, userID, role)
}
