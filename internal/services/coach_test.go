package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/revision"
	"github.com/AnshRaj112/vitalcoach-backend/internal/store"
)

// fakeGenerator answers with reply(messages) and records every call.
type fakeGenerator struct {
	mu    sync.Mutex
	calls [][]*schema.Message
	reply func(msgs []*schema.Message) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, msgs []*schema.Message) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, msgs)
	f.mu.Unlock()
	return f.reply(msgs)
}

func (f *fakeGenerator) lastCall() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func lastUserText(msgs []*schema.Message) string {
	return msgs[len(msgs)-1].Content
}

// planReply writes a role-tagged original plan for generation prompts (no
// profile block in the system message) and echoes chat messages otherwise.
func planReply(msgs []*schema.Message) (string, error) {
	if !strings.Contains(msgs[0].Content, "USER PROFILE") {
		for _, r := range models.Roles {
			if strings.Contains(msgs[0].Content, personaTitle(r)) {
				return "original " + string(r) + " plan", nil
			}
		}
	}
	return "You said: " + lastUserText(msgs), nil
}

func personaTitle(r models.Role) string {
	switch r {
	case models.RoleSummary:
		return "Health Data Analyst"
	case models.RoleFitness:
		return "Personal Trainer"
	case models.RoleNutrition:
		return "Nutritionist"
	}
	return "Wellness Coach"
}

var cardioPlan = "Here's the updated plan with more cardio. " + strings.Repeat("Day: 30 minutes of running intervals. ", 20)

func validProfile() models.Profile {
	return models.Profile{
		Name:      "Sara",
		Age:       31,
		HeightCM:  170,
		WeightKG:  68,
		Goals:     models.Goals{Primary: "lose fat"},
		Fitness:   models.FitnessProfile{Level: "beginner"},
		Nutrition: models.NutritionProfile{DietType: "vegetarian"},
		Lifestyle: models.LifestyleProfile{SleepHours: 7},
	}
}

type harness struct {
	coach *Coach
	plans *store.MemoryStore
	gen   *fakeGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := store.NewMemoryStore()
	gen := &fakeGenerator{reply: planReply}
	c := NewCoach(mem, mem, gen, CoachConfig{ThreadWindow: 20, RevisionPolicy: revision.DefaultPolicy()}, nil)
	return &harness{coach: c, plans: mem, gen: gen}
}

func (h *harness) generate(t *testing.T, userID string) []models.PlanView {
	t.Helper()
	ctx := context.Background()
	_, err := h.coach.SubmitProfile(ctx, userID, validProfile())
	require.NoError(t, err)
	views, err := h.coach.GeneratePlans(ctx, userID)
	require.NoError(t, err)
	return views
}

func TestGeneratePlansAllOriginal(t *testing.T) {
	h := newHarness(t)
	views := h.generate(t, "u1")

	require.Len(t, views, 4)
	for i, v := range views {
		assert.Equal(t, models.Roles[i], v.Role)
		assert.False(t, v.IsUpdated)
		assert.Empty(t, v.Modifications)
		assert.Equal(t, 1, v.Version)
		assert.Equal(t, "original "+string(v.Role)+" plan", v.Content)
	}
	for _, r := range models.Roles {
		p, err := h.plans.GetPlan(context.Background(), "u1", r)
		require.NoError(t, err)
		assert.Equal(t, p.OriginalContent, p.CurrentContent)
	}
}

func TestGeneratePlansAllOrNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.coach.SubmitProfile(ctx, "u1", validProfile())
	require.NoError(t, err)

	h.gen.reply = func(msgs []*schema.Message) (string, error) {
		if strings.Contains(msgs[0].Content, "Nutritionist") {
			return "", errors.New("model overloaded")
		}
		return planReply(msgs)
	}

	_, err = h.coach.GeneratePlans(ctx, "u1")
	assert.True(t, apperr.IsUpstream(err))

	plans, err := h.coach.CurrentPlans(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, plans, "no partial plan set may be stored")
}

func TestGeneratePlansRequiresValidProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.coach.GeneratePlans(ctx, "nobody")
	assert.True(t, apperr.IsNotFound(err))

	bad := validProfile()
	bad.UserID = "u1"
	bad.Age = 5
	require.NoError(t, h.plans.SaveProfile(ctx, bad))
	_, err = h.coach.GeneratePlans(ctx, "u1")
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, 0, h.gen.callCount())
}

func TestSubmitProfileComputesBMI(t *testing.T) {
	h := newHarness(t)
	p, err := h.coach.SubmitProfile(context.Background(), "u1", validProfile())
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.InDelta(t, 23.5, p.BMI, 0.001)
	assert.False(t, p.UpdatedAt.IsZero())

	bad := validProfile()
	bad.Fitness.Level = "elite"
	_, err = h.coach.SubmitProfile(context.Background(), "u1", bad)
	require.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "Fitness.Level must be one of")
}

func TestChatScenarioReviseResetAndContinue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	h.gen.reply = func(msgs []*schema.Message) (string, error) { return cardioPlan, nil }
	res, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "change my workout to more cardio", ThreadRef: "s-1"})
	require.NoError(t, err)
	assert.True(t, res.PlanUpdated)
	assert.Equal(t, cardioPlan, res.Response)

	fitness, err := h.coach.Plan(ctx, "u1", models.RoleFitness)
	require.NoError(t, err)
	assert.True(t, fitness.IsUpdated)
	assert.Equal(t, cardioPlan, fitness.Content)
	assert.Equal(t, "User requested: change my workout to more cardio", fitness.Modifications)
	assert.Equal(t, 2, fitness.Version)

	ledger, err := h.coach.UpdateHistory(ctx, "u1", models.RoleFitness)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, 2, ledger[0].Version)

	turns, err := h.coach.ChatHistory(ctx, "u1", models.RoleFitness, 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.True(t, turns[0].IsRevision)
	assert.Equal(t, "s-1", turns[0].ThreadRef)

	for _, r := range []models.Role{models.RoleSummary, models.RoleNutrition, models.RoleWellness} {
		v, err := h.coach.Plan(ctx, "u1", r)
		require.NoError(t, err)
		assert.False(t, v.IsUpdated, r)
		other, _ := h.coach.ChatHistory(ctx, "u1", r, 0)
		assert.Empty(t, other, r)
	}

	reset, err := h.coach.ResetToOriginal(ctx, "u1", models.RoleFitness)
	require.NoError(t, err)
	assert.True(t, reset.Reset)
	assert.Equal(t, "original fitness plan", reset.Plan.Content)
	assert.False(t, reset.Plan.IsUpdated)
	assert.Equal(t, 1, reset.Plan.Version)

	turns, _ = h.coach.ChatHistory(ctx, "u1", models.RoleFitness, 0)
	assert.Empty(t, turns)
	ledger, _ = h.coach.UpdateHistory(ctx, "u1", models.RoleFitness)
	assert.Empty(t, ledger)

	h.gen.reply = planReply
	res, err = h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "how many sets?"})
	require.NoError(t, err)
	assert.False(t, res.PlanUpdated)
	sys := h.gen.lastCall()[0].Content
	assert.Contains(t, sys, "CURRENT ORIGINAL PLAN (version 1):\noriginal fitness plan")
	assert.Len(t, h.gen.lastCall(), 2, "clean thread: system prompt and new message only")
}

func TestChatTurnOrderingReplaysEarlierTurns(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleNutrition, Message: "T1 question"})
	require.NoError(t, err)
	_, err = h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleNutrition, Message: "T2 question"})
	require.NoError(t, err)

	msgs := h.gen.lastCall()
	require.Len(t, msgs, 4)
	assert.Equal(t, "T1 question", msgs[1].Content)
	assert.Equal(t, "You said: T1 question", msgs[2].Content)
	assert.Equal(t, "T2 question", msgs[3].Content)

	turns, err := h.coach.ChatHistory(ctx, "u1", models.RoleNutrition, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "T1 question", turns[0].HumanText)
	assert.Equal(t, "T2 question", turns[1].HumanText)
}

func TestChatContextUsesCurrentContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	h.gen.reply = func([]*schema.Message) (string, error) { return cardioPlan, nil }
	_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "change it to cardio"})
	require.NoError(t, err)

	h.gen.reply = planReply
	_, err = h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "thanks"})
	require.NoError(t, err)

	sys := h.gen.lastCall()[0].Content
	assert.Contains(t, sys, "CURRENT UPDATED PLAN (version 2)")
	assert.Contains(t, sys, "30 minutes of running intervals")
	assert.NotContains(t, sys, "original fitness plan")
}

func TestChatErrorsLeaveStateUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "hi"})
	assert.True(t, apperr.IsNotFound(err), "no plan yet")

	h.generate(t, "u1")

	_, err = h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "   "})
	assert.True(t, apperr.IsValidation(err))

	h.gen.reply = func([]*schema.Message) (string, error) { return "", errors.New("timeout") }
	_, err = h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "change to cardio"})
	assert.True(t, apperr.IsUpstream(err))

	turns, _ := h.coach.ChatHistory(ctx, "u1", models.RoleFitness, 0)
	assert.Empty(t, turns)
	p, _ := h.coach.Plan(ctx, "u1", models.RoleFitness)
	assert.False(t, p.IsUpdated)
}

func TestChatNonRevisionKeepsPlan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	h.gen.reply = func([]*schema.Message) (string, error) { return cardioPlan, nil }
	res, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "what's my BMI?"})
	require.NoError(t, err)
	assert.False(t, res.PlanUpdated)

	p, _ := h.coach.Plan(ctx, "u1", models.RoleFitness)
	assert.False(t, p.IsUpdated)
	stats, err := h.coach.SessionStats(ctx, "u1", models.RoleFitness)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTurns)
	assert.Equal(t, 0, stats.RevisionCount)
}

func TestResetIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	h.gen.reply = func([]*schema.Message) (string, error) { return cardioPlan, nil }
	_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "change to cardio"})
	require.NoError(t, err)

	first, err := h.coach.ResetToOriginal(ctx, "u1", models.RoleFitness)
	require.NoError(t, err)
	second, err := h.coach.ResetToOriginal(ctx, "u1", models.RoleFitness)
	require.NoError(t, err)

	assert.True(t, first.Reset)
	assert.False(t, second.Reset)
	assert.Contains(t, second.Message, "nothing to reset")
	assert.Equal(t, first.Plan.Content, second.Plan.Content)
	assert.Equal(t, first.Plan.Version, second.Plan.Version)
}

func TestResetClearsExactlyOneRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	h.gen.reply = func([]*schema.Message) (string, error) { return cardioPlan, nil }
	for _, r := range []models.Role{models.RoleFitness, models.RoleNutrition} {
		_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: r, Message: "change this plan"})
		require.NoError(t, err)
	}

	_, err := h.coach.ResetToOriginal(ctx, "u1", models.RoleFitness)
	require.NoError(t, err)

	n, err := h.coach.Plan(ctx, "u1", models.RoleNutrition)
	require.NoError(t, err)
	assert.True(t, n.IsUpdated)
	assert.Equal(t, cardioPlan, n.Content)
	turns, _ := h.coach.ChatHistory(ctx, "u1", models.RoleNutrition, 0)
	assert.Len(t, turns, 1)
	ledger, _ := h.coach.UpdateHistory(ctx, "u1", models.RoleNutrition)
	assert.Len(t, ledger, 1)
}

func TestClearChatKeepsPlanAndLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	h.gen.reply = func([]*schema.Message) (string, error) { return cardioPlan, nil }
	_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleWellness, Message: "update my routine"})
	require.NoError(t, err)

	require.NoError(t, h.coach.ClearChat(ctx, "u1", models.RoleWellness))

	turns, _ := h.coach.ChatHistory(ctx, "u1", models.RoleWellness, 0)
	assert.Empty(t, turns)
	p, _ := h.coach.Plan(ctx, "u1", models.RoleWellness)
	assert.True(t, p.IsUpdated)
	ledger, _ := h.coach.UpdateHistory(ctx, "u1", models.RoleWellness)
	assert.Len(t, ledger, 1)
}

func TestConcurrentTurnsAreSerialized(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleSummary, Message: "question"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	turns, err := h.coach.ChatHistory(ctx, "u1", models.RoleSummary, 50)
	require.NoError(t, err)
	assert.Len(t, turns, n)

	// The k-th call saw exactly the k-1 turns before it.
	seen := map[int]bool{}
	for _, call := range h.gen.calls[4:] {
		seen[(len(call)-2)/2] = true
	}
	for k := 0; k < n; k++ {
		assert.True(t, seen[k], "a turn must have seen %d earlier turns", k)
	}
}

func TestChatHistoryLimits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")
	for i := 0; i < 25; i++ {
		_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleSummary, Message: "q"})
		require.NoError(t, err)
	}

	turns, err := h.coach.ChatHistory(ctx, "u1", models.RoleSummary, 0)
	require.NoError(t, err)
	assert.Len(t, turns, DefaultHistoryLimit)

	turns, err = h.coach.ChatHistory(ctx, "u1", models.RoleSummary, 1000)
	require.NoError(t, err)
	assert.Len(t, turns, 25)
}

func TestRegenerationClearsThreads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	h.gen.reply = func([]*schema.Message) (string, error) { return cardioPlan, nil }
	_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "change to cardio"})
	require.NoError(t, err)

	h.gen.reply = planReply
	views, err := h.coach.GeneratePlans(ctx, "u1")
	require.NoError(t, err)
	for _, v := range views {
		assert.False(t, v.IsUpdated)
	}
	turns, _ := h.coach.ChatHistory(ctx, "u1", models.RoleFitness, 0)
	assert.Empty(t, turns)
	ledger, _ := h.coach.UpdateHistory(ctx, "u1", models.RoleFitness)
	assert.Empty(t, ledger)
}

func TestReadsRequireAPlan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reads := map[string]func() error{
		"chat history": func() error {
			_, err := h.coach.ChatHistory(ctx, "u1", models.RoleFitness, 0)
			return err
		},
		"session stats": func() error {
			_, err := h.coach.SessionStats(ctx, "u1", models.RoleFitness)
			return err
		},
		"update history": func() error {
			_, err := h.coach.UpdateHistory(ctx, "u1", models.RoleFitness)
			return err
		},
	}

	for name, read := range reads {
		assert.True(t, apperr.IsNotFound(read()), name)
	}
	h.generate(t, "u1")
	for name, read := range reads {
		assert.NoError(t, read(), name)
	}
}

// blockingReply parks chat turns until release is closed.
func blockingReply(started chan<- struct{}, release <-chan struct{}) func([]*schema.Message) (string, error) {
	return func(msgs []*schema.Message) (string, error) {
		started <- struct{}{}
		<-release
		return "You said: " + lastUserText(msgs), nil
	}
}

func TestClearAndResetQueueBehindRunningTurn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.generate(t, "u1")

	started, release := make(chan struct{}, 1), make(chan struct{})
	h.gen.reply = blockingReply(started, release)

	turnDone := make(chan error, 1)
	go func() {
		_, err := h.coach.Chat(ctx, TurnRequest{UserID: "u1", Role: models.RoleFitness, Message: "hello"})
		turnDone <- err
	}()
	<-started

	// A caller that cannot wait gets a retryable conflict.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err := h.coach.ResetToOriginal(short, "u1", models.RoleFitness)
	assert.True(t, apperr.IsConflict(err))

	clearDone := make(chan error, 1)
	go func() { clearDone <- h.coach.ClearChat(ctx, "u1", models.RoleFitness) }()

	select {
	case <-clearDone:
		t.Fatal("clear ran while the turn held the plan")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-turnDone)
	require.NoError(t, <-clearDone)

	turns, err := h.coach.ChatHistory(ctx, "u1", models.RoleFitness, 0)
	require.NoError(t, err)
	assert.Empty(t, turns, "clear applied after the turn committed")
}
