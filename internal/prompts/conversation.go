package prompts

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

const conversationRules = `RESPONSE GUIDELINES:
- Keep casual answers under 300 words.
- Build on the conversation so far and the user's stated preferences.
- When the user asks for a change to the plan, reply with the COMPLETE updated plan,
  introduced with the words "Here's the updated plan", not just the modified parts.
- Never invent medical diagnoses; suggest a professional when something sounds serious.`

// ConversationMessages builds the context for one chat turn: the profile
// snapshot, then the plan's current content, then the recent thread in its
// original order, then the new message.
func ConversationMessages(role models.Role, profile models.Profile, plan models.Plan, history []models.Turn, message string) []*schema.Message {
	msgs := make([]*schema.Message, 0, 2+2*len(history))
	msgs = append(msgs, schema.SystemMessage(systemPrompt(role, profile, plan)))
	for _, t := range history {
		msgs = append(msgs, schema.UserMessage(t.HumanText), schema.AssistantMessage(t.AIText, nil))
	}
	msgs = append(msgs, schema.UserMessage(message))
	return msgs
}

// GenerationMessages wraps a rendered generation prompt.
func GenerationMessages(role models.Role, prompt string) []*schema.Message {
	p := PersonaFor(role)
	return []*schema.Message{
		schema.SystemMessage(fmt.Sprintf("You are a %s. Personality: %s. Response style: %s.", p.Title, p.Personality, p.ResponseStyle)),
		schema.UserMessage(prompt),
	}
}

func systemPrompt(role models.Role, profile models.Profile, plan models.Plan) string {
	p := PersonaFor(role)
	var b strings.Builder

	fmt.Fprintf(&b, "You are a %s.\n", p.Title)
	fmt.Fprintf(&b, "- Personality: %s\n- Expertise: %s\n- Response style: %s\n\n", p.Personality, p.Expertise, p.ResponseStyle)

	b.WriteString("USER PROFILE:\n")
	b.WriteString(ProfileSummary(profile))
	b.WriteString("\n\n")

	status := "ORIGINAL"
	if plan.IsUpdated {
		status = "UPDATED"
	}
	fmt.Fprintf(&b, "CURRENT %s PLAN (version %d):\n%s\n", status, plan.Version, plan.CurrentContent)
	if plan.ModificationSummary != "" {
		fmt.Fprintf(&b, "Last change: %s\n", plan.ModificationSummary)
	}
	b.WriteString("\n")
	b.WriteString(conversationRules)
	return b.String()
}

// ProfileSummary renders the profile as compact labelled lines.
func ProfileSummary(p models.Profile) string {
	lines := []string{
		fmt.Sprintf("Name: %s | Age: %d | BMI: %s", orDefault(p.Name, "User"), p.Age, formatNumber(p.BMI)),
		fmt.Sprintf("Height: %s cm | Weight: %s kg", formatNumber(p.HeightCM), formatNumber(p.WeightKG)),
		"Goals: " + goalsText(p.Goals),
		fmt.Sprintf("Fitness: %s level, %d days/week, %d min sessions, equipment: %s",
			orDefault(p.Fitness.Level, "beginner"),
			intOrDefault(p.Fitness.DaysPerWeek, defaultWorkoutDays),
			intOrDefault(p.Fitness.SessionMinutes, defaultSessionMinutes),
			listOrDefault(p.Fitness.Equipment, "none")),
		"Injuries/conditions: " + orDefault(joinNonEmpty(p.Fitness.Injuries, p.Health.PreviousInjuries, p.Health.ChronicConditions), "none"),
		fmt.Sprintf("Nutrition: %s diet, allergies: %s, %d meals/day",
			orDefault(p.Nutrition.DietType, "balanced"),
			listOrDefault(p.Nutrition.Allergies, "none"),
			intOrDefault(p.Nutrition.MealsPerDay, defaultMealsPerDay)),
		fmt.Sprintf("Lifestyle: sleep %s, stress %s, habits: %s",
			sleepText(p.Lifestyle.SleepHours),
			models.StressDescription(p.Lifestyle.StressLevel),
			habitsText(p.Lifestyle)),
	}
	return strings.Join(lines, "\n")
}
