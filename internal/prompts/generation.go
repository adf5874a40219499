package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

const (
	defaultWorkoutDays    = 3
	defaultSessionMinutes = 30
	defaultCalories       = 2000
	defaultMealsPerDay    = 3
)

const summaryTemplate = `As a {{.Persona}}, write a health summary for {{.Name}}.

Client Profile:
- Age: {{.Age}} | Height: {{.Height}} cm | Weight: {{.Weight}} kg | BMI: {{.BMI}}
- Goals: {{.Goals}}
- Fitness Level: {{.FitnessLevel}} | Activity: {{.Activity}}
- Health Notes: {{.HealthNotes}}
- Sleep: {{.Sleep}} | Stress: {{.Stress}}

Required Output:
1. Key health metrics and what they indicate
2. Risk factors worth watching
3. Top three priorities for the next {{.Weeks}} weeks
4. How the fitness, nutrition and wellness plans fit together
5. Milestones to track progress
`

const fitnessTemplate = `As a {{.Persona}}, create a personalized {{.Weeks}}-week workout plan for {{.Name}}.

Client Profile:
- Goals: {{.Goals}}
- Fitness Level: {{.FitnessLevel}}
- Available Equipment: {{.Equipment}}
- Workout Frequency: {{.WorkoutDays}} days/week
- Session Duration: {{.SessionMinutes}} minutes
- Restrictions: {{.Restrictions}}

Required Output:
1. Warm-up routine (5-10 minutes)
2. Main exercises (include sets/reps/rest periods)
3. Cool-down stretches
4. Progression plan for {{.Weeks}} weeks
5. Safety modifications for {{.Restrictions}}
`

const nutritionTemplate = `As a {{.Persona}}, create a {{.Weeks}}-week meal plan for {{.Name}}.

Client Profile:
- Goals: {{.Goals}}
- Dietary Preferences: {{.Diet}}
- Allergies: {{.Allergies}}
- Restrictions: {{.FoodRestrictions}}
- Meals Per Day: {{.MealsPerDay}}
- Daily Caloric Target: {{.Calories}}
- Lifestyle: {{.Activity}}

Required Output:
1. Daily meal breakdown (breakfast, lunch, dinner, snacks)
2. Macronutrient distribution
3. Weekly grocery list
4. Meal prep tips
5. Hydration guidelines
`

const wellnessTemplate = `As a {{.Persona}}, provide wellness recommendations for {{.Name}}.

Client Profile:
- Goals: {{.Goals}}
- Sleep: {{.Sleep}} ({{.SleepQuality}})
- Stress Level: {{.Stress}}
- Habits: {{.Habits}}
- Lifestyle: {{.Activity}}

Required Output:
1. Sleep improvement strategies
2. Stress management techniques
3. Habit optimization suggestions
4. Daily routine recommendations
5. Preventative health measures
`

var generationTemplates = map[models.Role]*template.Template{
	models.RoleSummary:   template.Must(template.New("summary").Parse(summaryTemplate)),
	models.RoleFitness:   template.Must(template.New("fitness").Parse(fitnessTemplate)),
	models.RoleNutrition: template.Must(template.New("nutrition").Parse(nutritionTemplate)),
	models.RoleWellness:  template.Must(template.New("wellness").Parse(wellnessTemplate)),
}

type generationData struct {
	Persona          string
	Name             string
	Weeks            int
	Age              int
	Height           string
	Weight           string
	BMI              string
	Goals            string
	FitnessLevel     string
	Activity         string
	Equipment        string
	WorkoutDays      int
	SessionMinutes   int
	Restrictions     string
	HealthNotes      string
	Diet             string
	Allergies        string
	FoodRestrictions string
	MealsPerDay      int
	Calories         int
	Sleep            string
	SleepQuality     string
	Stress           string
	Habits           string
}

// GenerationPrompt renders the initial-plan prompt for one role.
func GenerationPrompt(role models.Role, p models.Profile, weeks int) (string, error) {
	tmpl, ok := generationTemplates[role]
	if !ok {
		return "", fmt.Errorf("no generation template for role %q", role)
	}
	if weeks <= 0 {
		weeks = 4
	}

	data := generationData{
		Persona:          strings.ToLower(PersonaFor(role).Title),
		Name:             orDefault(p.Name, "Client"),
		Weeks:            weeks,
		Age:              p.Age,
		Height:           formatNumber(p.HeightCM),
		Weight:           formatNumber(p.WeightKG),
		BMI:              formatNumber(p.BMI),
		Goals:            goalsText(p.Goals),
		FitnessLevel:     orDefault(p.Fitness.Level, "beginner"),
		Activity:         orDefault(p.Fitness.ActivityLevel, "moderately active"),
		Equipment:        listOrDefault(p.Fitness.Equipment, "none"),
		WorkoutDays:      intOrDefault(p.Fitness.DaysPerWeek, defaultWorkoutDays),
		SessionMinutes:   intOrDefault(p.Fitness.SessionMinutes, defaultSessionMinutes),
		Restrictions:     orDefault(joinNonEmpty(p.Fitness.Injuries, p.Health.PreviousInjuries), "none"),
		HealthNotes:      orDefault(joinNonEmpty(p.Health.ChronicConditions, p.Health.Medications), "none reported"),
		Diet:             orDefault(p.Nutrition.DietType, "balanced"),
		Allergies:        listOrDefault(p.Nutrition.Allergies, "none"),
		FoodRestrictions: orDefault(p.Nutrition.Restrictions, "none"),
		MealsPerDay:      intOrDefault(p.Nutrition.MealsPerDay, defaultMealsPerDay),
		Calories:         intOrDefault(p.Nutrition.CaloricTarget, defaultCalories),
		Sleep:            sleepText(p.Lifestyle.SleepHours),
		SleepQuality:     orDefault(p.Lifestyle.SleepQuality, "not reported"),
		Stress:           models.StressDescription(p.Lifestyle.StressLevel),
		Habits:           habitsText(p.Lifestyle),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", role, err)
	}
	return buf.String(), nil
}

func goalsText(g models.Goals) string {
	return orDefault(joinNonEmpty(g.Primary, g.Specific), "general wellness")
}

func sleepText(hours float64) string {
	if hours <= 0 {
		return "7 hours"
	}
	return formatNumber(hours) + " hours"
}

func habitsText(l models.LifestyleProfile) string {
	var parts []string
	if l.Smoking != "" {
		parts = append(parts, "smoking: "+l.Smoking)
	}
	if l.Alcohol != "" {
		parts = append(parts, "alcohol: "+l.Alcohol)
	}
	if l.WaterLiters > 0 {
		parts = append(parts, "water: "+formatNumber(l.WaterLiters)+" L/day")
	}
	if len(parts) == 0 {
		return "none reported"
	}
	return strings.Join(parts, ", ")
}

func formatNumber(v float64) string {
	if v == 0 {
		return "unknown"
	}
	return strings.TrimSuffix(fmt.Sprintf("%.1f", v), ".0")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func listOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "; ")
}
