package models

import (
	"math"
	"time"
)

// Profile is the structured intake record for one user. There is exactly one
// current profile per user; a new submission overwrites it.
type Profile struct {
	UserID   string  `bson:"user_id" json:"user_id"`
	Name     string  `bson:"name" json:"name" validate:"required,max=100"`
	Age      int     `bson:"age" json:"age" validate:"required,gte=13,lte=120"`
	Gender   string  `bson:"gender,omitempty" json:"gender,omitempty"`
	HeightCM float64 `bson:"height_cm" json:"height_cm" validate:"required,gt=50,lt=300"`
	WeightKG float64 `bson:"weight_kg" json:"weight_kg" validate:"required,gt=20,lt=500"`
	BMI      float64 `bson:"bmi" json:"bmi"`

	Goals     Goals            `bson:"goals" json:"goals"`
	Fitness   FitnessProfile   `bson:"fitness" json:"fitness"`
	Health    HealthProfile    `bson:"health" json:"health"`
	Nutrition NutritionProfile `bson:"nutrition" json:"nutrition"`
	Lifestyle LifestyleProfile `bson:"lifestyle" json:"lifestyle"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type Goals struct {
	Primary  string `bson:"primary" json:"primary" validate:"required,max=200"`
	Specific string `bson:"specific,omitempty" json:"specific,omitempty" validate:"max=1000"`
}

type FitnessProfile struct {
	Level             string   `bson:"level" json:"level" validate:"required,oneof=beginner intermediate advanced"`
	ActivityLevel     string   `bson:"activity_level,omitempty" json:"activity_level,omitempty"`
	WorkoutPreference string   `bson:"workout_preference,omitempty" json:"workout_preference,omitempty"`
	DaysPerWeek       int      `bson:"days_per_week,omitempty" json:"days_per_week,omitempty" validate:"omitempty,min=1,max=7"`
	SessionMinutes    int      `bson:"session_minutes,omitempty" json:"session_minutes,omitempty" validate:"omitempty,min=10,max=240"`
	Equipment         []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Injuries          string   `bson:"injuries,omitempty" json:"injuries,omitempty"`
}

type HealthProfile struct {
	PreviousInjuries  string `bson:"previous_injuries,omitempty" json:"previous_injuries,omitempty"`
	ChronicConditions string `bson:"chronic_conditions,omitempty" json:"chronic_conditions,omitempty"`
	Medications       string `bson:"medications,omitempty" json:"medications,omitempty"`
}

type NutritionProfile struct {
	DietType      string   `bson:"diet_type" json:"diet_type" validate:"required"`
	Allergies     []string `bson:"allergies,omitempty" json:"allergies,omitempty"`
	Restrictions  string   `bson:"restrictions,omitempty" json:"restrictions,omitempty"`
	MealsPerDay   int      `bson:"meals_per_day,omitempty" json:"meals_per_day,omitempty" validate:"omitempty,min=1,max=8"`
	CaloricTarget int      `bson:"caloric_target,omitempty" json:"caloric_target,omitempty" validate:"omitempty,min=800,max=6000"`
	CookingSkill  string   `bson:"cooking_skill,omitempty" json:"cooking_skill,omitempty"`
	Budget        string   `bson:"budget,omitempty" json:"budget,omitempty"`
}

type LifestyleProfile struct {
	SleepHours   float64 `bson:"sleep_hours" json:"sleep_hours" validate:"required,gt=0,lte=24"`
	SleepQuality string  `bson:"sleep_quality,omitempty" json:"sleep_quality,omitempty"`
	StressLevel  int     `bson:"stress_level,omitempty" json:"stress_level,omitempty" validate:"omitempty,min=1,max=10"`
	WaterLiters  float64 `bson:"water_liters,omitempty" json:"water_liters,omitempty"`
	Smoking      string  `bson:"smoking,omitempty" json:"smoking,omitempty"`
	Alcohol      string  `bson:"alcohol,omitempty" json:"alcohol,omitempty"`
}

// ComputeBMI returns weight / height^2 rounded to one decimal, or 0 when the
// height is unknown.
func ComputeBMI(heightCM, weightKG float64) float64 {
	if heightCM <= 0 || weightKG <= 0 {
		return 0
	}
	m := heightCM / 100
	return math.Round(weightKG/(m*m)*10) / 10
}

var stressWords = map[int]string{
	1: "very low", 2: "low", 3: "mild",
	4: "moderate", 5: "moderate", 6: "moderate",
	7: "high", 8: "high", 9: "very high", 10: "extreme",
}

// StressDescription turns the 1-10 stress scale into words.
func StressDescription(level int) string {
	if level == 0 {
		return "unknown"
	}
	if w, ok := stressWords[level]; ok {
		return w
	}
	return "moderate"
}
