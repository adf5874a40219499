package models

import "strings"

// Role is one of the four advisory perspectives tracked per user.
type Role string

const (
	RoleSummary   Role = "summary"
	RoleFitness   Role = "fitness"
	RoleNutrition Role = "nutrition"
	RoleWellness  Role = "wellness"
)

// Roles lists every role in a fixed order. Code that locks more than one role
// at a time iterates in this order.
var Roles = []Role{RoleSummary, RoleFitness, RoleNutrition, RoleWellness}

var roleAliases = map[string]Role{
	"summary":        RoleSummary,
	"healthsummary":  RoleSummary,
	"fitness":        RoleFitness,
	"fitnesstrainer": RoleFitness,
	"nutrition":      RoleNutrition,
	"nutritionist":   RoleNutrition,
	"wellness":       RoleWellness,
	"healthadvisor":  RoleWellness,
}

// ParseRole accepts a role name case-insensitively, including the legacy
// agent names used by older clients (HealthSummary, FitnessTrainer, ...).
func ParseRole(s string) (Role, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	r, ok := roleAliases[key]
	return r, ok
}

func (r Role) String() string { return string(r) }
