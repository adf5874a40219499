package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/store"
)

var validate = validator.New()

// ValidateProfile checks the intake record and reports every failing field
// as one apperr.Validation error.
func ValidateProfile(p models.Profile) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.New(apperr.Validation, "invalid profile", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Validationf("invalid profile: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Profile.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}

type ProfileService struct {
	profiles store.ProfileStore
	log      *logger.Logger
	now      func() time.Time
}

func NewProfileService(profiles store.ProfileStore, log *logger.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Submit validates p, derives BMI and overwrites the user's profile.
func (s *ProfileService) Submit(ctx context.Context, userID string, p models.Profile) (*models.Profile, error) {
	p.UserID = userID
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}
	p.BMI = models.ComputeBMI(p.HeightCM, p.WeightKG)
	p.UpdatedAt = s.now()

	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("profile saved", "user_id", userID, "bmi", p.BMI)
	return &p, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx, userID)
}
