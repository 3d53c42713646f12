package profiles

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidProfile = errors.New("invalid profile")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(validateEnums, UserProfile{})
	})
	return validate
}

func validateEnums(sl validator.StructLevel) {
	p := sl.Current().Interface().(UserProfile)
	switch p.ActivityLevel {
	case Sedentary, LightlyActive, ModeratelyActive, VeryActive, ExtraActive:
	default:
		sl.ReportError(p.ActivityLevel, "ActivityLevel", "activity_level", "activity", "")
	}
	switch p.Goal {
	case FatLoss, MuscleGain, WeightGain, GeneralWellness:
	default:
		sl.ReportError(p.Goal, "Goal", "goal", "goal", "")
	}
	switch p.DietType {
	case Vegetarian, Eggetarian, NonVegetarian, Jain, Mixed:
	default:
		sl.ReportError(p.DietType, "DietType", "diet_type", "diet", "")
	}
}

// Validate checks field ranges and enum values. The returned error wraps
// ErrInvalidProfile and names every failing field.
func (p UserProfile) Validate() error {
	err := instance().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(fields, ", "))
}
