package validation

import (
	"strings"

	"github.com/templui/claimguard/internal/model"
)

const (
	MinVehicleYear = 1900
	MaxVehicleYear = 2100
)

// ValidateRequired rejects values that are empty after trimming.
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fieldError(field, "%s is required", field)
	}
	return nil
}

func ValidateVehicleYear(year int) error {
	if year < MinVehicleYear || year > MaxVehicleYear {
		return fieldError("vehicle_year", "vehicle year must be between %d and %d", MinVehicleYear, MaxVehicleYear)
	}
	return nil
}

func ValidateStatus(status string) error {
	if !model.ValidStatus(status) {
		return fieldError("status", "invalid status %q", status)
	}
	return nil
}

func ValidateDamageType(damage string) error {
	if !model.ValidDamageType(damage) {
		return fieldError("damage_type", "invalid damage type %q", damage)
	}
	return nil
}

func ValidateRole(role string) error {
	if !model.ValidRole(role) {
		return fieldError("role", "invalid role %q", role)
	}
	return nil
}
