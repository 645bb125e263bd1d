package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// BuildPolicy overlays stored settings on defaults. Unknown keys are ignored;
// a malformed value is skipped and reported so callers can log it. The
// defaults stay in force for every skipped key.
func BuildPolicy(defaults models.PolicyConfig, settings map[string]string) (models.PolicyConfig, []error) {
	p := defaults
	var errs []error

	for key, raw := range settings {
		raw = strings.TrimSpace(raw)
		var err error
		switch key {
		case models.SettingDefaultLoanDays:
			err = setPositiveInt(&p.DefaultLoanDays, raw)
		case models.SettingDefaultExtendDays:
			err = setPositiveInt(&p.DefaultExtendDays, raw)
		case models.SettingMaxActiveLoans:
			err = setNonNegativeInt(&p.MaxActiveLoans, raw)
		case models.SettingBlockOnOverdue:
			err = setBool(&p.BlockOnOverdue, raw)
		case models.SettingFinesEnabled:
			err = setBool(&p.FinesEnabled, raw)
		case models.SettingFinePerDayCents:
			var v int64
			if v, err = strconv.ParseInt(raw, 10, 64); err == nil {
				if v < 0 {
					err = fmt.Errorf("must not be negative")
				} else {
					p.FinePerDayCents = v
				}
			}
		case models.SettingFuzzySuffixLength:
			err = setNonNegativeInt(&p.FuzzySuffixLength, raw)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: setting %s=%q: %v", domain.ErrInvalidPolicy, key, raw, err))
		}
	}
	return p, errs
}

// PolicyPatch carries optional changes to the policy. nil fields stay as they are.
type PolicyPatch struct {
	DefaultLoanDays   *int
	DefaultExtendDays *int
	MaxActiveLoans    *int
	BlockOnOverdue    *bool
	FinesEnabled      *bool
	FinePerDayCents   *int64
	FuzzySuffixLength *int
}

// ApplyPatch returns current with patch applied, validated.
func ApplyPatch(current models.PolicyConfig, patch PolicyPatch) (models.PolicyConfig, error) {
	p := current
	if patch.DefaultLoanDays != nil {
		p.DefaultLoanDays = *patch.DefaultLoanDays
	}
	if patch.DefaultExtendDays != nil {
		p.DefaultExtendDays = *patch.DefaultExtendDays
	}
	if patch.MaxActiveLoans != nil {
		p.MaxActiveLoans = *patch.MaxActiveLoans
	}
	if patch.BlockOnOverdue != nil {
		p.BlockOnOverdue = *patch.BlockOnOverdue
	}
	if patch.FinesEnabled != nil {
		p.FinesEnabled = *patch.FinesEnabled
	}
	if patch.FinePerDayCents != nil {
		p.FinePerDayCents = *patch.FinePerDayCents
	}
	if patch.FuzzySuffixLength != nil {
		p.FuzzySuffixLength = *patch.FuzzySuffixLength
	}
	if err := p.Validate(); err != nil {
		return current, err
	}
	return p, nil
}

func setPositiveInt(dst *int, raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	*dst = v
	return nil
}

func setNonNegativeInt(dst *int, raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("must not be negative")
	}
	*dst = v
	return nil
}

func setBool(dst *bool, raw string) error {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off", "":
		*dst = false
	default:
		return fmt.Errorf("not a boolean")
	}
	return nil
}
