package models

import (
	"fmt"
	"strconv"

	"github.com/ghuser/bookcirc/services/circulation/domain"
)

// Setting keys stored in circulation_settings.
const (
	SettingDefaultLoanDays   = "default_loan_days"
	SettingDefaultExtendDays = "default_extend_days"
	SettingMaxActiveLoans    = "max_active_loans"
	SettingBlockOnOverdue    = "block_on_overdue"
	SettingFinesEnabled      = "fines_enabled"
	SettingFinePerDayCents   = "fine_per_day_cents"
	SettingFuzzySuffixLength = "fuzzy_suffix_length"
)

// PolicyConfig is the circulation policy in force for one request. It is
// built once and passed by value; nothing mutates it mid-operation.
type PolicyConfig struct {
	DefaultLoanDays   int   `json:"default_loan_days"`
	DefaultExtendDays int   `json:"default_extend_days"`
	MaxActiveLoans    int   `json:"max_active_loans"` // 0 = unlimited
	BlockOnOverdue    bool  `json:"block_on_overdue"`
	FinesEnabled      bool  `json:"fines_enabled"`
	FinePerDayCents   int64 `json:"fine_per_day_cents"`
	FuzzySuffixLength int   `json:"fuzzy_suffix_length"` // 0 disables suffix matching
}

// Validate checks the policy's ranges.
func (p PolicyConfig) Validate() error {
	switch {
	case p.DefaultLoanDays <= 0:
		return fmt.Errorf("%w: default_loan_days must be positive", domain.ErrInvalidPolicy)
	case p.DefaultExtendDays <= 0 || p.DefaultExtendDays > MaxExtendDays:
		return fmt.Errorf("%w: default_extend_days must be between 1 and %d", domain.ErrInvalidPolicy, MaxExtendDays)
	case p.MaxActiveLoans < 0:
		return fmt.Errorf("%w: max_active_loans must not be negative", domain.ErrInvalidPolicy)
	case p.FinePerDayCents < 0:
		return fmt.Errorf("%w: fine_per_day_cents must not be negative", domain.ErrInvalidPolicy)
	case p.FuzzySuffixLength < 0:
		return fmt.Errorf("%w: fuzzy_suffix_length must not be negative", domain.ErrInvalidPolicy)
	}
	return nil
}

// Settings renders the policy as settings rows.
func (p PolicyConfig) Settings() map[string]string {
	return map[string]string{
		SettingDefaultLoanDays:   strconv.Itoa(p.DefaultLoanDays),
		SettingDefaultExtendDays: strconv.Itoa(p.DefaultExtendDays),
		SettingMaxActiveLoans:    strconv.Itoa(p.MaxActiveLoans),
		SettingBlockOnOverdue:    strconv.FormatBool(p.BlockOnOverdue),
		SettingFinesEnabled:      strconv.FormatBool(p.FinesEnabled),
		SettingFinePerDayCents:   strconv.FormatInt(p.FinePerDayCents, 10),
		SettingFuzzySuffixLength: strconv.Itoa(p.FuzzySuffixLength),
	}
}
