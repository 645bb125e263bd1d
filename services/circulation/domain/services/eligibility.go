// Package services contains stateless domain services for the circulation
// bounded context. They decide; they never load or store anything.
package services

import (
	"fmt"

	"github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// Eligibility is the member state the eligibility rules look at.
type Eligibility struct {
	Member       *models.Member
	ActiveLoans  int
	OverdueLoans int
}

// CheckEligibility decides whether the member may start a new loan.
// Rules are evaluated in order and the first failure wins:
//  1. blocked member            → member_blocked
//  2. overdue loans when policy blocks on overdue → overdue_block
//  3. active loans at the cap   → loan_limit
func CheckEligibility(policy models.PolicyConfig, in Eligibility) error {
	if in.Member == nil {
		return fmt.Errorf("eligibility: member cannot be nil")
	}

	if in.Member.IsBlocked {
		details := map[string]any{"member_id": in.Member.ID}
		if in.Member.Note != "" {
			details["note"] = in.Member.Note
		}
		return domain.NewPolicyError(domain.ReasonMemberBlocked, "member is blocked from borrowing", details)
	}

	if policy.BlockOnOverdue && in.OverdueLoans > 0 {
		return domain.NewPolicyError(domain.ReasonOverdueBlock,
			fmt.Sprintf("member has %d overdue loan(s)", in.OverdueLoans),
			map[string]any{"overdue_loans": in.OverdueLoans})
	}

	if policy.MaxActiveLoans > 0 && in.ActiveLoans >= policy.MaxActiveLoans {
		return domain.NewPolicyError(domain.ReasonLoanLimit,
			fmt.Sprintf("member has reached the limit of %d active loans", policy.MaxActiveLoans),
			map[string]any{"active_loans": in.ActiveLoans, "limit": policy.MaxActiveLoans})
	}

	return nil
}
