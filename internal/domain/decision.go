// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// amortizationDivisor is the fixed integer divisor applied to the
// requested amount to derive the income bar a monthly income must clear.
const amortizationDivisor = 48

// rejectScoreThreshold is the score floor below which an application is
// rejected outright regardless of income.
const rejectScoreThreshold = 650

// Decision is the outcome of the decision function: a terminal status, an
// optional maximum approved amount, and a human-readable reason.
type Decision struct {
	Status         Status
	MaxApprovedAmt *decimal.Decimal
	Reason         string
}

// Decide is the pure decision function of (monthlyIncome, requestedAmount,
// score). The PRE_APPROVED threshold is strict '>': equality falls to
// MANUAL_REVIEW.
func Decide(monthlyIncome, requestedAmount decimal.Decimal, score int) Decision {
	if score < rejectScoreThreshold {
		return Decision{
			Status: StatusRejected,
			Reason: fmt.Sprintf("score %d below threshold %d", score, rejectScoreThreshold),
		}
	}

	bar := requestedAmount.Div(decimal.NewFromInt(amortizationDivisor))
	maxApproved := monthlyIncome.Mul(decimal.NewFromInt(amortizationDivisor))

	if monthlyIncome.GreaterThan(bar) {
		return Decision{
			Status:         StatusPreApproved,
			MaxApprovedAmt: &maxApproved,
			Reason: fmt.Sprintf("score %d, monthly income %s exceeds required %s",
				score, monthlyIncome.StringFixed(2), bar.StringFixed(2)),
		}
	}

	return Decision{
		Status:         StatusManualReview,
		MaxApprovedAmt: &maxApproved,
		Reason: fmt.Sprintf("score %d, monthly income %s does not exceed required %s",
			score, monthlyIncome.StringFixed(2), bar.StringFixed(2)),
	}
}
