// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package domain holds the aggregate root, event payloads, and pure
// scoring/decision functions for the loan prequalification pipeline.
// Nothing in this package touches the database, the bus, or the clock
// except through explicit parameters, so every function here is testable
// without a fixture beyond its own arguments.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the Application's lifecycle state. Transitions are monotonic:
// PENDING moves to exactly one terminal state and is never revised.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusPreApproved  Status = "PRE_APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusManualReview Status = "MANUAL_REVIEW"
)

// Terminal reports whether s is a terminal status (never mutated again by
// the Decision Worker).
func (s Status) Terminal() bool {
	return s == StatusPreApproved || s == StatusRejected || s == StatusManualReview
}

// Application is the aggregate root: a loan prequalification request and
// its eventual scoring/decision outcome.
type Application struct {
	ID              uuid.UUID
	PANEncrypted    []byte
	PANHash         string
	FirstName       string
	LastName        string
	DateOfBirth     time.Time
	Email           string
	PhoneNumber     string
	RequestedAmount decimal.Decimal
	AnnualIncome    decimal.Decimal
	Status          Status
	Score           *int
	DecisionReason  *string
	MaxApprovedAmt  *decimal.Decimal
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MonthlyIncome derives the monthly income figure used by the decision
// function from the stored annual income.
func (a *Application) MonthlyIncome() decimal.Decimal {
	return a.AnnualIncome.Div(decimal.NewFromInt(12))
}

// NewApplication constructs a PENDING application with a fresh UUIDv7 id
// and version 1. The caller supplies the PAN codec output (ciphertext and
// fingerprint) since the codec is an explicit collaborator, never reached
// into from this package.
func NewApplication(panEncrypted []byte, panHash, firstName, lastName string, dob time.Time, email, phone string, requestedAmount, annualIncome decimal.Decimal, now time.Time) (*Application, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &Application{
		ID:              id,
		PANEncrypted:    panEncrypted,
		PANHash:         panHash,
		FirstName:       firstName,
		LastName:        lastName,
		DateOfBirth:     dob,
		Email:           email,
		PhoneNumber:     phone,
		RequestedAmount: requestedAmount,
		AnnualIncome:    annualIncome,
		Status:          StatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
