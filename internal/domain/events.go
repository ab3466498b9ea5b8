// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package domain

// Topic names are the bus subjects carrying the two domain events, plus
// their dead-letter siblings. Bound to JetStream subjects 1:1.
const (
	TopicSubmission         = "loan_applications_submitted"
	TopicSubmissionDLQ      = "loan_applications_submitted_dlq"
	TopicCreditReport       = "credit_reports_generated"
	TopicCreditReportDLQ    = "credit_reports_generated_dlq"
)

// DLQTopic returns the dead-letter sibling of a topic. Only the two
// topics above have one; any other input is a programming error in the
// caller, not a runtime condition to guard against here.
func DLQTopic(topic string) string {
	switch topic {
	case TopicSubmission:
		return TopicSubmissionDLQ
	case TopicCreditReport:
		return TopicCreditReportDLQ
	default:
		return topic + "_dlq"
	}
}

// SubmissionEvent is the wire payload published by the Intake Writer (via
// the outbox) to TopicSubmission and consumed by the Scoring Worker. All
// fields are the fixed schema for this topic; there is no dynamic dict.
type SubmissionEvent struct {
	ApplicationID     string `json:"application_id"`
	PANNumberEncrypted string `json:"pan_number_encrypted"`
	PANNumberHash     string `json:"pan_number_hash"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	DateOfBirth       string `json:"date_of_birth"` // ISO-8601 date
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number"`
	RequestedAmount   string `json:"requested_amount"` // decimal, JSON string to avoid float drift
	AnnualIncome      string `json:"annual_income"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"` // ISO-8601
}

// ScoreReportEvent is the wire payload published by the Scoring Worker to
// TopicCreditReport and consumed by the Decision Worker.
type ScoreReportEvent struct {
	ApplicationID            string `json:"application_id"`
	PANNumber                string `json:"pan_number"` // wire-safe encrypted
	ApplicantName            string `json:"applicant_name"`
	CIBILScore               int    `json:"cibil_score"`
	AnnualIncome             string `json:"annual_income"`
	RequestedAmount          string `json:"requested_amount"`
	CreditReportGeneratedAt  string `json:"credit_report_generated_at"` // ISO-8601
}

// DLQEnvelope wraps an original payload with the reason and time it was
// routed to a dead-letter topic. Applied uniformly regardless of which
// topic's payload it carries.
type DLQEnvelope struct {
	Original  []byte `json:"original"`
	DLQReason string `json:"dlq_reason"`
	DLQAt     string `json:"dlq_at"` // ISO-8601
}
