package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks a request that is missing a required field.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type PreparationRequest struct {
	CustomerName  string `json:"customerName"`
	CompanyName   string `json:"companyName"`
	InternalNotes string `json:"internalNotes"` // CRM or sales notes
	ExternalInfo  string `json:"externalInfo"`  // LinkedIn, news, website
}

func (r PreparationRequest) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return invalidInput("customer name is required")
	}
	if strings.TrimSpace(r.CompanyName) == "" {
		return invalidInput("company name is required")
	}
	return nil
}

type PreparationResult struct {
	BackgroundSummary string `json:"backgroundSummary"`
	InterviewOutline  string `json:"interviewOutline"`
	SuggestedStrategy string `json:"suggestedStrategy"`
}

type AnalysisRequest struct {
	CustomerID     string `json:"customerId"`
	CustomerName   string `json:"customerName"`
	InterviewNotes string `json:"interviewNotes"` // transcript or raw notes
}

func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return invalidInput("a customer must be selected")
	}
	if strings.TrimSpace(r.InterviewNotes) == "" {
		return invalidInput("interview notes are required")
	}
	return nil
}

type AnalysisResult struct {
	MeetingReportMarkdown string       `json:"meetingReportMarkdown"`
	UpdatedPersonaData    PersonaPatch `json:"updatedPersonaData"`
}
