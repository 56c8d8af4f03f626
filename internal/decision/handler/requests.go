package handler

import (
	"strings"

	"vigil/internal/concern"
	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

const (
	maxDomainLength = 2048
	maxTextLength   = 8192
	maxFieldLength  = 256
)

// CandidateRequest is the HTTP request body for POST /v1/candidates.
type CandidateRequest struct {
	Category      string `json:"category"`
	RawConfidence *int   `json:"raw_confidence"`
	ContextDomain string `json:"context_domain,omitempty"`
	ContextText   string `json:"context_text,omitempty"`
	FamilyID      string `json:"family_id"`
	SubjectID     string `json:"subject_id"`
	AppIdentifier string `json:"app_identifier,omitempty"`
	Severity      string `json:"severity,omitempty"`
	EventID       string `json:"event_id,omitempty"`

	// Parsed values (populated by Validate)
	candidate concern.Candidate
}

func (r *CandidateRequest) Normalize() {
	r.ContextDomain = strings.TrimSpace(r.ContextDomain)
	r.AppIdentifier = strings.TrimSpace(r.AppIdentifier)
	r.EventID = strings.TrimSpace(r.EventID)
}

// Validate validates and parses the request.
// Implements the Preparable interface for httputil.DecodeAndPrepare.
func (r *CandidateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.ContextDomain) > maxDomainLength {
		return dErrors.New(dErrors.CodeInvalidInput, "context_domain is too long")
	}
	if len(r.ContextText) > maxTextLength {
		return dErrors.New(dErrors.CodeInvalidInput, "context_text is too long")
	}
	if len(r.AppIdentifier) > maxFieldLength || len(r.EventID) > maxFieldLength {
		return dErrors.New(dErrors.CodeInvalidInput, "app_identifier and event_id must be at most 256 characters")
	}

	if r.RawConfidence == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "raw_confidence is required")
	}

	var (
		c   concern.Candidate
		err error
	)
	if c.Category, err = concern.ParseCategory(r.Category); err != nil {
		return err
	}
	if c.FamilyID, err = domain.ParseFamilyID(r.FamilyID); err != nil {
		return err
	}
	if c.SubjectID, err = domain.ParseSubjectID(r.SubjectID); err != nil {
		return err
	}
	if r.Severity != "" {
		if c.Severity, err = concern.ParseSeverity(r.Severity); err != nil {
			return err
		}
	}
	c.RawConfidence = *r.RawConfidence
	c.ContextDomain = r.ContextDomain
	c.ContextText = r.ContextText
	c.AppIdentifier = r.AppIdentifier
	c.EventID = r.EventID
	if err := c.Validate(); err != nil {
		return err
	}
	r.candidate = c
	return nil
}
