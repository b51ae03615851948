package audit

import (
	"context"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/audit"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListInput narrows an audit trail query
type ListInput struct {
	CompanyID     uuid.UUID
	ActorID       *uuid.UUID
	Action        *audit.Action
	AggregateType string
	AggregateID   *uuid.UUID
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// LogInfo is the read model of one audit entry
type LogInfo struct {
	ID            uuid.UUID      `json:"id"`
	ActorID       *uuid.UUID     `json:"actor_id,omitempty"`
	Action        audit.Action   `json:"action"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   uuid.UUID      `json:"aggregate_id"`
	Details       map[string]any `json:"details,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// NewLogInfo maps an audit entry to its read model
func NewLogInfo(l *audit.Log) LogInfo {
	return LogInfo{
		ID:            l.ID,
		ActorID:       l.ActorID,
		Action:        l.Action,
		AggregateType: l.AggregateType,
		AggregateID:   l.AggregateID,
		Details:       l.Details,
		OccurredAt:    l.OccurredAt,
	}
}

// ListResult is a page of the audit trail
type ListResult struct {
	Entries    []LogInfo `json:"entries"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}

// Service answers audit trail queries. Writing entries is the
// recorder's job; this service only reads.
type Service struct {
	auditRepo audit.Repository
	logger    *zap.Logger
}

// NewService creates an audit query service
func NewService(auditRepo audit.Repository, logger *zap.Logger) *Service {
	return &Service{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// List returns a page of the company's audit trail, newest first
func (s *Service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	filter := audit.Filter{
		ActorID:       input.ActorID,
		Action:        input.Action,
		AggregateType: input.AggregateType,
		AggregateID:   input.AggregateID,
		From:          input.From,
		To:            input.To,
		Page:          input.Page,
		PageSize:      input.PageSize,
	}

	logs, total, err := s.auditRepo.FindAll(ctx, input.CompanyID, filter)
	if err != nil {
		s.logger.Error("Failed to query audit trail", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to query audit trail")
	}

	entries := make([]LogInfo, len(logs))
	for i, l := range logs {
		entries[i] = NewLogInfo(l)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	return &ListResult{
		Entries:    entries,
		TotalCount: total,
		Page:       page,
		PageSize:   filter.Limit(),
	}, nil
}

// Trail returns every audit entry of one aggregate, oldest first
func (s *Service) Trail(ctx context.Context, companyID, aggregateID uuid.UUID) ([]LogInfo, error) {
	logs, err := s.auditRepo.FindByAggregate(ctx, companyID, aggregateID)
	if err != nil {
		s.logger.Error("Failed to load audit trail",
			zap.String("aggregate_id", aggregateID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load audit trail")
	}

	entries := make([]LogInfo, len(logs))
	for i, l := range logs {
		entries[i] = NewLogInfo(l)
	}
	return entries, nil
}
