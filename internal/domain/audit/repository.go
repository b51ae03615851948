package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows an audit log listing
type Filter struct {
	ActorID       *uuid.UUID
	Action        *Action
	AggregateType string
	AggregateID   *uuid.UUID
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// Offset calculates the query offset
func (f Filter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// Limit calculates the query limit, capped at 100
func (f Filter) Limit() int {
	if f.PageSize < 1 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// Repository persists audit log entries. Entries are append-only:
// there is no update or delete.
type Repository interface {
	Create(ctx context.Context, log *Log) error
	FindAll(ctx context.Context, companyID uuid.UUID, filter Filter) ([]*Log, int64, error)
	FindByAggregate(ctx context.Context, companyID, aggregateID uuid.UUID) ([]*Log, error)
}
