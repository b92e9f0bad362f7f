package audit

import (
	"context"
	"fmt"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// RepositoryPort defines data access for the audit trail.
type RepositoryPort interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error)
}

// Service coordinates audit trail retrieval.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Known audit actions, matching what the loggers write.
var knownActions = map[string]bool{
	shared.AuditCreate: true,
	shared.AuditUpdate: true,
	shared.AuditDelete: true,
}

// List returns a page of audit entries, newest first. It fetches one extra row
// beyond the page size to detect whether a next page exists.
func (s *Service) List(ctx context.Context, filter Filter) (*Result, error) {
	if filter.Action != "" && !knownActions[filter.Action] {
		return nil, fmt.Errorf("%w: action must be one of CREATE, UPDATE, DELETE", shared.ErrValidation)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: date range is inverted", shared.ErrValidation)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	entries, err := s.repo.List(ctx, filter, pageSize+1, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	hasNext := len(entries) > pageSize
	if hasNext {
		entries = entries[:pageSize]
	}

	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if hasNext {
		paging.NextPage = page + 1
	}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	return &Result{Entries: entries, Paging: paging}, nil
}
