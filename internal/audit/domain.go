// Package audit exposes the append-only activity trail for review.
package audit

import "time"

// Entry is one recorded action from audit_logs.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details"`
	IP         string         `json:"ip"`
	Result     string         `json:"result"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Filter narrows the listing window.
type Filter struct {
	From     *time.Time
	To       *time.Time
	ActorID  int64
	Action   string
	Resource string
	Page     int
	PageSize int
}

// PagingInfo describes the returned window.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	NextPage int  `json:"next_page,omitempty"`
	PrevPage int  `json:"prev_page,omitempty"`
}

// Result bundles entries with paging state.
type Result struct {
	Entries []Entry    `json:"entries"`
	Paging  PagingInfo `json:"paging"`
}
