package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	entries []Entry
}

func (m *mockRepo) List(_ context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	matched := []Entry{}
	for _, e := range m.entries {
		if filter.ActorID > 0 && e.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.From != nil && e.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !e.OccurredAt.Before(*filter.To) {
			continue
		}
		matched = append(matched, e)
	}
	if offset >= len(matched) {
		return []Entry{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func seedEntries(n int, actorID int64) []Entry {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			ID:         int64(i + 1),
			ActorID:    actorID,
			Action:     shared.AuditCreate,
			Resource:   "billing",
			Entity:     "invoice",
			EntityID:   "1",
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return entries
}

func TestListPagesWithHasNext(t *testing.T) {
	svc := NewService(&mockRepo{entries: seedEntries(7, 1)})

	page1, err := svc.List(context.Background(), Filter{Page: 1, PageSize: 5})
	require.NoError(t, err)
	require.Len(t, page1.Entries, 5)
	require.True(t, page1.Paging.HasNext)
	require.Equal(t, 2, page1.Paging.NextPage)

	page2, err := svc.List(context.Background(), Filter{Page: 2, PageSize: 5})
	require.NoError(t, err)
	require.Len(t, page2.Entries, 2)
	require.False(t, page2.Paging.HasNext)
	require.Equal(t, 1, page2.Paging.PrevPage)
}

func TestListFiltersByActorAndWindow(t *testing.T) {
	entries := append(seedEntries(3, 1), seedEntries(2, 9)...)
	svc := NewService(&mockRepo{entries: entries})

	byActor, err := svc.List(context.Background(), Filter{ActorID: 9})
	require.NoError(t, err)
	require.Len(t, byActor.Entries, 2)

	from := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
	windowed, err := svc.List(context.Background(), Filter{ActorID: 1, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, windowed.Entries, 2)
}

func TestListRejectsUnknownActionAndInvertedRange(t *testing.T) {
	svc := NewService(&mockRepo{})

	_, err := svc.List(context.Background(), Filter{Action: "PURGE"})
	require.ErrorIs(t, err, shared.ErrValidation)

	from := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.List(context.Background(), Filter{From: &from, To: &to})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListClampsPageSize(t *testing.T) {
	svc := NewService(&mockRepo{entries: seedEntries(3, 1)})

	result, err := svc.List(context.Background(), Filter{PageSize: 10000})
	require.NoError(t, err)
	require.Equal(t, 200, result.Paging.PageSize)
}
