package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	n := 0
	s := New(kv,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return s, kv
}

func TestListGroupsSeedsDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "1", groups[0].ID)
	assert.Equal(t, "Students", groups[0].Name)
	assert.Equal(t, "🎓", groups[0].Icon)
	assert.Equal(t, "Clients", groups[1].Name)
	assert.Equal(t, "Admins", groups[2].Name)
	for _, g := range groups {
		assert.Zero(t, g.ContactCount)
	}

	_, found, err := kv.Get(ctx, KeyGroups)
	require.NoError(t, err)
	assert.True(t, found, "defaults should be persisted on first read")

	// Deleting every group leaves an explicitly empty list, no reseed.
	for _, g := range groups {
		ok, err := s.DeleteGroup(ctx, g.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	groups, err = s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAddContactTrimsAndNormalizesGroups(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	c, err := s.AddContact(ctx, ContactInput{
		Name:     "  Ada  ",
		Email:    " ada@example.com ",
		GroupIDs: []string{"1", "", "1", " 2 "},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, "Ada", c.Name)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, []string{"1", "2"}, c.GroupIDs)
	assert.Equal(t, fixedNow, c.CreatedAt)

	contacts, err := s.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, c.ID, contacts[0].ID)
}

func TestUpdateContact(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	c, err := s.AddContact(ctx, ContactInput{Name: "Ada", Email: "ada@example.com", GroupIDs: []string{"1"}})
	require.NoError(t, err)

	name := "Ada Lovelace"
	groups := []string{"2"}
	updated, err := s.UpdateContact(ctx, c.ID, ContactPatch{Name: &name, GroupIDs: &groups})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, "ada@example.com", updated.Email, "unpatched fields are kept")
	assert.Equal(t, []string{"2"}, updated.GroupIDs)

	_, err = s.UpdateContact(ctx, "missing", ContactPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteContact(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	c, err := s.AddContact(ctx, ContactInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	removed, found, err := s.DeleteContact(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, c.ID, removed.ID)

	_, found, err = s.DeleteContact(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteGroupStripsMembership(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a, err := s.AddContact(ctx, ContactInput{Name: "A", Email: "a@example.com", GroupIDs: []string{"1", "2"}})
	require.NoError(t, err)
	b, err := s.AddContact(ctx, ContactInput{Name: "B", Email: "b@example.com", GroupIDs: []string{"1"}})
	require.NoError(t, err)

	ok, err := s.DeleteGroup(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	a, err = s.GetContact(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, a.GroupIDs)
	b, err = s.GetContact(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, b.GroupIDs)

	_, err = s.GetGroup(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err = s.DeleteGroup(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecomputeContactCount(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.AddContact(ctx, ContactInput{
			Name:     fmt.Sprintf("c%d", i),
			Email:    fmt.Sprintf("c%d@example.com", i),
			GroupIDs: []string{"2"},
		})
		require.NoError(t, err)
	}

	count, err := s.RecomputeContactCount(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	g, err := s.GetGroup(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 3, g.ContactCount)

	_, err = s.RecomputeContactCount(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddCampaignPrepends(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first, err := s.AddCampaign(ctx, CampaignInput{Title: "first", Status: CampaignSent})
	require.NoError(t, err)
	second, err := s.AddCampaign(ctx, CampaignInput{Title: "second"})
	require.NoError(t, err)
	assert.Equal(t, CampaignDraft, second.Status, "status defaults to draft")

	campaigns, err := s.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	assert.Equal(t, second.ID, campaigns[0].ID)
	assert.Equal(t, first.ID, campaigns[1].ID)

	_, err = s.AddCampaign(ctx, CampaignInput{Title: "bad", Status: "queued"})
	assert.Error(t, err)
}

func TestUpdateAndDeleteCampaign(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	c, err := s.AddCampaign(ctx, CampaignInput{Title: "t"})
	require.NoError(t, err)

	status := CampaignFailed
	updated, err := s.UpdateCampaign(ctx, c.ID, CampaignPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, CampaignFailed, updated.Status)

	_, err = s.UpdateCampaign(ctx, "missing", CampaignPatch{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.DeleteCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptCollectionIsReported(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	require.NoError(t, kv.Set(ctx, KeyContacts, "{not json"))

	_, err := s.ListContacts(ctx)
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), KeyContacts)

	// The corrupt value must still be there; nothing resets silently.
	raw, found, err := kv.Get(ctx, KeyContacts)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "{not json", raw)

	require.NoError(t, s.Reset(ctx, CollectionContacts))
	contacts, err := s.ListContacts(ctx)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestResetUnknownCollection(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Error(t, s.Reset(context.Background(), "everything"))
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddContact(ctx, ContactInput{Name: "n", Email: fmt.Sprintf("%d@example.com", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	contacts, err := s.ListContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, contacts, 20)
}

type countingRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *countingRecorder) RecordStoreOperation(_ context.Context, collection, operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, collection+"/"+operation+"/"+status)
}

func TestRecorderReceivesOperations(t *testing.T) {
	ctx := context.Background()
	rec := &countingRecorder{}
	s := New(NewMemoryKV(), WithRecorder(rec))

	_, err := s.AddContact(ctx, ContactInput{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = s.UpdateContact(ctx, "missing", ContactPatch{})
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"contacts/add/success", "contacts/update/error"}, rec.events)
}
