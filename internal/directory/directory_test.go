package directory

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailcampaign/internal/store"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	return New(store.New(store.NewMemoryKV()), nil)
}

func groupCount(t *testing.T, d *Directory, id string) int {
	t.Helper()
	g, err := d.Group(context.Background(), id)
	require.NoError(t, err)
	return g.ContactCount
}

func TestAddContactUpdatesCounts(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	_, err := d.AddContact(ctx, store.ContactInput{Name: "Alice", Email: "alice@example.com", GroupIDs: []string{"1", "2"}})
	require.NoError(t, err)
	_, err = d.AddContact(ctx, store.ContactInput{Name: "Bob", Email: "bob@example.com", GroupIDs: []string{"1"}})
	require.NoError(t, err)

	assert.Equal(t, 2, groupCount(t, d, "1"))
	assert.Equal(t, 1, groupCount(t, d, "2"))
	assert.Equal(t, 0, groupCount(t, d, "3"))
}

func TestAddContactValidation(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	tests := []struct {
		name  string
		input store.ContactInput
	}{
		{"missing name", store.ContactInput{Name: "   ", Email: "a@example.com"}},
		{"missing email", store.ContactInput{Name: "A"}},
		{"invalid email", store.ContactInput{Name: "A", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.AddContact(ctx, tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	contacts, err := d.Contacts(ctx)
	require.NoError(t, err)
	assert.Empty(t, contacts, "nothing is written when validation fails")
}

func TestUpdateContactMovesBetweenGroups(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	c, err := d.AddContact(ctx, store.ContactInput{Name: "Alice", Email: "alice@example.com", GroupIDs: []string{"1"}})
	require.NoError(t, err)
	require.Equal(t, 1, groupCount(t, d, "1"))

	groups := []string{"2", "3"}
	_, err = d.UpdateContact(ctx, c.ID, store.ContactPatch{GroupIDs: &groups})
	require.NoError(t, err)

	assert.Equal(t, 0, groupCount(t, d, "1"))
	assert.Equal(t, 1, groupCount(t, d, "2"))
	assert.Equal(t, 1, groupCount(t, d, "3"))

	bad := "nope"
	_, err = d.UpdateContact(ctx, c.ID, store.ContactPatch{Email: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	name := "Alice"
	_, err = d.UpdateContact(ctx, "missing", store.ContactPatch{Name: &name})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteContactResyncsFormerGroups(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	c, err := d.AddContact(ctx, store.ContactInput{Name: "Alice", Email: "alice@example.com", GroupIDs: []string{"1", "2"}})
	require.NoError(t, err)

	found, err := d.DeleteContact(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0, groupCount(t, d, "1"))
	assert.Equal(t, 0, groupCount(t, d, "2"))

	found, err = d.DeleteContact(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteGroupCleansReferences(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	c, err := d.AddContact(ctx, store.ContactInput{Name: "Alice", Email: "alice@example.com", GroupIDs: []string{"1", "2"}})
	require.NoError(t, err)

	found, err := d.DeleteGroup(ctx, "1")
	require.NoError(t, err)
	assert.True(t, found)

	contacts, err := d.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, c.ID, contacts[0].ID)
	assert.Equal(t, []string{"2"}, contacts[0].GroupIDs)

	groups, err := d.Groups(ctx)
	require.NoError(t, err)
	for _, g := range groups {
		assert.NotEqual(t, "1", g.ID)
	}
}

func TestResyncRepairsDrift(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryKV())
	d := New(s, nil)

	// Write through the store directly so counts drift.
	_, err := s.AddContact(ctx, store.ContactInput{Name: "A", Email: "a@example.com", GroupIDs: []string{"3"}})
	require.NoError(t, err)
	assert.Equal(t, 0, groupCount(t, d, "3"))

	require.NoError(t, d.Resync(ctx, "3", "unknown"))
	assert.Equal(t, 1, groupCount(t, d, "3"))

	_, err = s.AddContact(ctx, store.ContactInput{Name: "B", Email: "b@example.com", GroupIDs: []string{"1", "3"}})
	require.NoError(t, err)
	require.NoError(t, d.Resync(ctx))
	assert.Equal(t, 1, groupCount(t, d, "1"))
	assert.Equal(t, 2, groupCount(t, d, "3"))
}

func TestGroupValidation(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	_, err := d.AddGroup(ctx, store.GroupInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	g, err := d.AddGroup(ctx, store.GroupInput{Name: " Partners ", Icon: "🤝"})
	require.NoError(t, err)
	assert.Equal(t, "Partners", g.Name)
	assert.Zero(t, g.ContactCount)

	empty := ""
	_, err = d.UpdateGroup(ctx, g.ID, store.GroupPatch{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	desc := "Partner companies"
	g, err = d.UpdateGroup(ctx, g.ID, store.GroupPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Partners", g.Name)
	assert.Equal(t, "Partner companies", g.Description)
}

func TestSearchContacts(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	for _, in := range []store.ContactInput{
		{Name: "Alice Martin", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@corp.example"},
		{Name: "Carol", Email: "carol@example.com"},
	} {
		_, err := d.AddContact(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Alice Martin", "Bob", "Carol"}},
		{"MARTIN", []string{"Alice Martin"}},
		{"corp", []string{"Bob"}},
		{"example.com", []string{"Alice Martin", "Carol"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := d.SearchContacts(ctx, tt.query)
			require.NoError(t, err)
			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestDirectory(t)

	_, err := src.AddContact(ctx, store.ContactInput{Name: "Alice", Email: "alice@example.com", Phone: "+33 1 23", GroupIDs: []string{"1", "2"}})
	require.NoError(t, err)
	_, err = src.AddContact(ctx, store.ContactInput{Name: "Bob, Jr.", Email: "bob@example.com"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.ExportCSV(ctx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Phone,Groups", lines[0])
	assert.Equal(t, "Alice,alice@example.com,+33 1 23,1;2", lines[1])
	assert.Equal(t, `"Bob, Jr.",bob@example.com,,`, lines[2])

	dst := newTestDirectory(t)
	res, err := dst.ImportCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2, Skipped: 0}, res)
	assert.Equal(t, 1, groupCount(t, dst, "1"))
	assert.Equal(t, 1, groupCount(t, dst, "2"))
}

func TestImportCSVSkipsBadRows(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	input := "Name,Email,Phone,Groups\n" +
		"Alice,alice@example.com\n" +
		"\n" +
		",nobody@example.com,,\n" +
		"Bob,not-an-email,,\n" +
		"Carol,carol@example.com,,3\n"

	res, err := d.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, groupCount(t, d, "3"))
}
