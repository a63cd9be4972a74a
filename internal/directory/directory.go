// Package directory sequences store mutations so that each group's
// ContactCount stays equal to the number of contacts that reference it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/store"
)

// ErrValidation wraps input that failed field validation.
var ErrValidation = errors.New("validation failed")

// Directory is the data-context layer on top of a store.Store.
type Directory struct {
	store    *store.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// New returns a Directory over s. A nil logger discards output.
func New(s *store.Store, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Directory{
		store:    s,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Store returns the underlying store.
func (d *Directory) Store() *store.Store {
	return d.store
}

func (d *Directory) check(v any) error {
	if err := d.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrValidation, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "min":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" is not a valid email address")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, ", ")
}

// Contacts returns all contacts.
func (d *Directory) Contacts(ctx context.Context) ([]store.Contact, error) {
	return d.store.ListContacts(ctx)
}

// Groups returns all groups.
func (d *Directory) Groups(ctx context.Context) ([]store.Group, error) {
	return d.store.ListGroups(ctx)
}

// Group returns one group.
func (d *Directory) Group(ctx context.Context, id string) (store.Group, error) {
	return d.store.GetGroup(ctx, id)
}

// ContactsOfGroup returns the members of a group.
func (d *Directory) ContactsOfGroup(ctx context.Context, groupID string) ([]store.Contact, error) {
	return d.store.ContactsOfGroup(ctx, groupID)
}

// SearchContacts returns the contacts whose name or email contains query,
// ignoring case. An empty query matches everything.
func (d *Directory) SearchContacts(ctx context.Context, query string) ([]store.Contact, error) {
	contacts, err := d.store.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return contacts, nil
	}
	var out []store.Contact
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// AddContact validates and stores a new contact, then resyncs its groups.
func (d *Directory) AddContact(ctx context.Context, in store.ContactInput) (store.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := d.check(in); err != nil {
		return store.Contact{}, err
	}
	c, err := d.store.AddContact(ctx, in)
	if err != nil {
		return store.Contact{}, err
	}
	d.logger.Debug("contact added", logging.Operation("contacts.add"), logging.UserHash(c.Email))
	if err := d.Resync(ctx, c.GroupIDs...); err != nil {
		return c, err
	}
	return c, nil
}

// UpdateContact merges patch into a contact. When the group list changes, the
// union of the old and new groups is resynced.
func (d *Directory) UpdateContact(ctx context.Context, id string, patch store.ContactPatch) (store.Contact, error) {
	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		patch.Name = &v
	}
	if patch.Email != nil {
		v := strings.TrimSpace(*patch.Email)
		patch.Email = &v
	}
	if err := d.check(patch); err != nil {
		return store.Contact{}, err
	}

	before, err := d.store.GetContact(ctx, id)
	if err != nil {
		return store.Contact{}, err
	}
	after, err := d.store.UpdateContact(ctx, id, patch)
	if err != nil {
		return store.Contact{}, err
	}
	if patch.GroupIDs != nil {
		if err := d.Resync(ctx, union(before.GroupIDs, after.GroupIDs)...); err != nil {
			return after, err
		}
	}
	return after, nil
}

// DeleteContact removes a contact and resyncs its former groups. found is
// false when the contact did not exist.
func (d *Directory) DeleteContact(ctx context.Context, id string) (bool, error) {
	removed, found, err := d.store.DeleteContact(ctx, id)
	if err != nil || !found {
		return found, err
	}
	if err := d.Resync(ctx, removed.GroupIDs...); err != nil {
		return true, err
	}
	return true, nil
}

// AddGroup validates and stores a new group.
func (d *Directory) AddGroup(ctx context.Context, in store.GroupInput) (store.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := d.check(in); err != nil {
		return store.Group{}, err
	}
	return d.store.AddGroup(ctx, in)
}

// UpdateGroup merges patch into a group.
func (d *Directory) UpdateGroup(ctx context.Context, id string, patch store.GroupPatch) (store.Group, error) {
	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		patch.Name = &v
	}
	if err := d.check(patch); err != nil {
		return store.Group{}, err
	}
	return d.store.UpdateGroup(ctx, id, patch)
}

// DeleteGroup removes a group and every contact's reference to it.
func (d *Directory) DeleteGroup(ctx context.Context, id string) (bool, error) {
	return d.store.DeleteGroup(ctx, id)
}

// Resync recomputes ContactCount for the given groups, or for every group
// when none are given. Unknown ids are ignored.
func (d *Directory) Resync(ctx context.Context, groupIDs ...string) error {
	if len(groupIDs) == 0 {
		groups, err := d.store.ListGroups(ctx)
		if err != nil {
			return err
		}
		for _, g := range groups {
			groupIDs = append(groupIDs, g.ID)
		}
	}
	for _, id := range groupIDs {
		count, err := d.store.RecomputeContactCount(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to resync group %s: %w", id, err)
		}
		d.logger.Debug("group resynced", logging.Group(id), slog.Int("contact_count", count))
	}
	return nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
