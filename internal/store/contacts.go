package store

import (
	"context"
	"strings"
)

// ListContacts returns all contacts in insertion order.
func (s *Store) ListContacts(ctx context.Context) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts, err := s.loadContacts(ctx)
	s.record(ctx, CollectionContacts, "list", err)
	return contacts, err
}

// GetContact returns the contact with the given id.
func (s *Store) GetContact(ctx context.Context, id string) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts, err := s.loadContacts(ctx)
	if err != nil {
		return Contact{}, err
	}
	for _, c := range contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

// AddContact appends a new contact. Group counts are not touched here.
func (s *Store) AddContact(ctx context.Context, in ContactInput) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts, err := s.loadContacts(ctx)
	if err != nil {
		s.record(ctx, CollectionContacts, "add", err)
		return Contact{}, err
	}
	c := Contact{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		GroupIDs:  normalizeGroupIDs(in.GroupIDs),
		CreatedAt: s.now(),
	}
	contacts = append(contacts, c)
	err = save(ctx, s.kv, KeyContacts, contacts)
	s.record(ctx, CollectionContacts, "add", err)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

// UpdateContact merges patch into the contact with the given id.
func (s *Store) UpdateContact(ctx context.Context, id string, patch ContactPatch) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts, err := s.loadContacts(ctx)
	if err != nil {
		s.record(ctx, CollectionContacts, "update", err)
		return Contact{}, err
	}
	idx := -1
	for i := range contacts {
		if contacts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.record(ctx, CollectionContacts, "update", ErrNotFound)
		return Contact{}, ErrNotFound
	}

	c := &contacts[idx]
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		c.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Phone != nil {
		c.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.GroupIDs != nil {
		c.GroupIDs = normalizeGroupIDs(*patch.GroupIDs)
	}

	err = save(ctx, s.kv, KeyContacts, contacts)
	s.record(ctx, CollectionContacts, "update", err)
	if err != nil {
		return Contact{}, err
	}
	return *c, nil
}

// DeleteContact removes the contact with the given id. found is false when no
// such contact existed, in which case nothing is written.
func (s *Store) DeleteContact(ctx context.Context, id string) (Contact, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts, err := s.loadContacts(ctx)
	if err != nil {
		s.record(ctx, CollectionContacts, "delete", err)
		return Contact{}, false, err
	}
	var removed Contact
	found := false
	kept := contacts[:0]
	for _, c := range contacts {
		if c.ID == id && !found {
			removed, found = c, true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		s.record(ctx, CollectionContacts, "delete", nil)
		return Contact{}, false, nil
	}
	err = save(ctx, s.kv, KeyContacts, kept)
	s.record(ctx, CollectionContacts, "delete", err)
	if err != nil {
		return Contact{}, false, err
	}
	return removed, true, nil
}

// ContactsOfGroup returns the contacts whose GroupIDs contain groupID.
func (s *Store) ContactsOfGroup(ctx context.Context, groupID string) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts, err := s.loadContacts(ctx)
	if err != nil {
		return nil, err
	}
	return membersOf(contacts, groupID), nil
}

func membersOf(contacts []Contact, groupID string) []Contact {
	var out []Contact
	for _, c := range contacts {
		if c.InGroup(groupID) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) loadContacts(ctx context.Context) ([]Contact, error) {
	contacts, _, err := load[Contact](ctx, s.kv, KeyContacts)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []Contact{}
	}
	return contacts, nil
}
