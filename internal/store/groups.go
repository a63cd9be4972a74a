package store

import (
	"context"
	"strings"
	"time"
)

// DefaultGroups returns the groups seeded into an empty store.
func DefaultGroups(now time.Time) []Group {
	return []Group{
		{ID: "1", Name: "Students", Description: "Student contacts", Icon: "🎓", CreatedAt: now},
		{ID: "2", Name: "Clients", Description: "Client contacts", Icon: "💼", CreatedAt: now},
		{ID: "3", Name: "Admins", Description: "Admin contacts", Icon: "🔐", CreatedAt: now},
	}
}

// ListGroups returns all groups. The first read of a store that has never
// held groups persists and returns DefaultGroups. An explicitly empty list is
// left empty.
func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.loadGroups(ctx)
	s.record(ctx, CollectionGroups, "list", err)
	return groups, err
}

// GetGroup returns the group with the given id.
func (s *Store) GetGroup(ctx context.Context, id string) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups, err := s.loadGroups(ctx)
	if err != nil {
		return Group{}, err
	}
	for _, g := range groups {
		if g.ID == id {
			return g, nil
		}
	}
	return Group{}, ErrNotFound
}

// AddGroup appends a new group with a zero contact count.
func (s *Store) AddGroup(ctx context.Context, in GroupInput) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.loadGroups(ctx)
	if err != nil {
		s.record(ctx, CollectionGroups, "add", err)
		return Group{}, err
	}
	g := Group{
		ID:          s.newID(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Icon:        in.Icon,
		CreatedAt:   s.now(),
	}
	groups = append(groups, g)
	err = save(ctx, s.kv, KeyGroups, groups)
	s.record(ctx, CollectionGroups, "add", err)
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

// UpdateGroup merges patch into the group with the given id.
func (s *Store) UpdateGroup(ctx context.Context, id string, patch GroupPatch) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.mutateGroup(ctx, id, func(g *Group) {
		if patch.Name != nil {
			g.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			g.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Icon != nil {
			g.Icon = *patch.Icon
		}
	})
	s.record(ctx, CollectionGroups, "update", err)
	return g, err
}

// DeleteGroup removes the group and strips its id from every contact. The
// contacts are written before the groups. found is false when no such group
// existed, in which case nothing is written.
func (s *Store) DeleteGroup(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.loadGroups(ctx)
	if err != nil {
		s.record(ctx, CollectionGroups, "delete", err)
		return false, err
	}
	kept := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(groups) {
		s.record(ctx, CollectionGroups, "delete", nil)
		return false, nil
	}

	contacts, err := s.loadContacts(ctx)
	if err != nil {
		s.record(ctx, CollectionGroups, "delete", err)
		return false, err
	}
	changed := false
	for i := range contacts {
		if !contacts[i].InGroup(id) {
			continue
		}
		ids := make([]string, 0, len(contacts[i].GroupIDs)-1)
		for _, gid := range contacts[i].GroupIDs {
			if gid != id {
				ids = append(ids, gid)
			}
		}
		contacts[i].GroupIDs = ids
		changed = true
	}
	if changed {
		if err := save(ctx, s.kv, KeyContacts, contacts); err != nil {
			s.record(ctx, CollectionGroups, "delete", err)
			return false, err
		}
	}

	err = save(ctx, s.kv, KeyGroups, kept)
	s.record(ctx, CollectionGroups, "delete", err)
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecomputeContactCount sets the group's ContactCount to the number of
// contacts currently listing it. Returns ErrNotFound for an unknown group.
func (s *Store) RecomputeContactCount(ctx context.Context, groupID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts, err := s.loadContacts(ctx)
	if err != nil {
		s.record(ctx, CollectionGroups, "recount", err)
		return 0, err
	}
	count := len(membersOf(contacts, groupID))
	_, err = s.mutateGroup(ctx, groupID, func(g *Group) {
		g.ContactCount = count
	})
	s.record(ctx, CollectionGroups, "recount", err)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// mutateGroup applies fn to the group with the given id and saves the
// collection. Caller holds s.mu.
func (s *Store) mutateGroup(ctx context.Context, id string, fn func(*Group)) (Group, error) {
	groups, err := s.loadGroups(ctx)
	if err != nil {
		return Group{}, err
	}
	for i := range groups {
		if groups[i].ID != id {
			continue
		}
		fn(&groups[i])
		if err := save(ctx, s.kv, KeyGroups, groups); err != nil {
			return Group{}, err
		}
		return groups[i], nil
	}
	return Group{}, ErrNotFound
}

// loadGroups reads the groups, seeding the defaults on first use.
func (s *Store) loadGroups(ctx context.Context) ([]Group, error) {
	groups, found, err := load[Group](ctx, s.kv, KeyGroups)
	if err != nil {
		return nil, err
	}
	if !found {
		groups = DefaultGroups(s.now())
		if err := save(ctx, s.kv, KeyGroups, groups); err != nil {
			return nil, err
		}
	}
	if groups == nil {
		groups = []Group{}
	}
	return groups, nil
}
