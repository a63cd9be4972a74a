package store

import (
	"context"
	"fmt"
	"strings"
)

// ListCampaigns returns the campaign history, newest first.
func (s *Store) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaigns, err := s.loadCampaigns(ctx)
	s.record(ctx, CollectionCampaigns, "list", err)
	return campaigns, err
}

// GetCampaign returns the campaign with the given id.
func (s *Store) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaigns, err := s.loadCampaigns(ctx)
	if err != nil {
		return Campaign{}, err
	}
	for _, c := range campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return Campaign{}, ErrNotFound
}

// AddCampaign prepends a new record so the history stays newest first.
func (s *Store) AddCampaign(ctx context.Context, in CampaignInput) (Campaign, error) {
	status := in.Status
	if status == "" {
		status = CampaignDraft
	}
	if !status.Valid() {
		return Campaign{}, fmt.Errorf("invalid campaign status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	campaigns, err := s.loadCampaigns(ctx)
	if err != nil {
		s.record(ctx, CollectionCampaigns, "add", err)
		return Campaign{}, err
	}
	c := Campaign{
		ID:             s.newID(),
		Title:          strings.TrimSpace(in.Title),
		Message:        in.Message,
		GroupID:        in.GroupID,
		GroupName:      in.GroupName,
		RecipientCount: in.RecipientCount,
		Status:         status,
		SentAt:         in.SentAt,
		CreatedAt:      s.now(),
	}
	campaigns = append([]Campaign{c}, campaigns...)
	err = save(ctx, s.kv, KeyCampaigns, campaigns)
	s.record(ctx, CollectionCampaigns, "add", err)
	if err != nil {
		return Campaign{}, err
	}
	return c, nil
}

// UpdateCampaign merges patch into the campaign with the given id.
func (s *Store) UpdateCampaign(ctx context.Context, id string, patch CampaignPatch) (Campaign, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return Campaign{}, fmt.Errorf("invalid campaign status %q", *patch.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	campaigns, err := s.loadCampaigns(ctx)
	if err != nil {
		s.record(ctx, CollectionCampaigns, "update", err)
		return Campaign{}, err
	}
	for i := range campaigns {
		if campaigns[i].ID != id {
			continue
		}
		c := &campaigns[i]
		if patch.Title != nil {
			c.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Message != nil {
			c.Message = *patch.Message
		}
		if patch.GroupName != nil {
			c.GroupName = *patch.GroupName
		}
		if patch.RecipientCount != nil {
			c.RecipientCount = *patch.RecipientCount
		}
		if patch.Status != nil {
			c.Status = *patch.Status
		}
		if patch.SentAt != nil {
			sentAt := *patch.SentAt
			c.SentAt = &sentAt
		}
		err = save(ctx, s.kv, KeyCampaigns, campaigns)
		s.record(ctx, CollectionCampaigns, "update", err)
		if err != nil {
			return Campaign{}, err
		}
		return *c, nil
	}
	s.record(ctx, CollectionCampaigns, "update", ErrNotFound)
	return Campaign{}, ErrNotFound
}

// DeleteCampaign removes a campaign record. found is false when no such
// campaign existed.
func (s *Store) DeleteCampaign(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaigns, err := s.loadCampaigns(ctx)
	if err != nil {
		s.record(ctx, CollectionCampaigns, "delete", err)
		return false, err
	}
	kept := make([]Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(campaigns) {
		s.record(ctx, CollectionCampaigns, "delete", nil)
		return false, nil
	}
	err = save(ctx, s.kv, KeyCampaigns, kept)
	s.record(ctx, CollectionCampaigns, "delete", err)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) loadCampaigns(ctx context.Context) ([]Campaign, error) {
	campaigns, _, err := load[Campaign](ctx, s.kv, KeyCampaigns)
	if err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []Campaign{}
	}
	return campaigns, nil
}
