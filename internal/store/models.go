package store

import (
	"strings"
	"time"
)

// Contact is a single addressable recipient.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	GroupIDs  []string  `json:"groupIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// InGroup reports whether the contact is a member of the given group.
func (c Contact) InGroup(groupID string) bool {
	for _, id := range c.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// ContactInput holds the caller-supplied fields of a new contact.
type ContactInput struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone,omitempty"`
	GroupIDs []string `json:"groupIds"`
}

// ContactPatch is a partial update. Nil fields are left untouched.
type ContactPatch struct {
	Name     *string   `json:"name,omitempty" validate:"omitnil,min=1"`
	Email    *string   `json:"email,omitempty" validate:"omitnil,email"`
	Phone    *string   `json:"phone,omitempty"`
	GroupIDs *[]string `json:"groupIds,omitempty"`
}

// Group is a named tag used to partition contacts for targeted sends.
// ContactCount is derived from contact membership and is only ever written
// by RecomputeContactCount.
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Icon         string    `json:"icon"`
	ContactCount int       `json:"contactCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GroupInput holds the caller-supplied fields of a new group.
type GroupInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon"`
}

// GroupPatch is a partial update. Nil fields are left untouched.
type GroupPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitnil,min=1"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// CampaignStatus is the outcome recorded for a campaign.
type CampaignStatus string

const (
	CampaignDraft  CampaignStatus = "draft"
	CampaignSent   CampaignStatus = "sent"
	CampaignFailed CampaignStatus = "failed"
)

// Valid reports whether s is a known status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignSent, CampaignFailed:
		return true
	}
	return false
}

// Campaign is one historical record of a send. GroupName is a snapshot taken
// at send time and is not updated when the group is renamed or deleted.
type Campaign struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	GroupID        string         `json:"groupId"`
	GroupName      string         `json:"groupName"`
	RecipientCount int            `json:"recipientCount"`
	Status         CampaignStatus `json:"status"`
	SentAt         *time.Time     `json:"sentAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// CampaignInput holds the fields of a new campaign record.
type CampaignInput struct {
	Title          string
	Message        string
	GroupID        string
	GroupName      string
	RecipientCount int
	Status         CampaignStatus
	SentAt         *time.Time
}

// CampaignPatch is a partial update. Nil fields are left untouched.
type CampaignPatch struct {
	Title          *string
	Message        *string
	GroupName      *string
	RecipientCount *int
	Status         *CampaignStatus
	SentAt         *time.Time
}

// normalizeGroupIDs trims ids, drops empties and collapses duplicates while
// keeping first-seen order.
func normalizeGroupIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
