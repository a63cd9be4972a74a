package campaign

import "github.com/teemow/mailcampaign/internal/store"

// Stats summarizes campaign history.
type Stats struct {
	Total           int `json:"total"`
	Sent            int `json:"sent"`
	Failed          int `json:"failed"`
	Draft           int `json:"draft"`
	TotalRecipients int `json:"totalRecipients"`
}

// ComputeStats tallies campaigns by status. Recipients are summed over every
// record regardless of status.
func ComputeStats(campaigns []store.Campaign) Stats {
	s := Stats{Total: len(campaigns)}
	for _, c := range campaigns {
		switch c.Status {
		case store.CampaignSent:
			s.Sent++
		case store.CampaignFailed:
			s.Failed++
		case store.CampaignDraft:
			s.Draft++
		}
		s.TotalRecipients += c.RecipientCount
	}
	return s
}
