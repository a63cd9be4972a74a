package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailcampaign/internal/store"
)

func TestTemplates(t *testing.T) {
	tpls := Templates()
	require.Len(t, tpls, 5)

	names := make([]string, 0, len(tpls))
	for _, tpl := range tpls {
		names = append(names, tpl.Name)
		assert.NotEmpty(t, tpl.Subject)
		assert.NotEmpty(t, tpl.Body)
	}
	assert.Equal(t, []string{"Newsletter Welcome", "Event Invitation", "Product Announcement", "Monthly Update", "Special Offer"}, names)

	tpls[0].Name = "mutated"
	assert.Equal(t, "Newsletter Welcome", Templates()[0].Name)
}

func TestTemplateByID(t *testing.T) {
	tpl, ok := TemplateByID("4")
	require.True(t, ok)
	assert.Equal(t, "Monthly Update", tpl.Name)

	tpl, ok = TemplateByID("special offer")
	require.True(t, ok)
	assert.Equal(t, "Promotions", tpl.Category)

	_, ok = TemplateByID("9")
	assert.False(t, ok)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeIndividual, false},
		{"individual", ModeIndividual, false},
		{" BULK ", ModeBulk, false},
		{"group", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeStats(t *testing.T) {
	got := ComputeStats([]store.Campaign{
		{Status: store.CampaignSent, RecipientCount: 10},
		{Status: store.CampaignSent, RecipientCount: 3},
		{Status: store.CampaignFailed, RecipientCount: 4},
		{Status: store.CampaignDraft},
	})
	assert.Equal(t, Stats{Total: 4, Sent: 2, Failed: 1, Draft: 1, TotalRecipients: 17}, got)
	assert.Equal(t, Stats{}, ComputeStats(nil))
}
