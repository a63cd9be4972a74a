package google

import (
	gmail "google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
)

// CampaignScopes are the Google OAuth scopes needed to send campaigns and
// resolve the sender identity.
var CampaignScopes = []string{
	gmail.GmailSendScope,
	gmail.GmailComposeScope,
	oauth2api.UserinfoEmailScope,
}
