// Package google provides the OAuth2 configuration and identity lookup used to
// authorize mailcampaign against the Gmail API.
//
// Token persistence lives in package session; this package only knows how to
// build an oauth2.Config for the required scopes and how to resolve the
// authenticated user's email address from the userinfo endpoint.
package google
