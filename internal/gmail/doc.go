// Package gmail sends campaign messages through the Gmail API.
//
// A message is rendered as a minimal RFC 5322 document (From, To, Subject,
// Content-Type, a blank line, then the HTML body), encoded as unpadded
// URL-safe base64 and posted to users.messages.send. There is no retry or
// rate limiting: one Send is one HTTP call and any failure is returned as is.
//
// Example usage:
//
//	client := gmail.NewClient(gmail.Options{})
//	id, err := client.Send(ctx, token, &gmail.Message{
//	    To:       []string{"recipient@example.com"},
//	    Subject:  "Hello",
//	    HTMLBody: "<p>Hi!</p>",
//	})
package gmail
