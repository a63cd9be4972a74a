package campaign

import "strings"

// Template is a ready-made subject and body to start a campaign from.
type Template struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

var builtinTemplates = []Template{
	{
		ID:       "1",
		Name:     "Newsletter Welcome",
		Subject:  "Welcome to Our Newsletter! 🎉",
		Body:     "Hi there!\n\nWelcome to our newsletter. We're excited to have you on board.\n\nStay tuned for updates, tips, and exclusive content.\n\nBest regards,\nThe Team",
		Category: "Welcome",
	},
	{
		ID:       "2",
		Name:     "Event Invitation",
		Subject:  "You're Invited: [Event Name]",
		Body:     "Hello!\n\nWe're thrilled to invite you to [Event Name] on [Date] at [Time].\n\nJoin us for an exciting event where you'll discover [key benefits].\n\nRSVP by [Deadline].\n\nSee you there!\n[Your Name]",
		Category: "Events",
	},
	{
		ID:       "3",
		Name:     "Product Announcement",
		Subject:  "Introducing Our New Product! 🚀",
		Body:     "Hi [Name],\n\nWe're excited to announce the launch of [Product Name]!\n\n[Product Description]\n\nKey features:\n• Feature 1\n• Feature 2\n• Feature 3\n\nLearn more and get started today.\n\nCheers,\n[Your Team]",
		Category: "Announcements",
	},
	{
		ID:       "4",
		Name:     "Monthly Update",
		Subject:  "Your Monthly Update - [Month]",
		Body:     "Hello!\n\nHere's what's new this month:\n\n📊 Updates:\n• Update 1\n• Update 2\n• Update 3\n\n🎯 Upcoming:\n• Event 1\n• Event 2\n\nThank you for being part of our community!\n\nBest,\nThe Team",
		Category: "Updates",
	},
	{
		ID:       "5",
		Name:     "Special Offer",
		Subject:  "Exclusive Offer Just for You! 🎁",
		Body:     "Dear Valued Customer,\n\nWe're offering you an exclusive deal:\n\n[Offer Details]\n\n✅ Save [Percentage]%\n✅ Limited time only\n✅ No minimum purchase\n\nUse code: [PROMO_CODE]\n\nOffer expires [Date].\n\nHappy shopping!\n[Your Brand]",
		Category: "Promotions",
	},
}

// Templates returns a copy of the built-in templates.
func Templates() []Template {
	out := make([]Template, len(builtinTemplates))
	copy(out, builtinTemplates)
	return out
}

// TemplateByID looks up a built-in template by id or case-insensitive name.
func TemplateByID(id string) (Template, bool) {
	for _, t := range builtinTemplates {
		if t.ID == id || equalFold(t.Name, id) {
			return t, true
		}
	}
	return Template{}, false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
