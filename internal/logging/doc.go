// Package logging provides structured logging utilities for the mailcampaign application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Handler construction from configuration (text/JSON, level, rotating file)
//   - PII sanitization (email anonymization, token masking)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "campaigns.send")
//	logger.Info("campaign dispatched",
//	    logging.Campaign(title),
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("contact added",
//	    logging.UserHash(email))
//
// # Security Considerations
//
//   - Recipient and user emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
