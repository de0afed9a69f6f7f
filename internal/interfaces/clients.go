// Package interfaces defines service contracts for Fundwatch
package interfaces

import "context"

// AMFIClient fetches the daily NAV text feed
type AMFIClient interface {
	// FetchNavFeed retrieves the raw semicolon-delimited NAV feed.
	FetchNavFeed(ctx context.Context) (string, error)
}

// GeminiClient provides access to the Gemini API
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// AnswerFundQuery answers a question grounded strictly in the
	// supplied fund context.
	AnswerFundQuery(ctx context.Context, question, context string) (string, error)
}
