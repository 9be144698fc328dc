package domain

import "time"

// Page is a remote page after word replacement, ready to be displayed by a client.
type Page struct {
	// Content is the rewritten document serialized as HTML.
	Content string `json:"content"`
	// Title is the rewritten document title.
	Title string `json:"title"`
	// OriginalURL is the URL exactly as requested by the client.
	OriginalURL string `json:"originalUrl"`
	// FinalURL is the location the content was served from after redirects.
	FinalURL string `json:"finalUrl"`
	// StatusCode is the upstream HTTP status.
	StatusCode int `json:"statusCode"`
	// ContentType is the upstream media type.
	ContentType string `json:"contentType"`
	// Replacements counts the replaced word occurrences.
	Replacements int `json:"replacements"`
	// FetchedAt is when the upstream response was received.
	FetchedAt time.Time `json:"fetchedAt"`
}
