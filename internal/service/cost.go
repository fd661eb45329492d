package service

import "unicode/utf8"

const (
	// SegmentSize is the number of content units covered by one credit per
	// recipient.
	SegmentSize = 160

	// MaxContentLength bounds message content.
	MaxContentLength = 1600
)

// ContentSegments returns the number of billing segments the content spans.
func ContentSegments(content string) int64 {
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return 0
	}

	return int64((n + SegmentSize - 1) / SegmentSize)
}

// MessageCost prices a message in whole credits. It must be computed over the
// final deduplicated recipient set and the current content; costing a stale
// snapshot over- or under-charges the account.
func MessageCost(content string, recipientCount int) int64 {
	return ContentSegments(content) * int64(recipientCount)
}
