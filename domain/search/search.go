package search

import (
	"strconv"
	"strings"
)

const DefaultLimit = 10

// Query represents the structured parameters of a full-text search over sent messages.
// It decouples the raw console input from what the index needs.
type Query struct {
	RawInput  string // The original input from the user
	Terms     string // The actual text to search in the index
	Recipient string // Optional exact recipient filter
	Limit     int    // Number of results
	Session   string // Restricts hits to one console session when set
}

// NewQuery parses a raw string to extract command-line style arguments.
// Example: /find dinner cake --recipient +27838884567 --limit 5
func NewQuery(input string, defaultLimit int) Query {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	query := Query{
		RawInput: input,
		Limit:    defaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --limit 5 or --recipient +27838884567
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "recipient":
				query.Recipient = val
			case "limit":
				if limit, err := strconv.Atoi(val); err == nil && limit > 0 {
					query.Limit = limit
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

func (q Query) IsEmpty() bool {
	return q.Terms == "" && q.Recipient == ""
}
