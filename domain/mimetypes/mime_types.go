package mimetypes

import (
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown         MIME = "unknown"
	TextPlain       MIME = "text/plain"
	ApplicationJSON MIME = "application/json"
)

// RecordTypes are the detected types a stored message file may have.
// Short or unusual JSON is sometimes sniffed as plain text, so both are accepted.
var RecordTypes = []MIME{ApplicationJSON, TextPlain}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// MatchesAny returns the first expected type the detected one matches.
func MatchesAny(detected string, expected ...MIME) (MIME, bool) {
	for _, e := range expected {
		if m, ok := Matches(detected, e); ok {
			return m, true
		}
	}
	return Unknown, false
}

// Detect sniffs the content type of bytes already read.
func Detect(content []byte) string {
	return mimetype.Detect(content).String()
}
