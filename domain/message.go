// Package domain contains core concepts of the drafting utility.
// This file defines the Message entity and its validation rules.
// Messages are immutable once built; validity is reported by predicates.
package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	IDLength      = 10
	MaxBodyLength = 250
	ReadyToSend   = "Message ready to send."
)

var recipientPattern = regexp.MustCompile(`^\+27\d{9}$`)

// Message is a composed text message addressed to a single recipient.
type Message struct {
	id             string
	sequenceNumber int
	recipient      string
	body           string
	hash           string
}

// NewMessage builds a message with a random 10-digit id.
func NewMessage(sequenceNumber int, recipient, body string) Message {
	return NewMessageWithGenerator(RandomIDs, sequenceNumber, recipient, body)
}

// NewMessageWithGenerator builds a message whose id comes from gen.
// Recipient and body are stored as given, valid or not.
func NewMessageWithGenerator(gen IDGenerator, sequenceNumber int, recipient, body string) Message {
	id := gen.NewID()
	return Message{
		id:             id,
		sequenceNumber: sequenceNumber,
		recipient:      recipient,
		body:           body,
		hash:           ComputeHash(id, sequenceNumber, body),
	}
}

// ID is the ten-digit message identifier; the other accessors expose the remaining immutable fields.
func (m Message) ID() string          { return m.id }
func (m Message) SequenceNumber() int { return m.sequenceNumber }
func (m Message) Recipient() string   { return m.recipient }
func (m Message) Body() string        { return m.body }
func (m Message) Hash() string        { return m.hash }

// ComputeHash derives "<id[0:2]>:<seq>:<FIRST><LAST>" from the inputs.
// A single-word body yields the word twice; a blank body yields nothing after the second colon.
func ComputeHash(id string, sequenceNumber int, body string) string {
	prefix := id
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	words := strings.Fields(body)
	var first, last string
	if len(words) > 0 {
		first = strings.ToUpper(words[0])
		last = strings.ToUpper(words[len(words)-1])
	}
	return prefix + ":" + strconv.Itoa(sequenceNumber) + ":" + first + last
}

// IsIDWellFormed only checks the id length, not its digits.
func (m Message) IsIDWellFormed() bool {
	return m.id != "" && len(m.id) == IDLength
}

// IsRecipientValid applies IsValidRecipient to the message recipient.
func (m Message) IsRecipientValid() bool {
	return IsValidRecipient(m.recipient)
}

// IsValidRecipient reports whether recipient is "+27" followed by exactly 9 digits.
func IsValidRecipient(recipient string) bool {
	return recipientPattern.MatchString(recipient)
}

// CheckLength reports whether the body fits in MaxBodyLength characters and,
// if not, by how many characters it overflows.
func (m Message) CheckLength() (bool, int) {
	length := utf8.RuneCountInString(m.body)
	if length <= MaxBodyLength {
		return true, 0
	}
	return false, length - MaxBodyLength
}

// LengthReport is the display text for CheckLength.
func (m Message) LengthReport() string {
	ready, excess := m.CheckLength()
	if ready {
		return ReadyToSend
	}
	return fmt.Sprintf("Message exceeds %d characters by %d, please reduce size.", MaxBodyLength, excess)
}

// Render is the four-line display block shown after a send and in the full report.
func (m Message) Render() string {
	return "Message ID: " + m.id +
		"\nMessage Hash: " + m.hash +
		"\nRecipient: " + m.recipient +
		"\nMessage: " + m.body
}

// RecomputeHash derives the hash again from the current fields.
// It is never applied automatically: records are trusted on read.
func (m Message) RecomputeHash() string {
	return ComputeHash(m.id, m.sequenceNumber, m.body)
}

// HashMatches reports whether the carried hash agrees with RecomputeHash.
func (m Message) HashMatches() bool {
	return m.hash == m.RecomputeHash()
}

// Record is the serialized form of a Message.
// Field names match the message_<id>.json files written by earlier versions.
type Record struct {
	ID             string `json:"messageID"`
	SequenceNumber int    `json:"messageNumber"`
	Recipient      string `json:"recipient"`
	Body           string `json:"message"`
	Hash           string `json:"messageHash"`
}

// ToRecord copies the message, carried hash included, into its serialized form.
func (m Message) ToRecord() Record {
	return Record{
		ID:             m.id,
		SequenceNumber: m.sequenceNumber,
		Recipient:      m.recipient,
		Body:           m.body,
		Hash:           m.hash,
	}
}

// FromRecord restores a message exactly, hash included.
func FromRecord(r Record) Message {
	return Message{
		id:             r.ID,
		sequenceNumber: r.SequenceNumber,
		recipient:      r.Recipient,
		body:           r.Body,
		hash:           r.Hash,
	}
}
