//go:generate go run go.uber.org/mock/mockgen -source=disk.go -destination=../mocks/mock_file_store.go -package=mocks
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"quick-chat/domain"
	"quick-chat/domain/mimetypes"
	"regexp"
)

var fileNamePattern = regexp.MustCompile(`^message_\d{10}\.json$`)

type IFileStore interface {
	Save(message domain.Message) (string, error)
	Load() (LoadResult, error)
}

// SkipReason tells why a candidate file was not loaded.
type SkipReason string

const (
	SkipUnreadable SkipReason = "unreadable"
	SkipNotText    SkipReason = "not_text"
	SkipCorrupt    SkipReason = "corrupt_json"
	SkipEmpty      SkipReason = "empty_record"
)

// LoadResult is what a directory scan produced.
// Skipped counts candidate files that could not be loaded, SkippedBy breaks that count down per reason.
type LoadResult struct {
	Messages  []domain.Message
	Skipped   int
	SkippedBy map[SkipReason]int
}

func (r *LoadResult) skip(reason SkipReason) {
	if r.SkippedBy == nil {
		r.SkippedBy = make(map[SkipReason]int)
	}
	r.SkippedBy[reason]++
	r.Skipped++
}

// FileStore keeps one JSON file per stored message in a single directory.
type FileStore struct {
	dir string
	log *slog.Logger
}

func NewFileStore(dir string, log *slog.Logger) FileStore {
	return FileStore{dir: dir, log: log}
}

// FileName is the file a message with the given id is stored under.
func FileName(id string) string {
	return "message_" + id + ".json"
}

// Save writes the message record to <dir>/message_<id>.json and returns the path.
func (s FileStore) Save(message domain.Message) (string, error) {
	bytes, err := json.MarshalIndent(message.ToRecord(), "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, FileName(message.ID()))
	if err = os.WriteFile(path, bytes, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads every message_<10 digits>.json file of the directory in name order.
// Unreadable or malformed files are skipped and counted; only a failure to list
// the directory itself is returned as an error.
func (s FileStore) Load() (LoadResult, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return LoadResult{}, fmt.Errorf("reading %s: %w", s.dir, err)
	}

	var result LoadResult
	for _, entry := range entries {
		if entry.IsDir() || !fileNamePattern.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		message, reason, err := s.loadFile(path)
		if err != nil {
			s.log.Debug(fmt.Sprintf("Skipping %s (%s) : %v", path, reason, err))
			result.skip(reason)
			continue
		}
		result.Messages = append(result.Messages, message)
	}
	return result, nil
}

func (s FileStore) loadFile(path string) (domain.Message, SkipReason, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return domain.Message{}, SkipUnreadable, err
	}
	detected := mimetypes.Detect(bytes)
	if _, ok := mimetypes.MatchesAny(detected, mimetypes.RecordTypes...); !ok {
		return domain.Message{}, SkipNotText, fmt.Errorf("unexpected content type %s", detected)
	}

	var record domain.Record
	if err = json.Unmarshal(bytes, &record); err != nil {
		return domain.Message{}, SkipCorrupt, err
	}
	if record == (domain.Record{}) {
		return domain.Message{}, SkipEmpty, fmt.Errorf("no message record")
	}
	return domain.FromRecord(record), "", nil
}
