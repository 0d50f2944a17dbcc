package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/doccrawl/internal/fileutil"
	"github.com/nao1215/doccrawl/internal/model"
)

// FileName is the name of the state file inside the output directory.
const FileName = ".doccrawl_state.json"

var (
	// ErrNoState is returned by Load when no state file exists.
	ErrNoState = errors.New("no saved crawl state")

	// ErrStateCorrupt is returned by Load when the state file cannot be
	// decoded or violates its invariants. Callers start a fresh crawl.
	ErrStateCorrupt = errors.New("crawl state file is corrupt")
)

// file is the on-disk representation of model.CrawlState.
type file struct {
	BaseURL   string                `json:"base_url"`
	Timestamp time.Time             `json:"timestamp"`
	Visited   []string              `json:"visited"`
	Queue     []model.QueueItem     `json:"queue"`
	Failed    []model.FailureRecord `json:"failed"`
}

// Store reads and writes the state file of one output directory.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore returns a Store for the state file in outputDir.
func NewStore(outputDir string) *Store {
	return &Store{
		path: filepath.Join(outputDir, FileName),
		now:  time.Now,
	}
}

// Path returns the location of the state file.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a state file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the state file.
//
// Queue entries that are already visited or failed, and duplicate queue
// entries, are dropped. A URL recorded both as visited and failed is kept as
// visited.
func (s *Store) Load() (*model.CrawlState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	if f.BaseURL == "" {
		return nil, fmt.Errorf("%w: missing base_url", ErrStateCorrupt)
	}

	st := model.NewCrawlState(f.BaseURL)
	st.Timestamp = f.Timestamp

	for _, u := range f.Visited {
		if u != "" {
			st.Visited[u] = struct{}{}
		}
	}
	for _, r := range f.Failed {
		if r.URL == "" {
			continue
		}
		if _, ok := st.Visited[r.URL]; ok {
			continue
		}
		st.Failed[r.URL] = r
	}

	queued := make(map[string]struct{}, len(f.Queue))
	for _, item := range f.Queue {
		if item.URL == "" {
			continue
		}
		if item.Depth < 0 {
			return nil, fmt.Errorf("%w: negative depth for %s", ErrStateCorrupt, item.URL)
		}
		if _, ok := st.Visited[item.URL]; ok {
			continue
		}
		if _, ok := st.Failed[item.URL]; ok {
			continue
		}
		if _, ok := queued[item.URL]; ok {
			continue
		}
		queued[item.URL] = struct{}{}
		st.Queue = append(st.Queue, item)
	}

	return st, nil
}

// Checkpoint atomically replaces the state file with st.
// The Timestamp of st is not modified; the written timestamp is the current
// time.
func (s *Store) Checkpoint(st *model.CrawlState) error {
	if st == nil {
		return errors.New("nil crawl state")
	}

	f := file{
		BaseURL:   st.BaseURL,
		Timestamp: s.now().UTC(),
		Visited:   st.VisitedList(),
		Queue:     st.Queue,
		Failed:    st.FailedList(),
	}
	if f.Queue == nil {
		f.Queue = []model.QueueItem{}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode crawl state: %w", err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(s.path, data, fileutil.FilePerm); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Clear removes the state file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
