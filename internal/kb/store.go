package kb

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/fixtures"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

const collectionName = "incidents"

// defaultResults is the number of notes returned when the config does
// not say otherwise.
const defaultResults = 3

// Config controls the knowledge base.
type Config struct {
	// Path persists the collection on disk. Empty keeps it in memory.
	Path string
	// Results is the maximum number of notes per lookup.
	Results int
}

// Note is one retrieved knowledge base entry.
type Note struct {
	ID      string
	Title   string
	Content string
	Score   float32
}

// Store is a chromem-backed note collection.
type Store struct {
	coll    *chromem.Collection
	results int
	logger  *logging.Logger
}

// New opens the knowledge base. A nil embedder uses the local hashing
// embedder.
func New(cfg Config, embedder chromem.EmbeddingFunc, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if embedder == nil {
		embedder = HashEmbedding()
	}
	results := cfg.Results
	if results <= 0 {
		results = defaultResults
	}

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating knowledge base directory: %w", err)
		}
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("opening knowledge base: %w", err)
		}
	}

	coll, err := db.GetOrCreateCollection(collectionName, nil, embedder)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", collectionName, err)
	}

	return &Store{
		coll:    coll,
		results: results,
		logger:  logger,
	}, nil
}

// Seed loads the embedded notes into an empty collection. A persisted
// collection that already has documents is left alone.
func (s *Store) Seed(ctx context.Context) error {
	if s.coll.Count() > 0 {
		return nil
	}

	notes, err := fixtures.KBNotes()
	if err != nil {
		return fmt.Errorf("reading embedded notes: %w", err)
	}

	docs := make([]chromem.Document, 0, len(notes))
	for name, content := range notes {
		docs = append(docs, chromem.Document{
			ID:      name,
			Content: string(content),
			Metadata: map[string]string{
				"source": name,
				"title":  noteTitle(string(content)),
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}

	if err := s.coll.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("seeding knowledge base: %w", err)
	}

	s.logger.Debug(ctx, "seeded knowledge base", zap.Int("notes", len(docs)))
	return nil
}

// Query returns the notes most similar to text, best first.
func (s *Store) Query(ctx context.Context, text string) ([]Note, error) {
	n := s.results
	if count := s.coll.Count(); n > count {
		// chromem rejects asking for more results than documents.
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := s.coll.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge base: %w", err)
	}

	notes := make([]Note, 0, len(results))
	for _, r := range results {
		notes = append(notes, Note{
			ID:      r.ID,
			Title:   r.Metadata["title"],
			Content: r.Content,
			Score:   r.Similarity,
		})
	}
	return notes, nil
}

// Count reports the number of stored notes.
func (s *Store) Count() int {
	return s.coll.Count()
}

// noteTitle extracts the first markdown heading, falling back to the
// first non-empty line.
func noteTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(line, "# "))
	}
	return ""
}
