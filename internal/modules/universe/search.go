package universe

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// SearchIndex is an in-memory full-text index over universe members.
type SearchIndex struct {
	index bleve.Index

	mu         sync.RWMutex
	securities map[string]domain.Security
}

type searchDoc struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// NewSearchIndex builds a memory-only index seeded with securities.
func NewSearchIndex(securities []domain.Security) (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	s := &SearchIndex{
		index:      index,
		securities: make(map[string]domain.Security),
	}
	if err := s.Add(securities...); err != nil {
		return nil, err
	}
	return s, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = false
	doc.AddFieldMappingsAt("ticker", keyword)

	text := bleve.NewTextFieldMapping()
	text.Store = false
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("sector", text)

	indexMapping.DefaultMapping = doc
	return indexMapping
}

// Add indexes or re-indexes securities, keyed by ticker.
func (s *SearchIndex) Add(securities ...domain.Security) error {
	if len(securities) == 0 {
		return nil
	}

	batch := s.index.NewBatch()
	for _, sec := range securities {
		key := strings.ToLower(sec.Ticker)
		if err := batch.Index(sec.Ticker, searchDoc{Ticker: key, Name: sec.Name, Sector: sec.Sector}); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", sec.Ticker, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index securities: %w", err)
	}

	s.mu.Lock()
	for _, sec := range securities {
		s.securities[sec.Ticker] = sec
	}
	s.mu.Unlock()
	return nil
}

// Len returns the number of indexed securities.
func (s *SearchIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.securities)
}

// Search ranks exact ticker matches first, then ticker prefixes, then
// name and sector matches.
func (s *SearchIndex) Search(q string, limit int) ([]domain.Security, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("ticker")
	exact.SetBoost(10)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("ticker")
	prefix.SetBoost(5)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(3)

	namePrefix := bleve.NewPrefixQuery(lower)
	namePrefix.SetField("name")
	namePrefix.SetBoost(2)

	sector := bleve.NewMatchQuery(q)
	sector.SetField("sector")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, prefix, name, namePrefix, sector))
	req.Size = limit

	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Security, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if sec, ok := s.securities[hit.ID]; ok {
			out = append(out, sec)
		}
	}
	return out, nil
}

// Close releases the index.
func (s *SearchIndex) Close() error {
	return s.index.Close()
}
