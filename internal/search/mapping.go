package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for paper documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on titles with English stemming
//  2. Abstract matching for topical queries
//  3. Author matching, including diacritic-folded spellings
//  4. Exact keyword matching for arXiv ids and category filters
//  5. Numeric publication timestamps for recency sorting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	// Use English analyzer as default for text fields
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Title - primary search target, boosted at query time
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Abstract - searchable but not stored (too large)
	abstractFieldMapping := bleve.NewTextFieldMapping()
	abstractFieldMapping.Analyzer = en.AnalyzerName
	abstractFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("abstract", abstractFieldMapping)

	// Authors - searchable, stored for result display
	authorsFieldMapping := bleve.NewTextFieldMapping()
	authorsFieldMapping.Analyzer = en.AnalyzerName
	authorsFieldMapping.Store = true
	authorsFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("authors", authorsFieldMapping)

	// Folded author spellings - searchable only
	authorsFoldedFieldMapping := bleve.NewTextFieldMapping()
	authorsFoldedFieldMapping.Analyzer = en.AnalyzerName
	authorsFoldedFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("authors_folded", authorsFoldedFieldMapping)

	// --- Keyword fields (exact match) ---

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// arXiv id - exact lookups like "1706.03762"
	arxivFieldMapping := bleve.NewTextFieldMapping()
	arxivFieldMapping.Analyzer = keyword.Name
	arxivFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("arxiv_id", arxivFieldMapping)

	// Categories - keyword analyzer keeps "cs.LG" intact
	categoriesFieldMapping := bleve.NewTextFieldMapping()
	categoriesFieldMapping.Analyzer = keyword.Name
	categoriesFieldMapping.Store = true
	categoriesFieldMapping.IncludeTermVectors = true // For faceting
	docMapping.AddFieldMappingsAt("categories", categoriesFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	publishedAtFieldMapping := bleve.NewNumericFieldMapping()
	publishedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("published_at", publishedAtFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	// Register the document mapping
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
