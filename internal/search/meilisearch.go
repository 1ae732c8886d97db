package search

import (
	"property-appraisal/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "properties",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"address",
		"property_type",
		"classification",
		"owner_id",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"owner_id",
		"property_type",
		"classification",
		"status",
		"market_rating",
		"appraised_value",
		"square_footage",
		"bedrooms",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"appraised_value",
		"square_footage",
		"market_rating",
		"created_at",
	})
	if err != nil {
		return err
	}

	return nil
}

// Document is the flat shape indexed per property. Only completed
// properties are indexed; orphan deletions remove their document.
type Document struct {
	ID             string  `json:"id"`
	OwnerID        string  `json:"owner_id,omitempty"`
	Address        string  `json:"address"`
	PropertyType   string  `json:"property_type,omitempty"`
	Classification string  `json:"classification,omitempty"`
	Status         string  `json:"status"`
	SquareFootage  float64 `json:"square_footage"`
	Bedrooms       int     `json:"bedrooms,omitempty"`
	MarketRating   int     `json:"market_rating"`
	AppraisedValue float64 `json:"appraised_value"`
	CreatedAt      int64   `json:"created_at"`
}

// DocumentFromProperty flattens a property for indexing
func DocumentFromProperty(p *models.Property) Document {
	return Document{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Address:        p.Address,
		PropertyType:   p.PropertyType,
		Classification: p.Classification,
		Status:         string(p.Status),
		SquareFootage:  p.SquareFootage,
		Bedrooms:       p.Bedrooms,
		MarketRating:   p.MarketRating,
		AppraisedValue: p.AppraisedValue,
		CreatedAt:      p.CreatedAt.Unix(),
	}
}

// IndexProperty indexes a single property
func (s *SearchClient) IndexProperty(property *models.Property) error {
	_, err := s.client.Index(s.index).AddDocuments([]Document{DocumentFromProperty(property)})
	return err
}

// RemoveProperty deletes a property's document from the index
func (s *SearchClient) RemoveProperty(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// SearchRequest represents advanced search parameters
type SearchRequest struct {
	Query  string
	Limit  int64
	Offset int64
	Filter []string
	Sort   []string
}

// SearchResult represents search results
type SearchResult struct {
	Hits           []Document
	TotalHits      int64
	ProcessingTime int64
}

// Search searches for properties with basic options
func (s *SearchClient) Search(query string, limit int64) ([]Document, error) {
	result, err := s.AdvancedSearch(SearchRequest{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// AdvancedSearch performs search with filters and sorting
func (s *SearchClient) AdvancedSearch(req SearchRequest) (*SearchResult, error) {
	if req.Limit == 0 {
		req.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if len(req.Filter) > 0 {
		filterStr := ""
		for i, f := range req.Filter {
			if i > 0 {
				filterStr += " AND "
			}
			filterStr += f
		}
		searchReq.Filter = filterStr
	}

	if len(req.Sort) > 0 {
		searchReq.Sort = req.Sort
	}

	searchRes, err := s.client.Index(s.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	documents := make([]Document, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		documents = append(documents, parseDocumentFromHit(hit))
	}

	return &SearchResult{
		Hits:           documents,
		TotalHits:      searchRes.EstimatedTotalHits,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// parseDocumentFromHit converts a search hit to a Document
func parseDocumentFromHit(hit interface{}) Document {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return Document{}
	}
	doc := Document{
		ID:             getString(hitMap, "id"),
		OwnerID:        getString(hitMap, "owner_id"),
		Address:        getString(hitMap, "address"),
		PropertyType:   getString(hitMap, "property_type"),
		Classification: getString(hitMap, "classification"),
		Status:         getString(hitMap, "status"),
	}

	if v, ok := hitMap["square_footage"].(float64); ok {
		doc.SquareFootage = v
	}
	if v, ok := hitMap["bedrooms"].(float64); ok {
		doc.Bedrooms = int(v)
	}
	if v, ok := hitMap["market_rating"].(float64); ok {
		doc.MarketRating = int(v)
	}
	if v, ok := hitMap["appraised_value"].(float64); ok {
		doc.AppraisedValue = v
	}
	if v, ok := hitMap["created_at"].(float64); ok {
		doc.CreatedAt = int64(v)
	}

	return doc
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
