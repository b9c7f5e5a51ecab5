package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the document database's REST API, scoped to one
// database. Every method is a blocking round trip.
type Client struct {
	endpoint   string
	projectID  string
	apiKey     string
	databaseID string
	http       *http.Client
}

// NewClient creates a client for one project database
func NewClient(endpoint, projectID, apiKey, databaseID string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		projectID:  projectID,
		apiKey:     apiKey,
		databaseID: databaseID,
		http:       &http.Client{Timeout: timeout},
	}
}

// DatabaseID returns the database this client is scoped to
func (c *Client) DatabaseID() string {
	return c.databaseID
}

// do performs one API round trip and decodes the response into out.
// Non-2xx responses become an *APIError carrying the remote status and
// message so callers can classify conflicts and not-founds.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Project", c.projectID)
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = resp.Status
		}
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) collectionsPath() string {
	return fmt.Sprintf("/databases/%s/collections", url.PathEscape(c.databaseID))
}

func (c *Client) collectionPath(collectionID string) string {
	return c.collectionsPath() + "/" + url.PathEscape(collectionID)
}

// ListCollections returns all collections of the database
func (c *Client) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	var result struct {
		Total       int              `json:"total"`
		Collections []CollectionInfo `json:"collections"`
	}
	if err := c.do(ctx, http.MethodGet, c.collectionsPath(), nil, &result); err != nil {
		return nil, err
	}
	return result.Collections, nil
}

// GetCollection returns one collection with its attributes and indexes
func (c *Client) GetCollection(ctx context.Context, collectionID string) (*CollectionInfo, error) {
	var info CollectionInfo
	if err := c.do(ctx, http.MethodGet, c.collectionPath(collectionID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateCollection creates a collection
func (c *Client) CreateCollection(ctx context.Context, collectionID, name string) error {
	body := map[string]string{"collectionId": collectionID, "name": name}
	return c.do(ctx, http.MethodPost, c.collectionsPath(), body, nil)
}

// DeleteCollection deletes a collection and everything under it
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	return c.do(ctx, http.MethodDelete, c.collectionPath(collectionID), nil, nil)
}

func (c *Client) createAttribute(ctx context.Context, collectionID, kind string, params interface{}) error {
	path := c.collectionPath(collectionID) + "/attributes/" + kind
	return c.do(ctx, http.MethodPost, path, params, nil)
}

// CreateStringAttribute creates a string attribute
func (c *Client) CreateStringAttribute(ctx context.Context, collectionID string, params AttributeParams) error {
	return c.createAttribute(ctx, collectionID, "string", params)
}

// CreateIntegerAttribute creates an integer attribute
func (c *Client) CreateIntegerAttribute(ctx context.Context, collectionID string, params AttributeParams) error {
	return c.createAttribute(ctx, collectionID, "integer", params)
}

// CreateFloatAttribute creates a float attribute
func (c *Client) CreateFloatAttribute(ctx context.Context, collectionID string, params AttributeParams) error {
	return c.createAttribute(ctx, collectionID, "float", params)
}

// CreateBooleanAttribute creates a boolean attribute
func (c *Client) CreateBooleanAttribute(ctx context.Context, collectionID string, params AttributeParams) error {
	return c.createAttribute(ctx, collectionID, "boolean", params)
}

// CreateDatetimeAttribute creates a datetime attribute
func (c *Client) CreateDatetimeAttribute(ctx context.Context, collectionID string, params AttributeParams) error {
	return c.createAttribute(ctx, collectionID, "datetime", params)
}

// CreateEmailAttribute creates an email attribute
func (c *Client) CreateEmailAttribute(ctx context.Context, collectionID string, params AttributeParams) error {
	return c.createAttribute(ctx, collectionID, "email", params)
}

// CreateUrlAttribute creates a URL attribute
func (c *Client) CreateUrlAttribute(ctx context.Context, collectionID string, params AttributeParams) error {
	return c.createAttribute(ctx, collectionID, "url", params)
}

// CreateRelationshipAttribute creates a relationship attribute
func (c *Client) CreateRelationshipAttribute(ctx context.Context, collectionID string, params RelationshipParams) error {
	return c.createAttribute(ctx, collectionID, "relationship", params)
}

// DeleteAttribute deletes an attribute by key
func (c *Client) DeleteAttribute(ctx context.Context, collectionID, key string) error {
	path := c.collectionPath(collectionID) + "/attributes/" + url.PathEscape(key)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// EnsureIndex creates an index. The remote service answers 409 when an
// index with the same key exists; callers treat that as success.
func (c *Client) EnsureIndex(ctx context.Context, collectionID string, params IndexParams) error {
	path := c.collectionPath(collectionID) + "/indexes"
	return c.do(ctx, http.MethodPost, path, params, nil)
}

// DeleteIndex deletes an index by key
func (c *Client) DeleteIndex(ctx context.Context, collectionID, key string) error {
	path := c.collectionPath(collectionID) + "/indexes/" + url.PathEscape(key)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) documentsPath(collectionID string) string {
	return c.collectionPath(collectionID) + "/documents"
}

// CreateDocument creates a document with the given id
func (c *Client) CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]interface{}) (*Document, error) {
	body := map[string]interface{}{"documentId": documentID, "data": data}
	var doc Document
	if err := c.do(ctx, http.MethodPost, c.documentsPath(collectionID), body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument fetches a document by id
func (c *Client) GetDocument(ctx context.Context, collectionID, documentID string) (*Document, error) {
	var doc Document
	path := c.documentsPath(collectionID) + "/" + url.PathEscape(documentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument patches a document's data fields
func (c *Client) UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]interface{}) (*Document, error) {
	body := map[string]interface{}{"data": data}
	var doc Document
	path := c.documentsPath(collectionID) + "/" + url.PathEscape(documentID)
	if err := c.do(ctx, http.MethodPatch, path, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument deletes a document by id
func (c *Client) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	path := c.documentsPath(collectionID) + "/" + url.PathEscape(documentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListDocuments returns documents of a collection, optionally filtered by
// field equality. Filters become repeated "filter=field:value" params.
func (c *Client) ListDocuments(ctx context.Context, collectionID string, filters map[string]string) ([]Document, error) {
	path := c.documentsPath(collectionID)
	if len(filters) > 0 {
		q := url.Values{}
		for field, value := range filters {
			q.Add("filter", field+":"+value)
		}
		path += "?" + q.Encode()
	}

	var result struct {
		Total     int        `json:"total"`
		Documents []Document `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Documents, nil
}
