// Package weaviate adapts an embedded Weaviate instance to the vecstore
// contract. Retrieval still ranks by cosine in-process, so the adapter only
// needs append and a topic-filtered scan that returns stored vectors.
package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"briefly/internal/vecstore"
)

const scanPageSize = 200

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// EnsureSchema is what bootstrap retries until Weaviate is reachable.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, &schemaAdapter{client: s.client})
}

func (s *Store) Append(ctx context.Context, chunks []vecstore.Chunk) error {
	for _, c := range chunks {
		_, err := s.client.Data().Creator().
			WithClassName(className).
			WithProperties(map[string]interface{}{
				"content":    c.Text,
				"topicId":    c.TopicID,
				"chunkId":    c.ID,
				"chunkIndex": c.Meta.Index,
				"url":        c.Meta.URL,
				"domain":     c.Meta.Domain,
			}).
			WithVector(c.Embedding).
			Do(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, topicID string) ([]vecstore.Chunk, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "topicId"},
		{Name: "chunkId"},
		{Name: "chunkIndex"},
		{Name: "url"},
		{Name: "domain"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "vector"}}},
	}

	var out []vecstore.Chunk
	for offset := 0; ; offset += scanPageSize {
		query := s.client.GraphQL().Get().
			WithClassName(className).
			WithLimit(scanPageSize).
			WithOffset(offset).
			WithFields(fields...)
		if topicID != "" {
			query = query.WithWhere(filters.Where().
				WithPath([]string{"topicId"}).
				WithOperator(filters.Equal).
				WithValueString(topicID))
		}

		res, err := query.Do(ctx)
		if err != nil {
			return nil, err
		}
		if len(res.Errors) > 0 {
			return nil, fmt.Errorf("graphql error: %v", res.Errors)
		}

		page := decodeChunks(res.Data)
		out = append(out, page...)
		if len(page) < scanPageSize {
			return out, nil
		}
	}
}

func (s *Store) Count(ctx context.Context, topicID string) (int, error) {
	chunks, err := s.Scan(ctx, topicID)
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Reset clears one topic's chunks, or drops and recreates the whole
// TopicChunk class when topicID is empty.
func (s *Store) Reset(ctx context.Context, topicID string) error {
	if topicID == "" {
		if err := s.client.Schema().ClassDeleter().WithClassName(className).Do(ctx); err != nil {
			return err
		}
		return s.EnsureSchema(ctx)
	}

	where := filters.Where().
		WithPath([]string{"topicId"}).
		WithOperator(filters.Equal).
		WithValueString(topicID)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(className).
		WithWhere(where).
		Do(ctx)
	return err
}

func decodeChunks(data map[string]models.JSONObject) []vecstore.Chunk {
	var out []vecstore.Chunk
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return out
	}
	raw, ok := get[className].([]interface{})
	if !ok {
		return out
	}

	for _, item := range raw {
		props, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var c vecstore.Chunk
		if v, ok := props["content"].(string); ok {
			c.Text = v
		}
		if v, ok := props["topicId"].(string); ok {
			c.TopicID = v
		}
		if v, ok := props["chunkId"].(string); ok {
			c.ID = v
		}
		if v, ok := props["chunkIndex"].(float64); ok {
			c.Meta.Index = int(v)
		}
		if v, ok := props["url"].(string); ok {
			c.Meta.URL = v
		}
		if v, ok := props["domain"].(string); ok {
			c.Meta.Domain = v
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if vec, ok := additional["vector"].([]interface{}); ok {
				c.Embedding = make([]float32, 0, len(vec))
				for _, f := range vec {
					if fv, ok := f.(float64); ok {
						c.Embedding = append(c.Embedding, float32(fv))
					}
				}
			}
		}
		out = append(out, c)
	}
	return out
}

type schemaAdapter struct {
	client *weaviate.Client
}

func (a *schemaAdapter) ClassExists(ctx context.Context, className string) (bool, error) {
	return a.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (a *schemaAdapter) CreateClass(ctx context.Context, class *models.Class) error {
	return a.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (a *schemaAdapter) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return a.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
}

func (a *schemaAdapter) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return a.client.Schema().PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}
