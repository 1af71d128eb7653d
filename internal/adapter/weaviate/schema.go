package weaviate

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

const className = "TopicChunk"

// SchemaClient is the slice of the Weaviate client the schema check needs,
// kept narrow so tests can fake it.
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema creates the TopicChunk class if missing and backfills any
// missing properties on an existing class. Vectorizer is "none": vectors
// are computed by the embedding adapter, never by Weaviate.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "topicId", DataType: []string{"string"}},
		{Name: "chunkId", DataType: []string{"string"}},
		{Name: "chunkIndex", DataType: []string{"int"}},
		{Name: "url", DataType: []string{"string"}},
		{Name: "domain", DataType: []string{"string"}},
	}

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "An embedded chunk of fetched source text, partitioned by topic",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(class.Properties))
	for _, p := range class.Properties {
		existing[p.Name] = true
	}
	for _, p := range properties {
		if !existing[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}
	return nil
}
