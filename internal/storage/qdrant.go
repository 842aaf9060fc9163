package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/rag-indexer/internal/document"
)

// Defaults for the qdrant backend.
const (
	DefaultQdrantHost       = "localhost"
	DefaultQdrantPort       = 6334
	DefaultQdrantCollection = "rag_chunks"
	DefaultQdrantDimensions = 768
)

// contentVectorName is the named vector carrying chunk embeddings.
const contentVectorName = "content"

// QdrantConfig configures the qdrant backend.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	// Dimensions is the embedding size the collection is created with.
	Dimensions int
}

// QdrantStore wraps the qdrant client with connection management and a
// health check at construction.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dims       int
}

var _ Store = (*QdrantStore)(nil)

// NewQdrantStore connects to qdrant, verifies health with retry, and
// ensures the chunk collection exists. Fails fast if qdrant is unreachable.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultQdrantHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultQdrantPort
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultQdrantCollection
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultQdrantDimensions
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dimensions,
	}

	ctx := context.Background()
	if err := s.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

// healthCheckWithRetry retries the health check with exponential backoff:
// 500ms initial, 10s max interval, 30s max elapsed.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// ensureCollection creates the chunk collection if it does not exist.
// Idempotent.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			contentVectorName: {
				Size:     uint64(s.dims),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Index the provenance fields loaders always set, so filtered search
	// does not fall back to a full scan.
	for _, field := range []string{"path", "type", "name"} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}

	return nil
}

// Add upserts documents as points, batched in groups of 100 with retry.
func (s *QdrantStore) Add(ctx context.Context, docs []document.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	for i, vec := range vectors {
		if len(vec) != s.dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(vec), s.dims)
		}
	}

	const batchSize = 100
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for j := i; j < end; j++ {
			payload := map[string]any{"content": docs[j].Content}
			for k, v := range docs[j].Metadata {
				if k == "content" {
					continue
				}
				payload[k] = v
			}

			points = append(points, &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					contentVectorName: qdrant.NewVector(vectors[j]...),
				}),
				Payload: qdrant.NewValueMap(payload),
			})
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs an upsert with exponential backoff.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search performs a vector similarity query, best matches first.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]document.Scored, error) {
	if len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dims)
	}

	var qf *qdrant.Filter
	if len(filter) > 0 {
		must := make([]*qdrant.Condition, 0, len(filter))
		for key, value := range filter {
			cond, err := matchCondition(key, value)
			if err != nil {
				return nil, err
			}
			must = append(must, cond)
		}
		qf = &qdrant.Filter{Must: must}
	}

	vectorName := contentVectorName
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          &vectorName,
		Filter:         qf,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	scored := make([]document.Scored, 0, len(results))
	for _, result := range results {
		doc := document.Document{Metadata: map[string]any{}}
		for key, value := range result.Payload {
			if key == "content" {
				doc.Content = value.GetStringValue()
				continue
			}
			doc.Metadata[key] = fromQdrantValue(value)
		}
		scored = append(scored, document.Scored{
			Document: doc,
			Score:    float64(result.Score),
		})
	}

	return scored, nil
}

// matchCondition converts a filter entry into a qdrant match condition.
func matchCondition(key string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(key, v), nil
	case bool:
		return qdrant.NewMatchBool(key, v), nil
	case int:
		return qdrant.NewMatchInt(key, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(key, v), nil
	default:
		return nil, fmt.Errorf("unsupported filter value type %T for %q", value, key)
	}
}

// fromQdrantValue converts a qdrant payload value back to a metadata scalar.
func fromQdrantValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return int(kind.IntegerValue)
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

// Count returns the number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return int(collection.GetPointsCount()), nil
}

// Close closes the client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
