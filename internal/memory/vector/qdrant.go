package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"sentinel/internal/core"
)

// Qdrant is a Store backed by a Qdrant collection.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int
	metric     string
}

// NewQdrant connects to a Qdrant instance addressed by dsn (gRPC, default
// port 6334) and ensures the target collection exists with the given
// dimensionality and distance metric ("cosine", "l2"/"euclidean",
// "ip"/"dot", or "manhattan"; defaults to cosine). An API key may be
// supplied via the DSN's "api_key" query parameter.
func NewQdrant(ctx context.Context, dsn, collection string, dimensions int, metric string) (*Qdrant, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := parsed.Port()
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant dsn: %w", err)
	}

	cfg := &qdrant.Config{Host: host, Port: port}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	q := &Qdrant{
		client:     client,
		collection: collection,
		dimension:  dimensions,
		metric:     strings.ToLower(strings.TrimSpace(metric)),
	}
	if err := q.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return q, nil
}

func (q *Qdrant) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	if q.dimension <= 0 {
		return fmt.Errorf("qdrant requires dimensions > 0")
	}

	var distance qdrant.Distance
	switch q.metric {
	case "l2", "euclidean":
		distance = qdrant.Distance_Euclid
	case "ip", "dot":
		distance = qdrant.Distance_Dot
	case "manhattan":
		distance = qdrant.Distance_Manhattan
	default:
		distance = qdrant.Distance_Cosine
	}

	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: distance,
		}),
	})
}

// Upsert implements Store. Since a MessageId is always a UUID, it maps
// directly onto Qdrant's point id with no rehashing required.
func (q *Qdrant) Upsert(ctx context.Context, id core.MessageId, embedding []float32, metadata map[string]string) error {
	if len(embedding) != q.dimension {
		return &ErrDimensionMismatch{Expected: q.dimension, Actual: len(embedding)}
	}

	payload := make(map[string]any, len(metadata))
	for k, v := range metadata {
		payload[k] = v
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(id.String()),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	return err
}

// Delete implements Store.
func (q *Qdrant) Delete(ctx context.Context, id core.MessageId) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(id.String())),
	})
	return err
}

// Search implements Store.
func (q *Qdrant) Search(ctx context.Context, query []float32, limit int) ([]Result, error) {
	if len(query) != q.dimension {
		return nil, &ErrDimensionMismatch{Expected: q.dimension, Actual: len(query)}
	}
	if limit <= 0 {
		limit = 10
	}
	vec := make([]float32, len(query))
	copy(vec, query)

	lim := uint64(limit)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		metadata := make(map[string]string)
		if hit.Payload != nil {
			for k, v := range hit.Payload {
				metadata[k] = v.GetStringValue()
			}
		}
		id, err := core.ParseMessageId(hit.Id.GetUuid())
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			ID:       id,
			Score:    hit.Score,
			Metadata: metadata,
		})
	}
	return results, nil
}

// Dimension implements Store.
func (q *Qdrant) Dimension() int { return q.dimension }

// Close releases the underlying gRPC client.
func (q *Qdrant) Close() error { return q.client.Close() }

var _ Store = (*Qdrant)(nil)
