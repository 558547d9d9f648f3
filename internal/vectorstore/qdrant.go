package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/config"
)

// maxMessageSize is the gRPC message cap, sized for large document batches.
const maxMessageSize = 50 * 1024 * 1024

// QdrantStore is a Store backed by Qdrant's native gRPC transport
// (port 6334). Binary protobuf encoding avoids the HTTP layer's payload
// limits during bulk ingestion.
type QdrantStore struct {
	client *qdrant.Client
	cfg    config.VectorStoreConfig
	logger *zap.Logger
}

// NewQdrantStore connects to Qdrant and verifies the server is reachable.
func NewQdrantStore(cfg config.VectorStoreConfig, logger *zap.Logger) (*QdrantStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, cfg.Port)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension required", ErrInvalidConfig)
	}

	if !cfg.UseTLS {
		logger.Warn("qdrant gRPC using plaintext, enable TLS for production",
			zap.String("host", cfg.Host))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey.Value(),
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(maxMessageSize),
				grpc.MaxCallSendMsgSize(maxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &QdrantStore{client: client, cfg: cfg, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: health check: %v", ErrConnectionFailed, err)
	}

	return store, nil
}

// EnsureCollection creates the collection with the configured dimension and
// cosine distance if it is missing.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", ErrOperationFailed, s.cfg.Collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.cfg.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", ErrOperationFailed, s.cfg.Collection, err)
	}

	s.logger.Info("created collection",
		zap.String("collection", s.cfg.Collection),
		zap.Int("dimension", s.cfg.Dimension))
	return nil
}

// Upsert writes points to the collection. Points with existing IDs are
// overwritten, which makes re-ingesting a document idempotent.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: map[string]*qdrant.Value{
				"text":        {Kind: &qdrant.Value_StringValue{StringValue: p.Payload.Text}},
				"source":      {Kind: &qdrant.Value_StringValue{StringValue: p.Payload.Source}},
				"chunk_index": {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(p.Payload.ChunkIndex)}},
			},
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", ErrOperationFailed, len(points), err)
	}
	return nil
}

// Search runs similarity search via the Query API, falling back to the
// legacy Search RPC for servers that predate query_points.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if status.Code(err) == grpccodes.Unimplemented {
		s.logger.Debug("query API unavailable, using legacy search RPC")
		results, err = s.legacySearch(ctx, vector, k)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: searching collection %s: %v", ErrOperationFailed, s.cfg.Collection, err)
	}

	chunks := make([]ScoredChunk, 0, len(results))
	for _, point := range results {
		chunks = append(chunks, scoredChunkFromPoint(point))
	}
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	return chunks, nil
}

// legacySearch issues the pre-1.10 points Search RPC through the raw
// points client.
func (s *QdrantStore) legacySearch(ctx context.Context, vector []float32, k int) ([]*qdrant.ScoredPoint, error) {
	resp, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.cfg.Collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	return resp.GetResult(), nil
}

func scoredChunkFromPoint(point *qdrant.ScoredPoint) ScoredChunk {
	chunk := ScoredChunk{Score: point.GetScore()}
	for key, value := range point.GetPayload() {
		switch key {
		case "text":
			chunk.Text = value.GetStringValue()
		case "source":
			chunk.Source = value.GetStringValue()
		case "chunk_index":
			chunk.ChunkIndex = int(value.GetIntegerValue())
		}
	}
	return chunk
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
