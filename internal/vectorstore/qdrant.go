package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig configures the connection to a Qdrant instance.
type QdrantConfig struct {
	Host   string
	Port   int // gRPC port, default 6334
	APIKey string
	UseTLS bool
}

func DefaultQdrantConfig() QdrantConfig {
	return QdrantConfig{Host: "localhost", Port: 6334}
}

// QdrantStore is the Store implementation backed by a real Qdrant
// instance (spec §4.7).
type QdrantStore struct {
	client *qdrant.Client
}

var _ Store = (*QdrantStore)(nil)

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &QdrantStore{client: client}, nil
}

func (s *QdrantStore) Close() error { return s.client.Close() }

// EnsureCollection creates the repo's collection if absent, or recreates
// it (wiping all points) if the stored vector dimension differs from the
// requested one.
func (s *QdrantStore) EnsureCollection(ctx context.Context, repoPath string, dimension int) (bool, error) {
	name := CollectionName(repoPath)

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("vectorstore: check collection %s: %w", name, err)
	}
	if !exists {
		if err := s.createCollection(ctx, name, dimension); err != nil {
			return false, err
		}
		return false, nil
	}

	storedDim, err := s.collectionDimension(ctx, name)
	if err != nil {
		return false, fmt.Errorf("vectorstore: read collection %s info: %w", name, err)
	}
	if storedDim == dimension {
		return false, nil
	}

	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return false, fmt.Errorf("vectorstore: delete stale collection %s: %w", name, err)
	}
	if err := s.createCollection(ctx, name, dimension); err != nil {
		return false, err
	}
	return true, nil
}

func (s *QdrantStore) createCollection(ctx context.Context, name string, dimension int) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", name, err)
	}
	return nil
}

func (s *QdrantStore) collectionDimension(ctx context.Context, name string) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return 0, err
	}
	if info == nil || info.GetConfig() == nil || info.GetConfig().GetParams() == nil {
		return 0, fmt.Errorf("vectorstore: collection %s has no vector params", name)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0, fmt.Errorf("vectorstore: collection %s vectors config is not a single unnamed vector", name)
	}
	return int(params.GetSize()), nil
}

func (s *QdrantStore) Upsert(ctx context.Context, repoPath string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	name := CollectionName(repoPath)

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload := make(map[string]*qdrant.Value, len(p.Payload)+1)
		payload["chunk_id"] = qdrant.NewValueString(p.ChunkID)
		for k, v := range p.Payload {
			val, err := qdrant.NewValue(v)
			if err != nil {
				continue
			}
			payload[k] = val
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(p.ChunkID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert %d points into %s: %w", len(points), name, err)
	}
	return nil
}

func (s *QdrantStore) DeleteByFilePath(ctx context.Context, repoPath, filePath string) error {
	name := CollectionName(repoPath)
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key:   "file_path",
						Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: filePath}},
					},
				},
			},
		},
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete by file_path=%s in %s: %w", filePath, name, err)
	}
	return nil
}

func (s *QdrantStore) DeleteByChunkIDs(ctx context.Context, repoPath string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	name := CollectionName(repoPath)

	ids := make([]*qdrant.PointId, len(chunkIDs))
	for i, id := range chunkIDs {
		ids[i] = &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: PointID(id)}}
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: ids},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete %d points from %s: %w", len(chunkIDs), name, err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, repoPath string, vector []float32, limit int) ([]SearchResult, error) {
	name := CollectionName(repoPath)

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: check collection %s: %w", name, err)
	}
	if !exists {
		return nil, nil
	}

	storedDim, err := s.collectionDimension(ctx, name)
	if err == nil && storedDim != len(vector) {
		return nil, &DimensionMismatchError{Expected: storedDim, Actual: len(vector)}
	}

	resp, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: name,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search %s: %w", name, err)
	}

	results := make([]SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		payload := decodePayload(point.GetPayload())
		chunkID, _ := payload["chunk_id"].(string)
		delete(payload, "chunk_id")
		results = append(results, SearchResult{
			ChunkID: chunkID,
			Score:   point.GetScore(),
			Payload: payload,
		})
	}
	return results, nil
}

func (s *QdrantStore) CountChunks(ctx context.Context, repoPath string) (int, error) {
	name := CollectionName(repoPath)

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: check collection %s: %w", name, err)
	}
	if !exists {
		return 0, nil
	}

	resp, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: name})
	if err != nil {
		return 0, fmt.Errorf("vectorstore: count %s: %w", name, err)
	}
	return int(resp), nil
}

func decodePayload(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		switch v := value.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[key] = v.StringValue
		case *qdrant.Value_IntegerValue:
			out[key] = v.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[key] = v.DoubleValue
		case *qdrant.Value_BoolValue:
			out[key] = v.BoolValue
		case *qdrant.Value_ListValue:
			if v.ListValue != nil {
				list := make([]any, len(v.ListValue.Values))
				for i, item := range v.ListValue.Values {
					if s, ok := item.GetKind().(*qdrant.Value_StringValue); ok {
						list[i] = s.StringValue
					}
				}
				out[key] = list
			}
		}
	}
	return out
}
