package rag

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/logger"
)

const (
	// CollectionName is the Qdrant collection holding receipt documents.
	CollectionName = "receipts"

	// VectorSize matches the embedding model's output dimension.
	VectorSize = 1536
)

// SearchResult is one semantically similar receipt document.
type SearchResult struct {
	ID         string
	Document   string
	Vendor     string
	Similarity float32
}

// Index is the vector store for receipt documents, backed by Qdrant over
// gRPC. Embeddings come from the injected Embedder.
type Index struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	embedder    Embedder
}

// NewIndex connects to Qdrant at addr ("host:port").
func NewIndex(addr string, embedder Embedder) (*Index, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("NewIndex: connect to qdrant: %w", err)
	}
	return &Index{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		embedder:    embedder,
	}, nil
}

// Close releases the gRPC connection.
func (ix *Index) Close() {
	if ix.conn != nil {
		ix.conn.Close()
	}
}

// InitCollection ensures the receipts collection exists.
func (ix *Index) InitCollection(ctx context.Context) error {
	info, err := ix.collections.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: CollectionName,
	})
	if err == nil && info != nil {
		return nil
	}

	_, err = ix.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     VectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("InitCollection: create collection: %w", err)
	}
	return nil
}

// IndexReceipt renders the receipt into a document, embeds it and upserts
// it into the collection, keyed by the receipt id.
func (ix *Index) IndexReceipt(ctx context.Context, r *domain.Receipt, items []domain.LineItem) error {
	document := RenderDocument(r, items)

	vector, err := ix.embedder.Embed(ctx, document)
	if err != nil {
		return fmt.Errorf("IndexReceipt: embedding document: %w", err)
	}

	wait := true
	_, err = ix.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: CollectionName,
		Wait:           &wait,
		Points: []*pb.PointStruct{
			{
				Id: &pb.PointId{
					PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
				},
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: vector},
					},
				},
				Payload: map[string]*pb.Value{
					"vendor":   {Kind: &pb.Value_StringValue{StringValue: r.VendorName}},
					"category": {Kind: &pb.Value_StringValue{StringValue: r.Category}},
					"total":    {Kind: &pb.Value_DoubleValue{DoubleValue: r.TotalAmount}},
					"document": {Kind: &pb.Value_StringValue{StringValue: document}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("IndexReceipt: qdrant upsert: %w", err)
	}
	return nil
}

// Search returns up to limit receipt documents ranked by similarity.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	vector, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Search: embedding query: %w", err)
	}

	resp, err := ix.points.Search(ctx, &pb.SearchPoints{
		CollectionName: CollectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		// Without this only ids and scores come back.
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Search: qdrant search: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Result))
	for _, point := range resp.Result {
		res := SearchResult{Similarity: point.Score}
		if uid := point.Id.GetUuid(); uid != "" {
			res.ID = uid
		}
		if val, ok := point.Payload["document"]; ok {
			res.Document = val.GetStringValue()
		}
		if val, ok := point.Payload["vendor"]; ok {
			res.Vendor = val.GetStringValue()
		}
		results = append(results, res)
	}
	return results, nil
}

// ContextForQuery searches the index and renders the hits into a context
// string for the response generator. Retrieval failures degrade to the
// empty-context fallback instead of failing the request.
func (ix *Index) ContextForQuery(ctx context.Context, query string, limit int) string {
	results, err := ix.Search(ctx, query, limit)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("vector search failed, continuing without context")
		return RenderContext(nil)
	}
	return RenderContext(results)
}
