package graph

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryClient_RecordsAndResponds(t *testing.T) {
	client := NewMemoryClient().On("MATCH (a:Account", func(params map[string]any) (Result, error) {
		return Result{Records: []Record{{"id": params["accountId"], "count": int64(3)}}}, nil
	})
	ctx := context.Background()

	res, err := client.ExecuteRead(ctx, "MATCH (a:Account {id: $accountId}) RETURN a.id AS id", map[string]any{"accountId": "acc-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 1 || res.Records[0].String("id") != "acc-1" || res.Records[0].Int64("count") != 3 {
		t.Fatalf("unexpected result %+v", res)
	}

	params := map[string]any{"id": "x"}
	if _, err := client.ExecuteWrite(ctx, "MERGE (t:Transaction {id: $id})", params); err != nil {
		t.Fatal(err)
	}
	params["id"] = "mutated"
	writes := client.WriteCalls()
	if len(writes) != 1 || writes[0].Params["id"] != "x" {
		t.Fatalf("expected recorded params to be copied, got %+v", writes)
	}

	client.Reset()
	if len(client.WriteCalls()) != 0 || len(client.ReadCalls()) != 0 {
		t.Fatal("reset must clear recorded statements")
	}
}

func TestMemoryClient_ErrorsAndClose(t *testing.T) {
	boom := errors.New("boom")
	client := NewMemoryClient().WithError(boom).WithConnectivityError(boom)
	ctx := context.Background()

	if _, err := client.ExecuteWrite(ctx, "RETURN 1", nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := client.VerifyConnectivity(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = client.Close(ctx)
	if _, err := client.ExecuteRead(ctx, "RETURN 1", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewNeo4jClient_RequiresURI(t *testing.T) {
	if _, err := NewNeo4jClient(context.Background(), Options{}); !errors.Is(err, ErrMissingURI) {
		t.Fatalf("expected ErrMissingURI, got %v", err)
	}
}
