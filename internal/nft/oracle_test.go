package nft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func dasAssetJSON(mint, collection, name string) map[string]any {
	return map[string]any{
		"id": mint,
		"grouping": []map[string]any{
			{"group_key": "collection", "group_value": collection},
		},
		"content": map[string]any{
			"metadata": map[string]any{"name": name},
			"links":    map[string]any{"image": "https://img.test/" + mint},
		},
	}
}

func dasServer(t *testing.T, items []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params struct {
				Page int `json:"page"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Method != "getAssetsByOwner" {
			t.Errorf("method = %q, want getAssetsByOwner", req.Method)
		}

		page := items
		if req.Params.Page > 1 {
			page = nil
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"total": len(page), "items": page},
		})
	}))
}

func TestCheckOwnership_PerContractBreakdown(t *testing.T) {
	srv := dasServer(t, []map[string]any{
		dasAssetJSON("mint1", "CollX", "Garg #1"),
		dasAssetJSON("mint2", "CollY", "Garg #2"),
		dasAssetJSON("mint3", "CollY", "Garg #3"),
		dasAssetJSON("mint4", "CollZ", "Other #1"),
	})
	defer srv.Close()

	oracle := NewOracle(srv.URL, "", "", time.Second, zap.NewNop())

	result, err := oracle.CheckOwnership(context.Background(), "SomeAddress", []string{"CollX", "CollY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.IsVerified {
		t.Error("expected is_verified=true")
	}
	if result.NFTCount != 3 {
		t.Errorf("nft_count = %d, want 3 (CollZ filtered out)", result.NFTCount)
	}
	if result.ByContract["CollX"] != 1 || result.ByContract["CollY"] != 2 {
		t.Errorf("by_contract = %v, want CollX:1 CollY:2", result.ByContract)
	}
	if len(result.NFTs) != 3 {
		t.Fatalf("nfts len = %d, want 3", len(result.NFTs))
	}
	if result.NFTs[0].Mint != "mint1" || result.NFTs[0].Name != "Garg #1" {
		t.Errorf("unexpected first nft: %+v", result.NFTs[0])
	}
}

func TestCheckOwnership_DefaultCollection(t *testing.T) {
	srv := dasServer(t, []map[string]any{
		dasAssetJSON("mint1", "DefaultColl", "Garg #1"),
		dasAssetJSON("mint2", "OtherColl", "Other #1"),
	})
	defer srv.Close()

	oracle := NewOracle(srv.URL, "", "DefaultColl", time.Second, zap.NewNop())

	result, err := oracle.CheckOwnership(context.Background(), "SomeAddress", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NFTCount != 1 {
		t.Errorf("nft_count = %d, want 1", result.NFTCount)
	}
}

func TestCheckOwnership_ZeroTokensIsNotAnError(t *testing.T) {
	srv := dasServer(t, nil)
	defer srv.Close()

	oracle := NewOracle(srv.URL, "", "", time.Second, zap.NewNop())

	result, err := oracle.CheckOwnership(context.Background(), "SomeAddress", []string{"CollX"})
	if err != nil {
		t.Fatalf("zero holdings must not be an error, got: %v", err)
	}
	if result.IsVerified {
		t.Error("expected is_verified=false for zero holdings")
	}
	if result.NFTCount != 0 {
		t.Errorf("nft_count = %d, want 0", result.NFTCount)
	}
}

func TestCheckOwnership_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	oracle := NewOracle(srv.URL, "", "", time.Second, zap.NewNop())

	if _, err := oracle.CheckOwnership(context.Background(), "SomeAddress", nil); err == nil {
		t.Fatal("expected error for 502 from oracle")
	}
}

func TestCheckOwnership_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":-32602,"message":"invalid owner address"}}`)
	}))
	defer srv.Close()

	oracle := NewOracle(srv.URL, "", "", time.Second, zap.NewNop())

	if _, err := oracle.CheckOwnership(context.Background(), "bad", nil); err == nil {
		t.Fatal("expected error for rpc error response")
	}
}
