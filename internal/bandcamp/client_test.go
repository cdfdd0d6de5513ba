// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package bandcamp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	cfg.MaxRetries = 2
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

const itemPage = `<html><body>
	<div id="pagedata" data-blob='{"tralbum_data":{"tralbum_id":777}}'></div>
	<div id="collectors-data" data-blob='{"thumbs":[{"username":"alice"},{"username":"bob"}]}'></div>
	<a class="tag" href="/tag/rock">rock</a>
	<a class="tag" href="/tag/guitar">guitar</a>
</body></html>`

func TestListSupporters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(itemPage))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.ListSupporters(context.Background(), server.URL+"/album/x")
	if err != nil {
		t.Fatalf("ListSupporters() error: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "alice" || string(got[1]) != "bob" {
		t.Errorf("ListSupporters() = %v, want [alice bob]", got)
	}
}

func TestFetchTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(itemPage))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.FetchTags(context.Background(), server.URL+"/album/x")
	if err != nil {
		t.Fatalf("FetchTags() error: %v", err)
	}
	if len(got) != 2 || got[0] != "rock" || got[1] != "guitar" {
		t.Errorf("FetchTags() = %v, want [rock guitar]", got)
	}
}

func TestFetchTagsCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(itemPage))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	for i := 0; i < 2; i++ {
		if _, err := client.FetchTags(context.Background(), server.URL+"/album/x"); err != nil {
			t.Fatalf("FetchTags() call %d error: %v", i+1, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (second fetch should be cached)", hits.Load())
	}
}

func TestResolveItemID(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		want    string
		wantErr bool
	}{
		{
			name: "album page",
			page: itemPage,
			want: "777",
		},
		{
			name: "track page resolves to parent album",
			page: `<html><body><div id="pagedata" data-blob='{"tralbum_data":{"tralbum_id":555},"fan_tralbum_data":{"album_id":999}}'></div></body></html>`,
			want: "999",
		},
		{
			name:    "no tralbum id",
			page:    `<html><body><div id="pagedata" data-blob='{}'></div></body></html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.page))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			got, err := client.ResolveItemID(context.Background(), server.URL+"/album/x")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveItemID() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveItemID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchCollectionPaginates(t *testing.T) {
	fanPage := `<html><body><div id="pagedata" data-blob='{
		"fan_data":{"fan_id":42},
		"collection_data":{"item_count":3,"last_token":"tok1","sequence":["k1","k2"]},
		"item_cache":{"collection":{
			"k1":{"item_id":1,"item_title":"First","band_name":"Band A","item_url":"https://a.example/1"},
			"k2":{"item_id":2,"album_id":20,"item_title":"Second","band_name":"Band B","item_url":"https://b.example/2"}
		}}
	}'></div></body></html>`

	var apiCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/somefan", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fanPage))
	})
	mux.HandleFunc("/api/fancollection/1/collection_items", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("collection API called with %s, want POST", r.Method)
		}
		var req collectionItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.FanID != 42 || req.OlderThanToken != "tok1" {
			t.Errorf("request = %+v, want fan 42 token tok1", req)
		}
		json.NewEncoder(w).Encode(collectionItemsResponse{
			Items: []cachedItem{
				{ItemID: 3, ItemTitle: "Third", BandName: "Band C", ItemURL: "https://c.example/3"},
			},
			MoreAvailable: false,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.FetchCollection(context.Background(), "somefan", false)
	if err != nil {
		t.Fatalf("FetchCollection() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3: %+v", len(got), got)
	}
	if got[0].ID != "1" || got[0].Title != "First" {
		t.Errorf("first item = %+v", got[0])
	}
	if got[1].ID != "20" {
		t.Errorf("album id should win over item id: %+v", got[1])
	}
	if got[2].ID != "3" {
		t.Errorf("paginated item = %+v", got[2])
	}
	if apiCalls.Load() != 1 {
		t.Errorf("collection API called %d times, want 1", apiCalls.Load())
	}
}

func TestFetchCollectionWishlist(t *testing.T) {
	fanPage := `<html><body><div id="pagedata" data-blob='{
		"fan_data":{"fan_id":42},
		"wishlist_data":{"item_count":1,"sequence":["w1"]},
		"item_cache":{"wishlist":{"w1":{"item_id":9,"item_title":"Wished","band_name":"Band W","item_url":"https://w.example/9"}}}
	}'></div></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fanPage))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.FetchCollection(context.Background(), "somefan", true)
	if err != nil {
		t.Fatalf("FetchCollection() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "9" || got[0].Title != "Wished" {
		t.Errorf("FetchCollection(wishlist) = %+v, want single wished item", got)
	}
}

func TestFetchCollectionPendingSequence(t *testing.T) {
	fanPage := `<html><body><div id="pagedata" data-blob='{
		"fan_data":{"fan_id":42},
		"collection_data":{"item_count":1,"pending_sequence":["k1"]},
		"item_cache":{"collection":{"k1":{"item_id":5,"item_title":"Pending","band_name":"Band P","item_url":"https://p.example/5"}}}
	}'></div></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fanPage))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.FetchCollection(context.Background(), "somefan", false)
	if err != nil {
		t.Fatalf("FetchCollection() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "5" {
		t.Errorf("FetchCollection() = %+v, want pending item", got)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(itemPage))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.FetchTags(context.Background(), server.URL+"/album/x"); err != nil {
		t.Fatalf("FetchTags() after retries error: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3", hits.Load())
	}
}

func TestNoRetryOnNotFound(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.FetchTags(context.Background(), server.URL+"/album/x"); err == nil {
		t.Error("expected error for 404")
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (no retry on 404)", hits.Load())
	}
}

func TestIdentityCookieSent(t *testing.T) {
	var gotCookie atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("identity"); err == nil {
			gotCookie.Store(c.Value)
		}
		w.Write([]byte(itemPage))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Identity = "session-token"
	cfg.RequestsPerSecond = 1000
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	defer client.Close()

	if _, err := client.FetchTags(context.Background(), server.URL+"/album/x"); err != nil {
		t.Fatalf("FetchTags() error: %v", err)
	}
	if got, _ := gotCookie.Load().(string); got != "session-token" {
		t.Errorf("identity cookie = %q, want session-token", got)
	}
}
