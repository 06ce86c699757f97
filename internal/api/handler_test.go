package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "keyload.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	run := model.Run{
		ID:        "4f1c2d3e-run",
		Source:    "corpus.txt",
		Strategy:  "pool",
		ChunkSize: 100,
		Chunks:    2,
		StartedAt: start,
		EndedAt:   start.Add(time.Second),
		Totals: model.Snapshot{
			"qwer":   {Left: [5]int{6, 1, 0, 0, 0}, TwoHanded: 3},
			"diktor": {Left: [5]int{5, 0, 0, 0, 0}, TwoHanded: 2},
		},
	}
	chunks := []model.ChunkTotal{
		{ChunkID: 0, Layout: "qwer", Load: 4, Presses: 2},
		{ChunkID: 1, Layout: "qwer", Load: 3, Presses: 2},
	}
	if err := st.InsertRun(context.Background(), run, chunks); err != nil {
		t.Fatalf("insert run: %v", err)
	}
	srv := httptest.NewServer(New(st))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var b bytes.Buffer
	if _, err := b.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b.String()
}

func TestListAndGetRuns(t *testing.T) {
	srv := newServer(t)

	resp, body := get(t, srv.URL+"/api/v1/runs")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var runs []RunResponse
	if err := json.Unmarshal([]byte(body), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Best != "diktor" || runs[0].Totals != nil {
		t.Fatalf("unexpected runs %+v", runs)
	}

	resp, body = get(t, srv.URL+"/api/v1/runs/4f1c")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var run RunResponse
	if err := json.Unmarshal([]byte(body), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.ID != "4f1c2d3e-run" || run.Totals["qwer"].TwoHanded != 3 {
		t.Fatalf("unexpected run %+v", run)
	}
	if !strings.Contains(body, `"two_handed":3`) {
		t.Fatalf("expected snapshot field names in %s", body)
	}
}

func TestChunksAndMetrics(t *testing.T) {
	srv := newServer(t)

	_, body := get(t, srv.URL+"/api/v1/runs/4f1c2d3e-run/chunks")
	var chunks []ChunkResponse
	if err := json.Unmarshal([]byte(body), &chunks); err != nil {
		t.Fatalf("decode chunks: %v", err)
	}
	if len(chunks) != 2 || chunks[1].Load != 3 {
		t.Fatalf("unexpected chunks %+v", chunks)
	}

	resp, body := get(t, srv.URL+"/api/v1/runs/4f1c2d3e-run/metrics")
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %s", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, `keyload_hand_changes{layout="qwer"} 3`) {
		t.Fatalf("unexpected metrics:\n%s", body)
	}
}

func TestErrors(t *testing.T) {
	srv := newServer(t)
	if resp, _ := get(t, srv.URL+"/api/v1/runs/missing"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if resp, _ := get(t, srv.URL+"/api/v1/runs?limit=zero"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp, body := get(t, srv.URL+"/api/v1/health")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "ok") {
		t.Fatalf("unexpected health %d %s", resp.StatusCode, body)
	}
}
