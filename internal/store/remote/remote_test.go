package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tindahan/backend/internal/domain"
	"tindahan/backend/internal/postgrest"
)

func TestUpsertProductBodyOmitsTotalStock(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/products") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotBody, _ = io.ReadAll(r.Body)
		// The backend echoes the merged row, stored counter intact.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"code":"GM-TP-AC-BK-01","name":"renamed","price_php":1800,"total_stock":5}]`))
	}))
	defer server.Close()

	s := New(postgrest.New(server.URL, "test-key"))
	saved, err := s.UpsertProduct(context.Background(), domain.Product{
		Code:     "GM-TP-AC-BK-01",
		Name:     "renamed",
		PricePhp: 1800,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(gotBody, &rows); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d payload rows, want 1", len(rows))
	}
	if _, present := rows[0]["total_stock"]; present {
		t.Fatalf("payload carries total_stock, must not: %v", rows[0])
	}
	if rows[0]["code"] != "GM-TP-AC-BK-01" || rows[0]["price_php"] != float64(1800) {
		t.Fatalf("unexpected payload: %v", rows[0])
	}

	if saved.TotalStock != 5 {
		t.Fatalf("returned total_stock = %d, want the stored 5", saved.TotalStock)
	}
}
