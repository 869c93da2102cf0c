package entropy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestHelpersStayInRange(t *testing.T) {
	src := NewSeeded(1)
	for i := 0; i < 1000; i++ {
		if v := Between(src, 3, 8); v < 3 || v > 8 {
			t.Fatalf("Between = %d", v)
		}
		if v := Intn(src, 4); v < 0 || v >= 4 {
			t.Fatalf("Intn = %d", v)
		}
		if v := Uniform(src, 20, 45); v < 20 || v >= 45 {
			t.Fatalf("Uniform = %v", v)
		}
	}
	if Intn(src, 0) != 0 {
		t.Error("Intn(0) should be 0")
	}
	if Between(Constant(0.999999), 2, 6) != 6 {
		t.Error("Between should reach hi")
	}
}

func TestSequenceCycles(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	got := []float64{s.Float64(), s.Float64(), s.Float64()}
	if got[0] != 0.1 || got[1] != 0.9 || got[2] != 0.1 {
		t.Errorf("sequence = %v", got)
	}
	if NewSequence().Float64() != 0 {
		t.Error("empty sequence should yield 0")
	}
}

func TestChance(t *testing.T) {
	if !Chance(Constant(0.05), 0.1) {
		t.Error("0.05 < 0.1 should succeed")
	}
	if Chance(Constant(0.1), 0.1) {
		t.Error("0.1 < 0.1 should fail")
	}
}

func TestClientPoolAndFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Params.APIKey != "key" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"random":{"data":[0.25,0.5,1.5]}}}`))
	}))

	c := NewClient("key")
	c.endpoint = srv.URL
	if err := c.Fill(context.Background()); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	c.mu.Lock()
	n := len(c.pool)
	c.mu.Unlock()
	if n != 2 {
		t.Fatalf("pool = %d, want 2 (out-of-range value dropped)", n)
	}
	if v := c.Float64(); v != 0.25 {
		t.Errorf("first draw = %v, want 0.25", v)
	}

	srv.Close()
	if err := c.Fill(context.Background()); err == nil {
		t.Error("Fill against a closed server succeeded")
	}
	c.mu.Lock()
	c.pool = nil
	c.mu.Unlock()
	for i := 0; i < 5; i++ {
		if v := c.Float64(); v < 0 || v >= 1 {
			t.Errorf("fallback draw out of range: %v", v)
		}
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Error("nil client reports enabled")
	}
	if v := c.Float64(); v < 0 || v >= 1 {
		t.Errorf("nil client draw out of range: %v", v)
	}
	if NewClient("") != nil {
		t.Error("empty key should yield nil client")
	}
}
