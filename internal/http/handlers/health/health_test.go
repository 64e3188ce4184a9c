package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestGet(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("disk gone") })

	tests := []struct {
		name   string
		store  Pinger
		driver string
		want   status
	}{
		{"sqlite up", up, "sqlite", status{OK: true, Storage: "sqlite", DBOk: true}},
		{"sqlite down", down, "sqlite", status{OK: true, Storage: "sqlite", DBOk: false}},
		{"memory", up, "memory", status{OK: true, Storage: "memory", DBOk: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Get(tt.store, tt.driver)(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var got status
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
