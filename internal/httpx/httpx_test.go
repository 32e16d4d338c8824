package httpx_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
	"educonnect/placement-service/internal/logging"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.Invalid("bad"), http.StatusBadRequest},
		{"transition", &domain.TransitionError{From: "placed", To: "pending"}, http.StatusBadRequest},
		{"quota", &domain.QuotaError{Max: 5, Active: 5}, http.StatusConflict},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get job: %w", domain.ErrNotFound), http.StatusNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"payment", domain.ErrPaymentRequired, http.StatusPaymentRequired},
		{"duplicate application", domain.ErrAlreadyApplied, http.StatusConflict},
		{"duplicate selection", domain.ErrAlreadySelected, http.StatusConflict},
		{"run in progress", domain.ErrRunInProgress, http.StatusConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, msg := httpx.Status(c.err)
			if code != c.want {
				t.Errorf("code = %d, want %d", code, c.want)
			}
			if msg == "" {
				t.Error("detail message is empty")
			}
		})
	}
}

func TestStatus_HidesInternalErrors(t *testing.T) {
	_, msg := httpx.Status(errors.New("pq: password authentication failed"))
	if strings.Contains(msg, "password") {
		t.Errorf("internal error leaked: %q", msg)
	}
}

func TestError_WritesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.Error(rec, logging.Nop(), domain.ErrPaymentRequired)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d", rec.Code)
	}
	var body httpx.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail != "Unlock full access to continue" {
		t.Errorf("detail = %q", body.Detail)
	}
}

func TestPage(t *testing.T) {
	cases := []struct {
		query     string
		wantSkip  int
		wantLimit int
		wantErr   bool
	}{
		{"", 0, httpx.DefaultLimit, false},
		{"skip=40&limit=10", 40, 10, false},
		{"limit=1000", 0, httpx.MaxLimit, false},
		{"skip=-1", 0, 0, true},
		{"limit=0", 0, 0, true},
		{"limit=abc", 0, 0, true},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x?"+c.query, nil)
			p, err := httpx.Page(req)
			if c.wantErr {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Page: %v", err)
			}
			if p.Skip != c.wantSkip || p.Limit != c.wantLimit {
				t.Errorf("Page = %+v, want skip=%d limit=%d", p, c.wantSkip, c.wantLimit)
			}
		})
	}
}

type applyBody struct {
	OpportunityID string `json:"opportunity_id" validate:"required,uuid"`
	Type          string `json:"type" validate:"required,oneof=school job"`
}

func TestDecode(t *testing.T) {
	id := uuid.NewString()
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"opportunity_id":"` + id + `","type":"job"}`, ""},
		{"empty body", ``, "request body is required"},
		{"malformed", `{"type":`, "invalid JSON body"},
		{"unknown field", `{"type":"job","opportunity_id":"` + id + `","x":1}`, "invalid JSON body"},
		{"missing field", `{"type":"job"}`, "opportunity_id is required"},
		{"bad enum", `{"opportunity_id":"` + id + `","type":"gig"}`, "type must be one of: school job"},
		{"bad uuid", `{"opportunity_id":"nope","type":"job"}`, "opportunity_id must be a valid id"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(c.body))
			var dst applyBody
			err := httpx.Decode(req, &dst)
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if dst.OpportunityID != id || dst.Type != "job" {
					t.Errorf("decoded %+v", dst)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("err = %v, want containing %q", err, c.wantErr)
			}
		})
	}
}

func TestPathAndQueryID(t *testing.T) {
	id := uuid.NewString()
	mux := http.NewServeMux()
	var got string
	var gotErr error
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = httpx.PathID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	if gotErr != nil || got != id {
		t.Errorf("PathID = %q, %v", got, gotErr)
	}
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	if gotErr == nil {
		t.Error("PathID accepted a non-uuid")
	}

	req := httptest.NewRequest(http.MethodGet, "/x?job_id="+url.QueryEscape(id), nil)
	if v, err := httpx.QueryID(req, "job_id"); err != nil || v != id {
		t.Errorf("QueryID = %q, %v", v, err)
	}
	if v, err := httpx.QueryID(httptest.NewRequest(http.MethodGet, "/x", nil), "job_id"); err != nil || v != "" {
		t.Errorf("absent QueryID = %q, %v", v, err)
	}
}

func TestNewList_NilItems(t *testing.T) {
	l := httpx.NewList[string](nil, 0, domain.Page{Skip: 0, Limit: 20}, false)
	b, _ := json.Marshal(l)
	if !strings.Contains(string(b), `"items":[]`) {
		t.Errorf("json = %s", b)
	}
}

func TestLogging_RequestID(t *testing.T) {
	var seen string
	h := httpx.Logging(logging.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated request id %q is not a uuid", seen)
	}
	if rec.Header().Get(httpx.RequestIDHeader) != seen {
		t.Errorf("response header = %q, context = %q", rec.Header().Get(httpx.RequestIDHeader), seen)
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(httpx.RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("incoming id not reused: got %q, want %q", seen, incoming)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(httpx.RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "<script>" {
		t.Error("invalid incoming id was reused")
	}
}

func TestLogging_RecoversPanic(t *testing.T) {
	h := httpx.Logging(logging.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
