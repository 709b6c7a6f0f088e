package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
)

type recorded struct {
	method, path string
	body         map[string]any
}

func newFakeES(t *testing.T, status int, response string) (*UserIndex, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	es, err := helpers.NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewUserIndex(es, "users", logger), &reqs
}

func TestIndex_WritesProfileWithoutSecrets(t *testing.T) {
	x, reqs := newFakeES(t, http.StatusCreated, `{"result":"created"}`)
	u := &entity.User{
		ID: "u-1", Email: "a@example.com", PasswordHash: "aa:bb", GoogleID: "g-secret",
		Role: entity.RoleResident, Nickname: "nick", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	x.Index(context.Background(), u)

	require.Len(t, *reqs, 1)
	r := (*reqs)[0]
	assert.Equal(t, http.MethodPut, r.method)
	assert.Equal(t, "/users/_doc/u-1", r.path)
	assert.Equal(t, "a@example.com", r.body["email"])
	assert.Equal(t, "resident", r.body["role"])
	assert.ElementsMatch(t, []any{"local", "google"}, r.body["providers"])
	assert.NotContains(t, r.body, "password_hash")
	assert.NotContains(t, r.body, "google_id")
}

func TestRemove_IgnoresMissingDocument(t *testing.T) {
	x, reqs := newFakeES(t, http.StatusNotFound, `{"result":"not_found"}`)
	x.Remove(context.Background(), "u-1")

	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodDelete, (*reqs)[0].method)
	assert.Equal(t, "/users/_doc/u-1", (*reqs)[0].path)
}

func TestSearch(t *testing.T) {
	x, reqs := newFakeES(t, http.StatusOK, `{"hits":{"hits":[
		{"_id":"u-1","_source":{"id":"u-1","email":"kim@example.com"}},
		{"_id":"u-2","_source":{"id":"u-2","email":"kim2@example.com"}}
	]}}`)

	hits, err := x.Search(context.Background(), "kim", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "kim@example.com", hits[0]["email"])

	r := (*reqs)[0]
	assert.Equal(t, "/users/_search", r.path)
	assert.EqualValues(t, 5, r.body["size"])
	assert.Contains(t, r.body["query"], "multi_match")
}

func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	x, reqs := newFakeES(t, http.StatusOK, `{"hits":{"hits":[]}}`)
	hits, err := x.Search(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Contains(t, (*reqs)[0].body["query"], "match_all")
}

func TestSearch_ErrorStatus(t *testing.T) {
	x, _ := newFakeES(t, http.StatusInternalServerError, `{"error":"boom"}`)
	_, err := x.Search(context.Background(), "kim", 10)
	assert.Error(t, err)
}
