// Package search mirrors users into Elasticsearch for the admin user search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// UserIndex writes are best effort: failures are logged and never surface to
// the login or registration that triggered them.
type UserIndex struct {
	es     *elasticsearch.Client
	index  string
	logger *logrus.Logger
}

func NewUserIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *UserIndex {
	return &UserIndex{es: es, index: index, logger: logger}
}

// document holds only the searchable profile; credentials and provider ids
// never leave the user store.
func document(u *entity.User) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"nickname":    u.Nickname,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"real_name":   u.RealName,
		"role":        u.Role,
		"is_verified": u.IsVerified,
		"providers":   u.LinkedProviders(),
		"created_at":  u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (x *UserIndex) Index(ctx context.Context, u *entity.User) {
	b, err := json.Marshal(document(u))
	if err != nil {
		x.logger.WithError(err).WithField("user_id", u.ID).Warn("es encode user failed")
		return
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	x.do(ctx, req, u.ID, "index")
}

func (x *UserIndex) Remove(ctx context.Context, userID string) {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: userID}
	x.do(ctx, req, userID, "delete")
}

func (x *UserIndex) do(ctx context.Context, req esapi.Request, userID, op string) {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		x.logger.WithError(err).WithField("user_id", userID).Warnf("es %s failed", op)
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		x.logger.WithField("status", res.Status()).WithField("user_id", userID).Warnf("es %s response error", op)
	}
}

// Search runs a multi_match over the profile fields.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	query := map[string]any{
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "nickname", "real_name", "first_name", "last_name"},
			},
		},
	}
	if q == "" {
		query["query"] = map[string]any{"match_all": map[string]any{}}
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

var _ application.UserIndexer = (*UserIndex)(nil)
