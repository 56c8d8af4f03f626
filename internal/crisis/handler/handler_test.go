package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/crisis/allowlist"
	"vigil/internal/crisis/models"
	"vigil/internal/platform/logger"
	"vigil/pkg/testutil"
)

type stubRemote struct {
	ds  *models.Dataset
	err error
}

func (s *stubRemote) Fetch(context.Context) (*models.Dataset, error) { return s.ds, s.err }

func (s *stubRemote) Manifest(context.Context) (*models.Manifest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Manifest{Version: s.ds.Version, Emergency: s.ds.Emergency}, nil
}

func setup(remote *stubRemote) (chi.Router, *allowlist.Cache) {
	cache := allowlist.New(remote, nil, allowlist.WithLogger(logger.Discard()))
	r := chi.NewRouter()
	New(cache, logger.Discard()).Register(r)
	return r, cache
}

func TestHandleRefresh(t *testing.T) {
	ds := &models.Dataset{Version: "v2", Entries: []models.Entry{{Pattern: "988lifeline.org"}}}

	t.Run("emergency refresh installs remote", func(t *testing.T) {
		r, cache := setup(&stubRemote{ds: ds})
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/admin/allowlist/refresh?emergency=true", nil)
		rr := testutil.DoRequest(r, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[RefreshResponse](t, rr)
		assert.True(t, resp.Updated)
		assert.Equal(t, "v2", resp.Status.Version)
		assert.Equal(t, models.SourceRemote, resp.Status.Source)
		assert.Equal(t, "v2", cache.Current().Dataset.Version)
	})

	t.Run("remote failure keeps dataset", func(t *testing.T) {
		r, cache := setup(&stubRemote{err: errors.New("boom")})
		before := cache.Current()
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/admin/allowlist/refresh", nil)
		rr := testutil.DoRequest(r, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[RefreshResponse](t, rr)
		assert.False(t, resp.Updated)
		assert.NotEmpty(t, resp.Error)
		assert.Same(t, before, cache.Current())
	})

	t.Run("rejects malformed emergency flag", func(t *testing.T) {
		r, _ := setup(&stubRemote{ds: ds})
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/admin/allowlist/refresh?emergency=maybe", nil)
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestHandleStatus(t *testing.T) {
	r, _ := setup(&stubRemote{err: errors.New("down")})
	req := testutil.NewJSONRequest(t, http.MethodGet, "/v1/admin/allowlist/status", nil)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	require.NotContains(t, rr.Body.String(), "988lifeline.org")
	resp := testutil.UnmarshalResponse[models.Status](t, rr)
	assert.Equal(t, models.SourceBaseline, resp.Source)
	assert.Positive(t, resp.Entries)
}
