// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/dto"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/server"
	"github.com/zintix-labs/tumblelab/server/app"
	"github.com/zintix-labs/tumblelab/server/cache"
	"github.com/zintix-labs/tumblelab/server/httperr"
	"github.com/zintix-labs/tumblelab/server/logger"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

const fourScatterArea = `[[0,1,2,3,4],[5,0,6,7,8],[9,1,0,2,3],[4,5,6,0,7],[8,9,1,2,3],[4,5,6,7,8]]`

const plainItem = `{"spinsLeft":0,"area":[[8,8,1,2,3],[1,2,3,4,5],[6,7,1,2,3],[4,5,6,7,9],[1,2,3,4,5],[6,7,9,1,2]],` +
	`"totalWin":"0.5","tumbles":[{"symbols":{"in":[[5,5],[],[],[],[],[]],"out":[{"symbol":8,"count":2,"win":"0.5"}]},"win":"0.5"}]}`

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	lab, err := tumblelab.NewAuto(tumblelab.Configs(demo_configs.FS))
	require.NoError(t, err)
	svr, err := server.Build(&svrcfg.SvrCfg{Lab: lab, Timeout: time.Second})
	require.NoError(t, err)
	return svr.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ============================================================
// ** API **
// ============================================================

func TestHealthz(t *testing.T) {
	h := newHandler(t)
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestResolveAndOutcomeCache(t *testing.T) {
	h := newHandler(t)
	body := `{"game":"sweet_tumble","spin_id":"srv-1","response":{"spinId":"ignored","bet":"0.5","slot":{"area":` + fourScatterArea + `,"tumbles":[]}}}`
	rec := do(t, h, http.MethodPost, "/v1/resolve", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	out := decode[map[string]any](t, rec)
	assert.Equal(t, "srv-1", out["spin_id"])
	assert.Equal(t, "1.5", out["total_win"])
	assert.Equal(t, true, out["enter_bonus"])
	assert.EqualValues(t, 4, out["scatters"])
	assert.NotEmpty(t, out["notices"])

	rec = do(t, h, http.MethodGet, "/v1/outcome/srv-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cached := decode[dto.OutcomeDTO](t, rec)
	assert.Equal(t, "srv-1", cached.SpinID)
	assert.Equal(t, "1.5", cached.TotalWin.String())

	rec = do(t, h, http.MethodGet, "/v1/outcome/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := rec.Body.String()
	assert.Contains(t, m, `tumblelab_spins_resolved_total{game="sweet_tumble",phase="base"} 1`)
	assert.Contains(t, m, `tumblelab_bonus_triggers_total{game="sweet_tumble"} 1`)
	assert.Contains(t, m, `tumblelab_outcome_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, m, `route="/v1/resolve"`)
}

func TestResolveErrors(t *testing.T) {
	h := newHandler(t)

	rec := do(t, h, http.MethodPost, "/v1/resolve", `{"game":"no_such_game","response":{"bet":1}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/resolve", `{"game":"sweet_tumble","response":{"bet":1}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	b := decode[httperr.Body](t, rec)
	assert.Equal(t, errs.KindMalformedResponse.String(), b.Kind)
	assert.Equal(t, "warn", b.Level)

	rec = do(t, h, http.MethodPost, "/v1/resolve", `{"game":"sweet_tumble"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/resolve", `{"game":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/resolve", `{"game":"sweet_tumble","gid":99,"response":{"bet":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "gid must match the name")

	rec = do(t, h, http.MethodGet, "/v1/resolve", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), "tumblelab_malformed_responses_total 1")
}

func TestReplay(t *testing.T) {
	h := newHandler(t)
	body := `{"gid":1,"spin_id":"rp","response":{"bet":1,"slot":{"area":` + fourScatterArea +
		`,"tumbles":[],"freeSpin":{"count":1,"items":[` + plainItem + `]}}}}`
	rec := do(t, h, http.MethodPost, "/v1/replay", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[dto.ReplayDTO](t, rec)
	assert.Equal(t, "sweet_tumble", out.Game)
	assert.Equal(t, "3.5", out.TotalWin.String())
	assert.True(t, out.Base.EnterBonus)
	assert.Empty(t, out.Base.Notices, "notices are collected at the replay level")
	require.Len(t, out.FreeSpins, 1)
	assert.Equal(t, "rp/fs-0", out.FreeSpins[0].SpinID)
	require.NotNil(t, out.Bonus)
	assert.Equal(t, 1, out.Bonus.SpinsPlayed)
	assert.False(t, out.Bonus.InBonus)
	require.NotEmpty(t, out.Notices)
	assert.Equal(t, "bonus-summary", out.Notices[len(out.Notices)-1].Event)

	rec = do(t, h, http.MethodGet, "/v1/outcome/rp/fs-0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.OutcomeDTO](t, rec).InBonus)
}

func TestGames(t *testing.T) {
	h := newHandler(t)
	rec := do(t, h, http.MethodGet, "/v1/games", "")
	require.Equal(t, http.StatusOK, rec.Code)
	games := decode[[]dto.GameDTO](t, rec)
	require.NotEmpty(t, games)
	var found bool
	for _, g := range games {
		if g.Name == "sweet_tumble" {
			found = true
			assert.Equal(t, uint(1), g.GID)
			assert.Equal(t, 6, g.Columns)
			assert.Equal(t, 5, g.Rows)
		}
	}
	assert.True(t, found)
}

func TestCompression(t *testing.T) {
	h := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	req.Header.Set("Accept-Encoding", "br;q=1, gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sweet_tumble")

	req = httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	req.Header.Set("Accept-Encoding", "gzip;q=0")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestBuildRequiresFrozenLab(t *testing.T) {
	lab, err := tumblelab.New(tumblelab.Configs(demo_configs.FS))
	require.NoError(t, err)
	_, err = server.Build(&svrcfg.SvrCfg{Lab: lab})
	assert.Error(t, err)
	_, err = server.Build(&svrcfg.SvrCfg{})
	assert.Error(t, err)
	_, err = server.Build(nil)
	assert.Error(t, err)
}

// ============================================================
// ** 元件 **
// ============================================================

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errs.Wrap(context.Canceled, "replay"), http.StatusRequestTimeout},
		{errs.HardStopf("no valid free spins"), http.StatusUnprocessableEntity},
		{errs.Malformedf("bad"), http.StatusBadRequest},
		{errs.Reconcilef("diff"), http.StatusBadRequest},
		{errs.OutOfRangef("col 9"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, httperr.StatusCode(c.err), "%v", c.err)
	}

	b := httperr.NewBody(errs.NewFatal("db password"), http.StatusInternalServerError)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), b.Error)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(svrcfg.EnvLogMode, "prod")
	t.Setenv(svrcfg.EnvCacheSize, "10")
	t.Setenv(svrcfg.EnvCacheTTL, "1m")
	t.Setenv(svrcfg.EnvGridPolicy, "failfast")
	t.Setenv(svrcfg.EnvAddr, ":7000")

	e, err := svrcfg.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, logger.ModeProd, e.LogMode)
	assert.Equal(t, 10, e.CacheSize)
	assert.Equal(t, time.Minute, e.CacheTTL)
	assert.Equal(t, grid.FailFast, e.GridPolicy)
	assert.Equal(t, ":7000", e.Addr)
	assert.Len(t, e.LabOptions(nil), 2)

	t.Setenv(svrcfg.EnvCacheSize, "-1")
	t.Setenv(svrcfg.EnvGridPolicy, "sometimes")
	_, err = svrcfg.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), svrcfg.EnvCacheSize)
	assert.Contains(t, err.Error(), "sometimes")
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(svrcfg.EnvAddr, "")
	require.NoError(t, os.Unsetenv(svrcfg.EnvAddr))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TUMBLELAB_ADDR=:9911\n"), 0o600))

	e, err := svrcfg.LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, ":9911", e.Addr)

	_, err = svrcfg.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestOutcomeCacheEviction(t *testing.T) {
	c := cache.NewOutcomes(2, time.Minute)
	c.Put(dto.OutcomeDTO{SpinID: "a"})
	c.Put(dto.OutcomeDTO{SpinID: "b"})
	c.Put(dto.OutcomeDTO{SpinID: "c"})
	c.Put(dto.OutcomeDTO{})

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())

	var nilCache *cache.Outcomes
	nilCache.Put(dto.OutcomeDTO{SpinID: "x"})
	_, ok = nilCache.Get("x")
	assert.False(t, ok)
}

func TestAsyncLogger(t *testing.T) {
	var sb strings.Builder
	log, ah := logger.NewAsyncTo(&sb, 16, logger.ModeDev)
	log.Info("resolved", "spin_id", "x")
	ah.Close()
	assert.Contains(t, sb.String(), "spin_id=x")

	log.Info("after close")
	assert.Equal(t, uint64(1), ah.Dropped())

	m, err := logger.ParseMode("SILENCE")
	require.NoError(t, err)
	assert.Equal(t, logger.ModeSilence, m)
	_, err = logger.ParseMode("loud")
	assert.Error(t, err)
}

func TestAppRunContext(t *testing.T) {
	var shut atomic.Int32
	stop := make(chan struct{})
	c := app.Func{
		RunFn: func() error {
			<-stop
			return http.ErrServerClosed
		},
		ShutdownFn: func(context.Context) error {
			shut.Add(1)
			close(stop)
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.NewWith(c).RunContext(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, int32(1), shut.Load())

	boom := errors.New("boom")
	err := app.NewWith(app.Func{RunFn: func() error { return boom }}).RunContext(context.Background())
	assert.ErrorIs(t, err, boom)
}
