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

package dto

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
)

const baseResponse = `{
  "spinId": "abc-1",
  "bet": "0.20",
  "slot": {
    "area": [[3,1,0,4,2],[8,7,5,0,6]],
    "tumbles": [
      {"symbols": {"in": [[9,6],[8]], "out": [{"symbol": 8, "count": 3, "win": 0.9}]}, "win": "0.9"}
    ]
  }
}`

func TestNormalizeBase(t *testing.T) {
	sr, err := Normalize([]byte(baseResponse))
	require.NoError(t, err)
	assert.Equal(t, "abc-1", sr.SpinID)
	assert.True(t, sr.Bet.Equal(decimal.RequireFromString("0.2")))
	assert.Equal(t, [][]int16{{3, 1, 0, 4, 2}, {8, 7, 5, 0, 6}}, sr.Area)
	require.Len(t, sr.Tumbles, 1)
	st := sr.Tumbles[0]
	require.Len(t, st.Outs, 1)
	assert.Equal(t, int16(8), st.Outs[0].Symbol)
	assert.Equal(t, 3, st.Outs[0].Count)
	assert.True(t, st.Outs[0].Win.Equal(decimal.RequireFromString("0.9")))
	assert.Equal(t, [][]int16{{9, 6}, {8}}, st.Ins)
	assert.True(t, st.Win.Equal(decimal.RequireFromString("0.9")))
	assert.Nil(t, sr.FreeSpin)
}

func TestNormalizeFreeSpinKeys(t *testing.T) {
	withKey := func(key, body string) string {
		return `{"bet": 1, "slot": {"area": [[1]], "tumbles": [], "` + key + `": ` + body + `}}`
	}
	camel, err := Normalize([]byte(withKey("freeSpin", `{"count": 10, "totalWin": "12.5", "items": [{"spinsLeft": 9, "area": [[2]], "totalWin": 1}]}`)))
	require.NoError(t, err)
	require.NotNil(t, camel.FreeSpin)
	assert.Equal(t, 10, camel.FreeSpin.Count)
	assert.True(t, camel.FreeSpin.TotalWin.Equal(decimal.RequireFromString("12.5")))
	require.Len(t, camel.FreeSpin.Items, 1)
	require.NotNil(t, camel.FreeSpin.Items[0].SpinsLeft)
	assert.Equal(t, 9, *camel.FreeSpin.Items[0].SpinsLeft)

	lower, err := Normalize([]byte(withKey("freespin", `{"count": 7, "remainingFreeSpin": 4}`)))
	require.NoError(t, err)
	require.NotNil(t, lower.FreeSpin)
	assert.Equal(t, 7, lower.FreeSpin.Count)
	assert.Equal(t, 4, lower.FreeSpin.InitialSpins())

	both, err := Normalize([]byte(`{"bet": 1, "slot": {"area": [[1]], "tumbles": [], "freeSpin": {"count": 3}, "freespin": {"count": 8}}}`))
	require.NoError(t, err)
	assert.Equal(t, 3, both.FreeSpin.Count, "camelCase key wins")
}

func TestNormalizeGeneratesSpinID(t *testing.T) {
	sr, err := Normalize([]byte(`{"bet": 1, "slot": {"area": [[1]], "tumbles": []}}`))
	require.NoError(t, err)
	_, perr := uuid.Parse(sr.SpinID)
	assert.NoError(t, perr)
}

func TestNormalizeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"bet":`,
		"no slot":        `{"bet": 1}`,
		"no bet":         `{"slot": {"area": [[1]], "tumbles": []}}`,
		"no area":        `{"bet": 1, "slot": {"tumbles": []}}`,
		"no tumbles":     `{"bet": 1, "slot": {"area": [[1]]}}`,
		"ragged area":    `{"bet": 1, "slot": {"area": [[1,2],[3]], "tumbles": []}}`,
		"negative count": `{"bet": 1, "slot": {"area": [[1]], "tumbles": [{"symbols": {"out": [{"symbol": 1, "count": -1}]}}]}}`,
		"negative bet":   `{"bet": "-1", "slot": {"area": [[1]], "tumbles": []}}`,
		"bad item area":  `{"bet": 1, "slot": {"area": [[1]], "tumbles": [], "freeSpin": {"items": [{"area": []}]}}}`,
		"area symbol":    `{"bet": 1, "slot": {"area": [[64]], "tumbles": []}}`,
		"item symbol":    `{"bet": 1, "slot": {"area": [[1]], "tumbles": [], "freeSpin": {"items": [{"area": [[99]], "tumbles": []}]}}}`,
		"in symbol":      `{"bet": 1, "slot": {"area": [[1]], "tumbles": [{"symbols": {"in": [[64]], "out": []}}]}}`,
		"out symbol":     `{"bet": 1, "slot": {"area": [[1]], "tumbles": [{"symbols": {"out": [{"symbol": 70, "count": 1}]}}]}}`,
	}
	for name, raw := range cases {
		sr, err := Normalize([]byte(raw))
		assert.Nil(t, sr, name)
		assert.True(t, errors.Is(err, errs.ErrMalformedResponse), "%s: %v", name, err)
	}
}

func TestHardStopSignal(t *testing.T) {
	err := HardStopSignal(http.StatusUnprocessableEntity, []byte(`{"error":"no valid free spins"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAutoplayHardStop))
	assert.NoError(t, HardStopSignal(http.StatusUnprocessableEntity, []byte(`{"error":"other"}`)))
	assert.NoError(t, HardStopSignal(http.StatusOK, []byte(`no valid free spins`)))
}

func TestDecodeResolveRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(`{"game":"sweet_tumble","spin_id":"s-1","response":{"bet":1}}`))
	req, err := DecodeResolveRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "sweet_tumble", req.GameName)
	assert.JSONEq(t, `{"bet":1}`, string(req.Response))

	bad := map[string]string{
		"unknown field":    `{"game":"x","response":{},"extra":1}`,
		"missing response": `{"game":"x"}`,
		"missing game":     `{"response":{}}`,
		"bad spin id":      `{"game":"x","spin_id":"a b","response":{}}`,
	}
	for name, body := range bad {
		r := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(body))
		_, err := DecodeResolveRequest(r)
		require.Error(t, err, name)
		e, ok := errs.AsErr(err)
		require.True(t, ok, name)
		assert.Equal(t, errs.Warn, e.ErrLv, name)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/resolve", nil)
	_, err = DecodeResolveRequest(r)
	assert.Error(t, err)
}

func TestDecodeReplayRequestByGID(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/replay", strings.NewReader(`{"gid":1,"max_free_spins":20,"response":{"bet":1}}`))
	req, err := DecodeReplayRequest(r)
	require.NoError(t, err)
	assert.EqualValues(t, 1, req.GameID)
	assert.Equal(t, 20, req.MaxFreeSpins)

	r = httptest.NewRequest(http.MethodPost, "/v1/replay", strings.NewReader(`{"gid":1,"max_free_spins":-1,"response":{}}`))
	_, err = DecodeReplayRequest(r)
	assert.Error(t, err)
}

func TestNewOutcomeDTO(t *testing.T) {
	g, err := grid.FromArea([][]int16{{1, 2}}, 1, 2)
	require.NoError(t, err)
	o := &buf.Outcome{
		SpinID:   "s",
		Bet:      decimal.NewFromInt(1),
		Grid:     g,
		TotalWin: decimal.NewFromInt(3),
		Steps:    []buf.StepRecord{{Index: 0, StepWin: decimal.NewFromInt(3)}},
		Warnings: []error{errs.Reconcilef("not enough symbols")},
		Notices: []buf.Notice{
			{Kind: buf.NoticeTumbleProgress, SpinID: "s", Step: 0, Amount: decimal.NewFromInt(3), Total: decimal.NewFromInt(3)},
			{Kind: buf.NoticeTumbleSequenceDone, SpinID: "s", Step: -1},
		},
	}
	d, err := NewOutcomeDTO(o, true)
	require.NoError(t, err)
	assert.Equal(t, [][]int16{{1, 2}}, d.Area)
	require.Len(t, d.Warnings, 1)
	assert.Equal(t, "reconciliation", d.Warnings[0].Kind)
	assert.Equal(t, "warn", d.Warnings[0].Level)
	require.Len(t, d.Notices, 2)
	assert.Equal(t, "tumble-win-progress", d.Notices[0].Event)
	require.NotNil(t, d.Notices[0].Step)
	assert.Equal(t, "tumble-sequence-done", d.Notices[1].Event)
	assert.Nil(t, d.Notices[1].Step)
	require.NotNil(t, d.Notices[1].Total, "sequence done always carries the total")

	_, err = NewOutcomeDTO(nil, false)
	assert.Error(t, err)
}
