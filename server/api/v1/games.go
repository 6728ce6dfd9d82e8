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

package v1

import (
	"net/http"

	"github.com/zintix-labs/tumblelab/dto"
	"github.com/zintix-labs/tumblelab/server/netsvr"
)

// Games GET /v1/games
func (h *Handler) Games(w http.ResponseWriter, r *http.Request) {
	sum, err := h.lab.Summary()
	if err != nil {
		h.fail(w, "catalog summary", err)
		return
	}
	out := make([]dto.GameDTO, len(sum))
	for i, s := range sum {
		out[i] = dto.GameDTO{
			Name:    s.Name,
			GID:     uint(s.GID),
			Columns: s.Columns,
			Rows:    s.Rows,
			Scatter: s.Scatter,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Outcome GET /v1/outcome/{spinID}（路徑可含 /）：最近解析過的結果（免費遊戲為 <spinID>/fs-<n>）
func (h *Handler) Outcome(w http.ResponseWriter, r *http.Request) {
	id := netsvr.URLParam(r, "*")
	if id == "" {
		id = r.URL.Query().Get("spin_id")
	}
	d, ok := h.cache.Get(id)
	h.met.ObserveCache(ok)
	if !ok {
		h.fail(w, "outcome "+id, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
