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
)

// Resolve POST /v1/resolve：解析單一回合，回傳最終盤面、步驟、贏分與通知
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeResolveRequest(r)
	if err != nil {
		h.fail(w, "decode resolve request", err)
		return
	}
	s, _, err := h.session(req.GameName, req.GameID)
	if err != nil {
		h.fail(w, "game", err)
		return
	}
	sr, err := dto.Normalize(req.Response)
	if err != nil {
		h.met.ObserveMalformed()
		h.fail(w, "normalize response", err)
		return
	}
	if req.SpinID != "" {
		sr.SpinID = req.SpinID
	}
	o, err := s.ResolveSpin(sr, req.InBonus)
	if err != nil {
		h.fail(w, "resolve spin", err)
		return
	}
	h.met.ObserveOutcome(s.GameSetting().GameName, o)

	d, err := dto.NewOutcomeDTO(o, true)
	if err != nil {
		h.fail(w, "outcome dto", err)
		return
	}
	h.cache.Put(d)
	writeJSON(w, http.StatusOK, d)
}
