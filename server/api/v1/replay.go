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
	"log/slog"
	"net/http"

	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/dto"
)

// Replay POST /v1/replay：解析一般遊戲，帶有免費遊戲時以自動循環跑完全部 items
func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeReplayRequest(r)
	if err != nil {
		h.fail(w, "decode replay request", err)
		return
	}
	s, name, err := h.session(req.GameName, req.GameID)
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

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := s.Replay(ctx, sr, tumblelab.NopPacer{}, req.MaxFreeSpins)
	if res != nil {
		h.observe(name, res)
	}
	if err != nil {
		h.fail(w, "replay", err)
		return
	}

	d, err := newReplayDTO(name, res)
	if err != nil {
		h.fail(w, "replay dto", err)
		return
	}
	h.cache.PutReplay(d)
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) observe(game string, res *tumblelab.ReplayResult) {
	h.met.ObserveOutcome(game, res.Base)
	for _, o := range res.FreeSpins {
		h.met.ObserveOutcome(game, o)
	}
	if res.Summary != nil && res.Summary.Stopped {
		h.met.ObserveHardStop(game)
		h.log.Debug("autoplay stopped by source",
			slog.String("spin_id", res.Base.SpinID),
			slog.Int("played", res.Summary.Played),
		)
	}
}

func newReplayDTO(game string, res *tumblelab.ReplayResult) (dto.ReplayDTO, error) {
	base, err := dto.NewOutcomeDTO(res.Base, false)
	if err != nil {
		return dto.ReplayDTO{}, err
	}
	d := dto.ReplayDTO{
		Game:     game,
		Base:     base,
		Notices:  dto.NewNoticeDTOs(res.Notices),
		TotalWin: res.TotalWin,
	}
	for _, o := range res.FreeSpins {
		fs, err := dto.NewOutcomeDTO(o, false)
		if err != nil {
			return dto.ReplayDTO{}, err
		}
		d.FreeSpins = append(d.FreeSpins, fs)
	}
	if res.Bonus != nil {
		b := &dto.BonusDTO{
			InBonus:          res.Bonus.InBonus,
			SpinsRemaining:   res.Bonus.SpinsRemaining,
			PendingRetrigger: res.Bonus.PendingRetrigger,
			RetriggerSpins:   res.Bonus.RetriggerSpins,
			CumulativeWin:    res.Bonus.CumulativeWin,
		}
		if res.Summary != nil {
			b.SpinsPlayed = res.Summary.Played
			b.Stopped = res.Summary.Stopped
		}
		d.Bonus = b
	}
	return d, nil
}
