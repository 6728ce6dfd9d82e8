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
	"encoding/json"
	"io"
	"net/http"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/spec"
)

// maxBody 請求大小上限（1MiB）
const maxBody = 1 << 20

// ResolveRequest 解析單一回合
//
//   - game / gid 擇一指定遊戲
//   - in_bonus: 是否以免費遊戲規則判定 Scatter（追加而非觸發）
//   - spin_id: 可選；覆蓋回應中的 spinId
//   - response: 伺服器原始回應，原封不動帶入
type ResolveRequest struct {
	GameName string          `json:"game"     validate:"required_without=GameID,max=64"`
	GameID   spec.GID        `json:"gid"`
	InBonus  bool            `json:"in_bonus"`
	SpinID   string          `json:"spin_id"  validate:"omitempty,max=128,spinid"`
	Response json.RawMessage `json:"response" validate:"required"`
}

// ReplayRequest 解析一份完整回應（含免費遊戲 items），由 Autoplay 驅動
//
//   - max_free_spins: 免費遊戲上限，0 表示不限制
type ReplayRequest struct {
	GameName     string          `json:"game"           validate:"required_without=GameID,max=64"`
	GameID       spec.GID        `json:"gid"`
	SpinID       string          `json:"spin_id"        validate:"omitempty,max=128,spinid"`
	MaxFreeSpins int             `json:"max_free_spins" validate:"gte=0,lte=10000"`
	Response     json.RawMessage `json:"response"       validate:"required"`
}

// DecodeResolveRequest 只接受 POST JSON；未知欄位直接拒絕
func DecodeResolveRequest(r *http.Request) (*ResolveRequest, error) {
	req := new(ResolveRequest)
	if err := decodeJSONBody(r, req); err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// DecodeReplayRequest 同 DecodeResolveRequest
func DecodeReplayRequest(r *http.Request) (*ReplayRequest, error) {
	req := new(ReplayRequest)
	if err := decodeJSONBody(r, req); err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeJSONBody(r *http.Request, v any) error {
	if r == nil {
		return errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return errs.Warnf("method %s not allowed", r.Method)
	}
	// 防止 body 過大
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Warnf("invalid json: %v", err)
	}
	return nil
}
