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
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

// wire 區分大小寫：freeSpin 與 freespin 必須各自落在自己的欄位
var wire = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	CaseSensitive:          true,
}.Froze()

// hardStopBody 伺服器以 422 表示免費遊戲已用完
const hardStopBody = "no valid free spins"

// ============================================================
// ** 伺服器回應（原始形狀） **
// ============================================================

type rawResponse struct {
	SpinID string           `json:"spinId"`
	Bet    *decimal.Decimal `json:"bet"`
	Slot   *rawSlot         `json:"slot"`
}

type rawSlot struct {
	Area          [][]int16    `json:"area"`
	Tumbles       *[]rawTumble `json:"tumbles"`
	FreeSpin      *rawFreeSpin `json:"freeSpin,omitempty"`
	FreeSpinLower *rawFreeSpin `json:"freespin,omitempty"`
}

type rawTumble struct {
	Symbols struct {
		In  [][]int16 `json:"in"`
		Out []rawOut  `json:"out"`
	} `json:"symbols"`
	Win decimal.Decimal `json:"win"`
}

type rawOut struct {
	Symbol int16           `json:"symbol"`
	Count  int             `json:"count"`
	Win    decimal.Decimal `json:"win"`
}

type rawFreeSpin struct {
	Count     int             `json:"count"`
	TotalWin  decimal.Decimal `json:"totalWin"`
	Remaining *int            `json:"remainingFreeSpin,omitempty"`
	Items     []rawItem       `json:"items"`
}

type rawItem struct {
	SpinsLeft   *int            `json:"spinsLeft,omitempty"`
	Area        [][]int16       `json:"area"`
	TotalWin    decimal.Decimal `json:"totalWin"`
	Multipliers []int           `json:"multipliers,omitempty"`
	Tumbles     []rawTumble     `json:"tumbles"`
}

// ============================================================
// ** 正規化 **
// ============================================================

// Normalize 把伺服器回應轉成唯一的內部形狀 buf.SpinResult。
//
// 規則：
//   - 金額接受 JSON 字串或數字
//   - slot.freeSpin 與 slot.freespin 都接受；兩者同時存在時以 freeSpin 為準
//   - 缺少 spinId 時以 UUID 產生
//   - 缺少 slot / area / tumbles，或 area 不是矩形，回傳 MalformedResponse；不會回傳部分結果
func Normalize(data []byte) (*buf.SpinResult, error) {
	raw := rawResponse{}
	if err := wire.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return nil, errs.Malformedf("invalid spin response json: %v", err)
	}
	if raw.Slot == nil {
		return nil, errs.Malformedf("spin response without slot")
	}
	if raw.Bet == nil {
		return nil, errs.Malformedf("spin response without bet")
	}
	if raw.Bet.IsNegative() {
		return nil, errs.Malformedf("negative bet %s", raw.Bet)
	}
	if err := checkArea("slot.area", raw.Slot.Area); err != nil {
		return nil, err
	}
	if raw.Slot.Tumbles == nil {
		return nil, errs.Malformedf("spin response without slot.tumbles")
	}

	sr := &buf.SpinResult{
		SpinID: raw.SpinID,
		Bet:    *raw.Bet,
		Area:   raw.Slot.Area,
	}
	if sr.SpinID == "" {
		sr.SpinID = uuid.NewString()
	}
	tumbles, err := convertTumbles("slot.tumbles", *raw.Slot.Tumbles)
	if err != nil {
		return nil, err
	}
	sr.Tumbles = tumbles

	fs := raw.Slot.FreeSpin
	if fs == nil {
		fs = raw.Slot.FreeSpinLower
	}
	if fs != nil {
		if sr.FreeSpin, err = convertFreeSpin(fs); err != nil {
			return nil, err
		}
	}
	return sr, nil
}

// NormalizeReader 讀完 r 後呼叫 Normalize
func NormalizeReader(r io.Reader) (*buf.SpinResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(err, "read spin response")
	}
	return Normalize(data)
}

// HardStopSignal 判斷伺服器是否表示免費遊戲已無剩餘（HTTP 422 + "no valid free spins"）
func HardStopSignal(status int, body []byte) error {
	if status == http.StatusUnprocessableEntity && bytes.Contains(body, []byte(hardStopBody)) {
		return errs.HardStopf("server reports %s", hardStopBody)
	}
	return nil
}

// EncodeResponse 把 SpinResult 寫回伺服器回應形狀（camelCase、金額為字串），Normalize 可以原樣讀回
func EncodeResponse(sr *buf.SpinResult) ([]byte, error) {
	if sr == nil {
		return nil, errs.NewFatal("encode nil spin result")
	}
	bet := sr.Bet
	tumbles := encodeTumbles(sr.Tumbles)
	raw := rawResponse{
		SpinID: sr.SpinID,
		Bet:    &bet,
		Slot: &rawSlot{
			Area:    sr.Area,
			Tumbles: &tumbles,
		},
	}
	if fs := sr.FreeSpin; fs != nil {
		rf := &rawFreeSpin{
			Count:     fs.Count,
			TotalWin:  fs.TotalWin,
			Remaining: fs.Remaining,
			Items:     make([]rawItem, len(fs.Items)),
		}
		for i, it := range fs.Items {
			rf.Items[i] = rawItem{
				SpinsLeft:   it.SpinsLeft,
				Area:        it.Area,
				TotalWin:    it.TotalWin,
				Multipliers: it.Multipliers,
				Tumbles:     encodeTumbles(it.Tumbles),
			}
		}
		raw.Slot.FreeSpin = rf
	}
	data, err := wire.Marshal(&raw)
	if err != nil {
		return nil, errs.Wrap(err, "encode spin response")
	}
	return data, nil
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

func checkArea(name string, area [][]int16) error {
	if len(area) == 0 {
		return errs.Malformedf("%s is missing", name)
	}
	rows := len(area[0])
	for c, col := range area {
		if len(col) == 0 || len(col) != rows {
			return errs.Malformedf("%s column %d has %d rows, want %d", name, c, len(col), rows)
		}
		for r, v := range col {
			if v < grid.Empty || v > spec.MaxSymbol {
				return errs.Malformedf("%s[%d][%d] invalid symbol %d", name, c, r, v)
			}
		}
	}
	return nil
}

func convertTumbles(name string, raws []rawTumble) ([]buf.TumbleStep, error) {
	steps := make([]buf.TumbleStep, len(raws))
	for i, rt := range raws {
		st := buf.TumbleStep{
			Ins: rt.Symbols.In,
			Win: rt.Win,
		}
		if len(rt.Symbols.Out) > 0 {
			st.Outs = make([]buf.Out, len(rt.Symbols.Out))
		}
		for k, o := range rt.Symbols.Out {
			if o.Count < 0 || o.Symbol < 0 || o.Symbol > spec.MaxSymbol {
				return nil, errs.Malformedf("%s[%d].out[%d] invalid symbol=%d count=%d", name, i, k, o.Symbol, o.Count)
			}
			st.Outs[k] = buf.Out{Symbol: o.Symbol, Count: o.Count, Win: o.Win}
		}
		for c, col := range rt.Symbols.In {
			for r, v := range col {
				if v < 0 || v > spec.MaxSymbol {
					return nil, errs.Malformedf("%s[%d].in[%d][%d] invalid symbol %d", name, i, c, r, v)
				}
			}
		}
		steps[i] = st
	}
	return steps, nil
}

func convertFreeSpin(raw *rawFreeSpin) (*buf.FreeSpin, error) {
	fs := &buf.FreeSpin{
		Count:     raw.Count,
		TotalWin:  raw.TotalWin,
		Remaining: raw.Remaining,
	}
	if raw.Count < 0 {
		return nil, errs.Malformedf("freeSpin.count is negative: %d", raw.Count)
	}
	if len(raw.Items) > 0 {
		fs.Items = make([]buf.FreeSpinItem, len(raw.Items))
	}
	for i, it := range raw.Items {
		if err := checkArea("freeSpin.items.area", it.Area); err != nil {
			return nil, errs.WrapWithExtra(err, "invalid free spin item", strconv.Itoa(i))
		}
		tumbles, err := convertTumbles("freeSpin.items.tumbles", it.Tumbles)
		if err != nil {
			return nil, err
		}
		fs.Items[i] = buf.FreeSpinItem{
			SpinsLeft:   it.SpinsLeft,
			Area:        it.Area,
			TotalWin:    it.TotalWin,
			Multipliers: it.Multipliers,
			Tumbles:     tumbles,
		}
	}
	return fs, nil
}

func encodeTumbles(steps []buf.TumbleStep) []rawTumble {
	raws := make([]rawTumble, len(steps))
	for i, st := range steps {
		raws[i].Win = st.Win
		raws[i].Symbols.In = st.Ins
		raws[i].Symbols.Out = make([]rawOut, len(st.Outs))
		for k, o := range st.Outs {
			raws[i].Symbols.Out[k] = rawOut{Symbol: o.Symbol, Count: o.Count, Win: o.Win}
		}
	}
	return raws
}
