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

package tumblelab

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/zintix-labs/tumblelab/dto"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
)

// SpinSource 免費遊戲每一局的來源。
//
// 沒有下一局時回傳 Kind 為 AutoplayHardStop 的錯誤。
type SpinSource interface {
	Next(ctx context.Context) (buf.Round, error)
}

// ItemSource 依序取出回應中預先算好的 freeSpin.items
type ItemSource struct {
	mu     sync.Mutex
	sr     *buf.SpinResult
	next   int
	limit  int
	served int
}

// NewItemSource limit <= 0 表示不限制
func NewItemSource(sr *buf.SpinResult, limit int) *ItemSource {
	return &ItemSource{sr: sr, limit: limit}
}

func (s *ItemSource) Next(ctx context.Context) (buf.Round, error) {
	if err := ctx.Err(); err != nil {
		return buf.Round{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sr == nil || s.sr.FreeSpin == nil {
		return buf.Round{}, errs.HardStopf("no valid free spins")
	}
	if s.limit > 0 && s.served >= s.limit {
		return buf.Round{}, errs.HardStopf("no valid free spins: limit %d reached", s.limit)
	}
	r, ok := s.sr.FreeSpin.ItemRound(s.sr.SpinID, s.sr.Bet, s.next)
	if !ok {
		return buf.Round{}, errs.HardStopf("no valid free spins: %d items played", s.next)
	}
	s.next++
	s.served++
	return r, nil
}

// Served 已取出的局數
func (s *ItemSource) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

const maxResponseBody = 4 << 20

// HTTPSource 每一局向遊戲伺服器 POST 一次取得新的回應。
//
// 422 且內容含 "no valid free spins" 視為硬停止。
type HTTPSource struct {
	Client *http.Client
	URL    string
	Body   []byte
	Header http.Header
}

func (s *HTTPSource) Next(ctx context.Context) (buf.Round, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(s.Body))
	if err != nil {
		return buf.Round{}, errs.Wrap(err, "build spin request failed")
	}
	for k, vs := range s.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	cli := s.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Do(req)
	if err != nil {
		return buf.Round{}, errs.Wrap(err, "spin request failed")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return buf.Round{}, errs.Wrap(err, "read spin response failed")
	}
	if err := dto.HardStopSignal(resp.StatusCode, body); err != nil {
		return buf.Round{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return buf.Round{}, errs.Warnf("spin endpoint returned status %d", resp.StatusCode)
	}
	sr, err := dto.Normalize(body)
	if err != nil {
		return buf.Round{}, err
	}
	return sr.BaseRound(), nil
}
