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

package recorder

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/klauspost/compress/zstd"
	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/dto"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/spec"
	"github.com/zintix-labs/tumblelab/stats"
)

// maxLine 單行回應上限，與 HTTPSource 的回應上限一致
const maxLine = 4 << 20

// LogConfig ReplayLog 參數
//
//   - Workers: 平行數，每個 worker 各自持有 Session 與 ReplayRecorder
//   - MaxFree: 每份回應最多播放的免費遊戲局數，0 表示不限制
//   - Zstd: 輸入是否為 zstd 壓縮
//   - Size / Progress: 輸入位元組數與進度條輸出；Size <= 0 或 Progress 為 nil 時不顯示
type LogConfig struct {
	Workers  int
	MaxFree  int
	Zstd     bool
	Size     int64
	Progress io.Writer
	Log      *slog.Logger
}

// IsZstdPath 以副檔名判斷紀錄檔是否壓縮
func IsZstdPath(path string) bool {
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".zst") || strings.HasSuffix(p, ".zstd")
}

// ReplayLog 逐行讀取 JSONL 格式的伺服器回應（空行與 # 開頭略過），每行重播一次並統計。
//
// 無法解析的行只計入 Malformed；其他錯誤中止整批並回傳。ctx 取消時回傳 ctx 的錯誤。
func ReplayLog(ctx context.Context, lab *tumblelab.Lab, gid spec.GID, r io.Reader, cfg LogConfig) (*stats.StatReport, time.Duration, error) {
	if lab == nil || r == nil {
		return nil, 0, errs.NewFatal("replay log requires a lab and a reader")
	}
	ent, ok := lab.EntryByID(gid)
	if !ok {
		return nil, 0, errs.Warnf("game %d does not exist in catalog", gid)
	}
	workers := max(1, cfg.Workers)
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	bar := pb.New64(cfg.Size)
	bar.Set(pb.Bytes, true)
	if cfg.Size <= 0 || cfg.Progress == nil {
		bar.SetWriter(io.Discard)
	} else {
		bar.SetWriter(cfg.Progress)
	}
	bar.Start()
	r = bar.NewProxyReader(r)

	if cfg.Zstd {
		zr, err := zstd.NewReader(r)
		if err != nil {
			bar.Finish()
			return nil, 0, errs.Wrap(err, "open zstd stream")
		}
		defer zr.Close()
		r = zr
	}

	sess := make([]*tumblelab.Session, workers)
	recs := make([]*ReplayRecorder, workers)
	for i := range workers {
		s, err := lab.NewSession(gid)
		if err != nil {
			bar.Finish()
			return nil, 0, err
		}
		sess[i] = s
		recs[i] = NewReplayRecorder(ent.Name, gid)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan []byte, 256)
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for i := range workers {
		go func(s *tumblelab.Session, rec *ReplayRecorder) {
			defer wg.Done()
			for line := range jobs {
				if err := replayLine(runCtx, s, rec, line, cfg.MaxFree, log); err != nil {
					fail(err)
					return
				}
			}
		}(sess[i], recs[i])
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLine)
	lineNo := 0
scan:
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		select {
		case jobs <- bytes.Clone(line):
		case <-runCtx.Done():
			break scan
		}
	}
	close(jobs)
	if err := sc.Err(); err != nil {
		fail(errs.Wrap(err, "read replay log"))
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if firstErr != nil {
		return nil, used, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, used, err
	}
	merged, err := MergeReplayRecorder(recs)
	if err != nil {
		return nil, used, err
	}
	log.Info("replay log done",
		slog.String("game", ent.Name),
		slog.Int("lines", lineNo),
		slog.Int("rounds", merged.Basic.Rounds),
		slog.Int("malformed", merged.Quality.Malformed),
		slog.Duration("used", used),
	)
	return merged.Done(), used, nil
}

func replayLine(ctx context.Context, s *tumblelab.Session, rec *ReplayRecorder, line []byte, maxFree int, log *slog.Logger) error {
	sr, err := dto.Normalize(line)
	if err != nil {
		rec.RecordMalformed()
		log.Debug("skip malformed line", slog.Any("err", err))
		return nil
	}
	res, err := s.Replay(ctx, sr, tumblelab.NopPacer{}, maxFree)
	switch {
	case err == nil:
		rec.Record(res)
		return nil
	case errs.IsKind(err, errs.KindMalformedResponse):
		rec.RecordMalformed()
		log.Debug("skip malformed free spin", slog.String("spin_id", sr.SpinID), slog.Any("err", err))
		return nil
	default:
		return errs.WrapWithExtra(err, "replay failed", sr.SpinID)
	}
}
