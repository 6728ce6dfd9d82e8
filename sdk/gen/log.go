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

package gen

import (
	"bufio"
	"context"
	"io"

	"github.com/zintix-labs/tumblelab/dto"
	"github.com/zintix-labs/tumblelab/errs"
)

// WriteLog 逐行寫出 n 筆回應（JSONL），每寫完一行呼叫 onLine（可為 nil）
func WriteLog(ctx context.Context, w io.Writer, g *ResponseGenerator, n int, onLine func()) error {
	bw := bufio.NewWriterSize(w, 64<<10)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sr, err := g.Next()
		if err != nil {
			return err
		}
		line, err := dto.EncodeResponse(sr)
		if err != nil {
			return err
		}
		if _, err := bw.Write(line); err != nil {
			return errs.Wrap(err, "write synthetic log")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errs.Wrap(err, "write synthetic log")
		}
		if onLine != nil {
			onLine()
		}
	}
	if err := bw.Flush(); err != nil {
		return errs.Wrap(err, "flush synthetic log")
	}
	return nil
}
