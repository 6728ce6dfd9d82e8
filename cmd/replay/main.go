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

package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/tumblelab/sdk/perf"
)

// 重播伺服器回應紀錄（JSONL，可為 .zst）並輸出統計報表
//
//	go run ./cmd/replay -game sweet_tumble -in spins.jsonl.zst -workers 4
func main() {
	bindVar()
	if err := perf.Run(cfg.pprof, "", execute); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
