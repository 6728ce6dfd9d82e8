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
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

var (
	okf   = color.New(color.FgGreen).PrintfFunc()
	failf = color.New(color.FgRed).PrintfFunc()
	infof = color.New(color.FgCyan, color.Bold).PrintfFunc()
)

// runTest go test ./... -count=1，只印 ok / FAIL 與建置錯誤
func runTest() error {
	infof("running tests\n")
	cmd := exec.Command("go", "test", "./...", "-count=1")
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "ok"):
			okf("%s\n", line)
		case strings.HasPrefix(line, "FAIL"),
			strings.Contains(line, "build failed"),
			strings.Contains(line, "setup failed"):
			failf("%s\n", line)
		}
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("tests finished with errors")
	}
	return nil
}

func runCover() error {
	infof("running tests with coverage\n")
	return passthrough("go", "test", "./...", "-cover", "-count=1")
}

// runDetail verbose，略過沒有測試檔的套件
func runDetail() error {
	infof("running tests (detail)\n")
	cmd := exec.Command("go", "test", "./...", "-v", "-count=1")
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		if line := sc.Text(); !strings.Contains(line, "[no test files]") {
			fmt.Println(line)
		}
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("tests finished with errors")
	}
	return nil
}

// runSmoke cmd/synth 產生紀錄後交給 cmd/replay，合成資料必須全部對帳
func runSmoke() error {
	dir, err := os.MkdirTemp("", "tumblelab-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	logPath := filepath.Join(dir, "spins.jsonl.zst")
	repPath := filepath.Join(dir, "report.json")

	infof("synth -> %s\n", logPath)
	if err := passthrough("go", "run", "./cmd/synth",
		"-game", "sweet_tumble", "-n", "2000", "-seed", "7", "-mult-weight", "0",
		"-progress=false", "-out", logPath); err != nil {
		return err
	}
	infof("replay -> %s\n", repPath)
	if err := passthrough("go", "run", "./cmd/replay",
		"-game", "sweet_tumble", "-in", logPath, "-workers", "4",
		"-progress=false", "-format", "json", "-out", repPath); err != nil {
		return err
	}

	data, err := os.ReadFile(repPath)
	if err != nil {
		return err
	}
	var rep struct {
		Summary struct{ Rounds int }
		Quality struct{ Unreconciled, Malformed, DeclaredDiffer int }
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		return err
	}
	q := rep.Quality
	if rep.Summary.Rounds != 2000 || q.Unreconciled != 0 || q.Malformed != 0 || q.DeclaredDiffer != 0 {
		return fmt.Errorf("smoke failed: rounds=%d unreconciled=%d malformed=%d declared_differ=%d",
			rep.Summary.Rounds, q.Unreconciled, q.Malformed, q.DeclaredDiffer)
	}
	okf("smoke ok: %d rounds reconciled\n", rep.Summary.Rounds)
	return nil
}

func passthrough(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
