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
)

// 開發用任務
//
//	go run ./scripts test | cover | detail | smoke
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|cover|detail|smoke]")
		os.Exit(1)
	}
	if err := selectTask(os.Args[1]); err != nil {
		failf("%v", err)
		os.Exit(1)
	}
}

func selectTask(task string) error {
	switch task {
	case "test":
		return runTest()
	case "cover":
		return runCover()
	case "detail":
		return runDetail()
	case "smoke":
		return runSmoke()
	default:
		return fmt.Errorf("unknown task: %s", task)
	}
}
