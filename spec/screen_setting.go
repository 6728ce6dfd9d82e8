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

package spec

import (
	"fmt"

	"github.com/zintix-labs/tumblelab/errs"
)

// 盤面上限：hit 索引以 int16 表示
const maxScreenSize = 1 << 14

type ScreenSetting struct {
	Columns    int `yaml:"columns"   json:"columns"`
	Rows       int `yaml:"rows"      json:"rows"`
	ScreenSize int `yaml:"-"         json:"-"`
	initFlag   bool
}

func (ss *ScreenSetting) Init() error {
	if ss.initFlag {
		return nil
	}
	if ss.Columns <= 0 || ss.Rows <= 0 {
		return errs.NewFatal(fmt.Sprintf("invalid screen dimensions: cols=%d rows=%d", ss.Columns, ss.Rows))
	}
	ss.ScreenSize = ss.Rows * ss.Columns
	if ss.ScreenSize > maxScreenSize {
		return errs.NewFatal(fmt.Sprintf("screen too large: %d cells", ss.ScreenSize))
	}
	ss.initFlag = true
	return nil
}
