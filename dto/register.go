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
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/tumblelab/errs"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

var spinIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:/-]+$`)

// RegisterValidation 註冊自訂 tag，必須在第一次 Validate 之前呼叫才會套用到快取的結構資訊
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

// Validate 以 struct tag 檢查請求，失敗時回傳 Warn 級錯誤（對應 HTTP 400）
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	fields := FormatValidationError(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return errs.NewWithExtra(errs.Warn, "invalid request", strings.Join(parts, "; "))
}

// FormatValidationError 轉成欄位 -> 訊息，避免把內部結構名稱外洩
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := make(map[string]string)
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		out["error"] = "invalid request format"
		return out
	}
	for _, e := range ves {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required", "required_without":
			out[field] = "this field is required"
		case "spinid":
			out[field] = "only letters, digits and ._:/- are allowed"
		case "max":
			out[field] = fmt.Sprintf("must be at most %s", e.Param())
		case "min", "gte":
			out[field] = fmt.Sprintf("must be at least %s", e.Param())
		case "lte":
			out[field] = fmt.Sprintf("must be at most %s", e.Param())
		default:
			out[field] = "invalid value"
		}
	}
	return out
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// 以 json tag 當欄位名稱回報
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("spinid", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || spinIDPattern.MatchString(s)
		})
		validate = v
	})
	return validate
}
