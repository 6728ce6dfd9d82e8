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

package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLevel : Error 分級，讓最上層知道問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 錯誤分類。與 ErrLevel 正交：Level 決定處理方式，Kind 決定是哪一類問題。
type Kind uint8

const (
	KindNone Kind = iota
	KindReconciliation
	KindMalformedResponse
	KindIndexOutOfRange
	KindAutoplayHardStop
)

var kindMap = map[Kind]string{
	KindNone:              "",
	KindReconciliation:    "reconciliation",
	KindMalformedResponse: "malformed_spin_response",
	KindIndexOutOfRange:   "index_out_of_range",
	KindAutoplayHardStop:  "autoplay_hard_stop",
}

func (k Kind) String() string {
	return kindMap[k]
}

// 哨兵錯誤：只用來做 errors.Is 比對 Kind
var (
	ErrReconciliation    = &E{Kind: KindReconciliation, ErrLv: Warn, Message: "reconciliation error"}
	ErrMalformedResponse = &E{Kind: KindMalformedResponse, ErrLv: Warn, Message: "malformed spin response"}
	ErrIndexOutOfRange   = &E{Kind: KindIndexOutOfRange, ErrLv: Fatal, Message: "index out of range"}
	ErrAutoplayHardStop  = &E{Kind: KindAutoplayHardStop, ErrLv: Log, Message: "autoplay hard stop"}
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文；Cause 串接下層錯誤；
// ErrLv 為嚴重度；Kind 為分類（可為 KindNone）。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Kind != KindNone {
		base = fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), e.Kind, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

func (e *E) Unwrap() error { return e.Cause }

// Is 讓 errors.Is(err, ErrReconciliation) 之類的比對只看 Kind。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Kind == KindNone {
		return false
	}
	return e.Kind == t.Kind
}

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// ============================================================
// ** 分類錯誤 **
// ============================================================

// Reconcilef 伺服器宣告的消除/補入數量與盤面不符。可恢復，只記錄。
func Reconcilef(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Kind: KindReconciliation}
}

// Malformedf 回應缺少必要欄位或形狀錯誤。交給呼叫端處理，不做部分建盤。
func Malformedf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Kind: KindMalformedResponse}
}

// OutOfRangef 盤面存取越界，屬於程式錯誤。
func OutOfRangef(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Fatal, Kind: KindIndexOutOfRange}
}

// HardStopf 後端通知免費遊戲已無可用次數，是正常結束路徑。
func HardStopf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Log, Kind: KindAutoplayHardStop}
}

// Wrap 使用給定訊息包裝底層錯誤。
//
// ErrLevel / Kind 規則：
//   - 若 cause 已經是 *E，沿用其 ErrLv 與 Kind。
//   - 否則（標準庫或三方依賴錯誤）一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	r := New(Fatal, msg)
	if errors.As(cause, &e) {
		r.ErrLv = e.ErrLv
		r.Kind = e.Kind
	}
	r.Cause = cause
	return r
}

// WrapWithExtra 同 Wrap，另附上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// IsKind 檢查錯誤鏈中是否有指定 Kind。
func IsKind(err error, k Kind) bool {
	if err == nil || k == KindNone {
		return false
	}
	return errors.Is(err, &E{Kind: k})
}

// Join 把多個 Warn 級錯誤合併成一個。全部為 nil 時回傳 nil。
// 結果的 ErrLv 取最嚴重者（Fatal > Warn > Log），Kind 在全部一致時保留。
func Join(list ...error) error {
	var (
		msgs  []string
		lv    ErrLevel
		kind  Kind
		first = true
		kept  []error
	)
	for _, err := range list {
		if err == nil {
			continue
		}
		kept = append(kept, err)
		msgs = append(msgs, err.Error())
		elv, ek := Fatal, KindNone
		if e, ok := AsErr(err); ok {
			elv, ek = e.ErrLv, e.Kind
		}
		if first {
			lv, kind, first = elv, ek, false
			continue
		}
		if severity(elv) > severity(lv) {
			lv = elv
		}
		if ek != kind {
			kind = KindNone
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &E{
		Message: fmt.Sprintf("%d errors", len(kept)),
		Extra:   strings.Join(msgs, "; "),
		Cause:   errors.Join(kept...),
		ErrLv:   lv,
		Kind:    kind,
	}
}

func severity(lv ErrLevel) int {
	switch lv {
	case Fatal:
		return 3
	case Warn:
		return 2
	case Log:
		return 1
	default:
		return 0
	}
}
