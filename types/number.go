/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"errors"
	"math"
	"strings"

	"github.com/spf13/cast"
)

var errNaN = errors.New("not a number")

// ToNumber coerces numbers and numeric strings to an int. ok is false when v
// is nil, which callers treat as "not provided".
func ToNumber(v any) (n int, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case *int:
		if x == nil {
			return 0, false, nil
		}
		return *x, true, nil
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return 0, true, errNaN
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, true, errNaN
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true, errNaN
		}
		f, err := cast.ToFloat64E(s)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, true, errNaN
		}
		return int(f), true, nil
	case bool:
		return 0, true, errNaN
	}
	n, err = cast.ToIntE(v)
	if err != nil {
		return 0, true, errNaN
	}
	return n, true, nil
}

// IsNumeric reports whether v is a number or a numeric string.
func IsNumeric(v any) bool {
	if v == nil {
		return false
	}
	_, _, err := ToNumber(v)
	return err == nil
}
