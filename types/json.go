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
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Int64String is an int64 that travels over JSON as a decimal string.
// Numbers are accepted on input as well.
type Int64String int64

// MarshalJSON implements json.Marshaler.
func (i Int64String) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(i), 10))
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *Int64String) UnmarshalJSON(b []byte) error {
	v, err := parseInt64JSON(b)
	if err != nil {
		return err
	}
	if v == nil {
		return errors.New("int64 string cannot be empty")
	}
	*i = Int64String(*v)
	return nil
}

// Value implements driver.Valuer.
func (i Int64String) Value() (driver.Value, error) {
	return int64(i), nil
}

// Scan implements sql.Scanner.
func (i *Int64String) Scan(value interface{}) error {
	switch v := value.(type) {
	case int64:
		*i = Int64String(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return err
		}
		*i = Int64String(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*i = Int64String(n)
	default:
		return fmt.Errorf("cannot scan %T into Int64String", value)
	}
	return nil
}

// OptionalInt64 is an optional identifier: "" and null decode to absence.
type OptionalInt64 struct {
	Int64 int64
	Valid bool
}

// SomeInt64 returns a present OptionalInt64.
func SomeInt64(v int64) OptionalInt64 {
	return OptionalInt64{Int64: v, Valid: true}
}

// MarshalJSON implements json.Marshaler.
func (o OptionalInt64) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(strconv.FormatInt(o.Int64, 10))
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalInt64) UnmarshalJSON(b []byte) error {
	v, err := parseInt64JSON(b)
	if err != nil {
		return err
	}
	if v == nil {
		*o = OptionalInt64{}
		return nil
	}
	*o = SomeInt64(*v)
	return nil
}

// IsZero reports absence, letting Bun's nullzero write NULL.
func (o OptionalInt64) IsZero() bool { return !o.Valid }

// Value implements driver.Valuer; absence is stored as NULL.
func (o OptionalInt64) Value() (driver.Value, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Int64, nil
}

// Scan implements sql.Scanner.
func (o *OptionalInt64) Scan(value interface{}) error {
	if value == nil {
		*o = OptionalInt64{}
		return nil
	}
	var v Int64String
	if err := v.Scan(value); err != nil {
		return err
	}
	*o = SomeInt64(int64(v))
	return nil
}

// parseInt64JSON returns nil for null and the empty string.
func parseInt64JSON(b []byte) (*int64, error) {
	if string(b) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if numErr := json.Unmarshal(b, &n); numErr != nil {
			return nil, err
		}
		s = n.String()
	}
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid int64 %q: %w", s, err)
	}
	return &v, nil
}
