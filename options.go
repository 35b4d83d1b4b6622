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

package bunplus

import (
	"time"

	"github.com/tomoncle/bunplus/database"
	"github.com/tomoncle/bunplus/scope"
)

// DefaultSoftDeleteField is the column stamped by soft removes and deletes.
const DefaultSoftDeleteField = "deleted_at"

type options struct {
	scopes          scope.Table
	hasScopes       bool
	registry        *scope.Registry
	logger          database.Logger
	now             func() time.Time
	softDeleteField string
	strictUnique    bool
}

// Option configures a Repository.
type Option func(*options)

// WithScopes sets the scope table of the repository, overriding any
// registered or entity declared table.
func WithScopes(table scope.Table) Option {
	return func(o *options) {
		o.scopes = table.Clone()
		o.hasScopes = true
	}
}

// WithRegistry looks the scope table up in registry.
func WithRegistry(registry *scope.Registry) Option {
	return func(o *options) { o.registry = registry }
}

func WithLogger(logger database.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now for soft delete timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSoftDeleteField names the column, or Go field, stamped on soft delete.
func WithSoftDeleteField(field string) Option {
	return func(o *options) {
		if field != "" {
			o.softDeleteField = field
		}
	}
}

// WithStrictUnique also reports duplicate key errors raised by the database
// during a write as ErrEntityNotUnique.
func WithStrictUnique() Option {
	return func(o *options) { o.strictUnique = true }
}

func newOptions(opts []Option) *options {
	o := &options{
		now:             time.Now,
		softDeleteField: DefaultSoftDeleteField,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = database.GetLogger()
	}
	return o
}
