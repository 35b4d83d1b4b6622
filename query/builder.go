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

package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

var (
	// ErrNotANumber is returned when a page number or size cannot be read as a number.
	ErrNotANumber = errors.New("value is not a number")

	// ErrQueryBuilderNotSupported is returned for connections without a SQL dialect.
	ErrQueryBuilderNotSupported = errors.New("query builder is not supported by this connection")
)

// SelectQueryBuilder is a bun select query with page based windowing.
//
// Chaining the embedded bun methods keeps working on the same query; the
// window recorded by Paginate and PaginateRaw is applied when the query is
// scanned or rendered.
type SelectQueryBuilder struct {
	*bun.SelectQuery

	take, skip    *int
	limit, offset *int
}

// Window is the pagination state recorded on a builder. Nil fields are unset.
type Window struct {
	Take, Skip    *int
	Limit, Offset *int
}

// NewSelectQueryBuilder starts a select query on db, optionally bound to model.
func NewSelectQueryBuilder(db bun.IDB, model any) (*SelectQueryBuilder, error) {
	if db == nil {
		return nil, ErrQueryBuilderNotSupported
	}
	if d, ok := db.(*bun.DB); ok && d == nil {
		return nil, ErrQueryBuilderNotSupported
	}
	if db.Dialect() == nil || db.Dialect().Name() == dialect.Invalid {
		return nil, ErrQueryBuilderNotSupported
	}
	q := db.NewSelect()
	if model != nil {
		q = q.Model(model)
	}
	return &SelectQueryBuilder{SelectQuery: q}, nil
}

// Paginate selects page current (1-based) of the given size: take = size and
// skip = (current-1)*size. A nil argument leaves its part of the window unset.
func (b *SelectQueryBuilder) Paginate(current, size any) (*SelectQueryBuilder, error) {
	take, skip, err := window(current, size)
	if err != nil {
		return b, err
	}
	b.take, b.skip = take, skip
	return b, nil
}

// PaginateRaw is Paginate expressed as a raw LIMIT and OFFSET. A window set by
// Paginate takes precedence.
func (b *SelectQueryBuilder) PaginateRaw(current, size any) (*SelectQueryBuilder, error) {
	limit, offset, err := window(current, size)
	if err != nil {
		return b, err
	}
	b.limit, b.offset = limit, offset
	return b, nil
}

// When applies fn only if cond holds.
func (b *SelectQueryBuilder) When(cond bool, fn func(*SelectQueryBuilder) *SelectQueryBuilder) *SelectQueryBuilder {
	if !cond || fn == nil {
		return b
	}
	if next := fn(b); next != nil {
		return next
	}
	return b
}

// FromSubquery selects from sub under the given alias.
func (b *SelectQueryBuilder) FromSubquery(sub *SelectQueryBuilder, alias string) *SelectQueryBuilder {
	b.SelectQuery = b.SelectQuery.TableExpr("(?) AS ?", sub.Query(), bun.Ident(alias))
	return b
}

// Window returns the recorded pagination state.
func (b *SelectQueryBuilder) Window() Window {
	return Window{Take: b.take, Skip: b.skip, Limit: b.limit, Offset: b.offset}
}

// Query returns the bun query with the window applied.
func (b *SelectQueryBuilder) Query() *bun.SelectQuery {
	limit, offset := b.limit, b.offset
	if b.take != nil {
		limit = b.take
	}
	if b.skip != nil {
		offset = b.skip
	}
	q := b.SelectQuery
	if limit != nil {
		q = q.Limit(*limit)
	}
	if offset != nil {
		q = q.Offset(*offset)
	}
	return q
}

func (b *SelectQueryBuilder) Scan(ctx context.Context, dest ...any) error {
	return b.Query().Scan(ctx, dest...)
}

func (b *SelectQueryBuilder) ScanAndCount(ctx context.Context, dest ...any) (int, error) {
	return b.Query().ScanAndCount(ctx, dest...)
}

func (b *SelectQueryBuilder) String() string {
	return b.Query().String()
}

func window(current, size any) (n, offset *int, err error) {
	c, hasCurrent, err := types.ToNumber(current)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: current %v", ErrNotANumber, current)
	}
	s, hasSize, err := types.ToNumber(size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: size %v", ErrNotANumber, size)
	}
	if !hasSize {
		return nil, nil, nil
	}
	n = &s
	if hasCurrent {
		o := (c - 1) * s
		offset = &o
	}
	return n, offset, nil
}
