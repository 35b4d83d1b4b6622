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

package repository

import (
	"context"
	"errors"

	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ErrEntityNotFound is returned by FindOneOrFail when no row matches.
var ErrEntityNotFound = errors.New("entity not found")

// FinderRepository defines the read operations of the engine.
type FinderRepository[T any] interface {
	Find(ctx context.Context, query types.Query) ([]*T, error)

	// FindOne returns nil and no error when nothing matches.
	FindOne(ctx context.Context, query types.Query) (*T, error)

	FindOneOrFail(ctx context.Context, query types.Query) (*T, error)

	Count(ctx context.Context, query types.Query) (int, error)

	FindAndCount(ctx context.Context, query types.Query) ([]*T, int, error)
}

// WriterRepository defines the write operations of the engine.
type WriterRepository[T any] interface {
	// Save inserts entities without a primary key and upserts the others.
	Save(ctx context.Context, entity ...*T) error

	Insert(ctx context.Context, entity ...*T) (types.InsertResult, error)

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Update(ctx context.Context, criteria types.Query, values types.Conditions) (types.UpdateResult, error)

	Delete(ctx context.Context, criteria types.Query) (types.DeleteResult, error)

	Remove(ctx context.Context, entity ...*T) error
}

// Repository combines read and write operations, binds to transactions and
// exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	FinderRepository[T]
	WriterRepository[T]
	// WithTx returns a repository running on tx. The query cache is shared.
	WithTx(tx bun.IDB) Repository[T]
	Meta() *EntityMeta
	DB() bun.IDB
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
