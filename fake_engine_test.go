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
	"context"

	"github.com/tomoncle/bunplus/repository"
	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type updateCall struct {
	criteria types.Query
	values   types.Conditions
}

// fakeEngine records what the facade hands to the engine.
type fakeEngine[T any] struct {
	meta    *repository.EntityMeta
	reads   []types.Query
	counts  func(types.Query) int
	saved   []*T
	removed []*T
	updates []updateCall
	deletes []types.Query
	saveErr error
}

var _ repository.Repository[user] = (*fakeEngine[user])(nil)

func newFakeEngine[T any]() *fakeEngine[T] {
	return &fakeEngine[T]{meta: repository.MetaOf[T]()}
}

func (f *fakeEngine[T]) last() types.Query {
	if len(f.reads) == 0 {
		return nil
	}
	return f.reads[len(f.reads)-1]
}

func (f *fakeEngine[T]) Find(_ context.Context, q types.Query) ([]*T, error) {
	f.reads = append(f.reads, q)
	return nil, nil
}

func (f *fakeEngine[T]) FindOne(_ context.Context, q types.Query) (*T, error) {
	f.reads = append(f.reads, q)
	return nil, nil
}

func (f *fakeEngine[T]) FindOneOrFail(_ context.Context, q types.Query) (*T, error) {
	f.reads = append(f.reads, q)
	return nil, repository.ErrEntityNotFound
}

func (f *fakeEngine[T]) Count(_ context.Context, q types.Query) (int, error) {
	f.reads = append(f.reads, q)
	if f.counts == nil {
		return 0, nil
	}
	return f.counts(q), nil
}

func (f *fakeEngine[T]) FindAndCount(_ context.Context, q types.Query) ([]*T, int, error) {
	f.reads = append(f.reads, q)
	return nil, 0, nil
}

func (f *fakeEngine[T]) Save(_ context.Context, entity ...*T) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, entity...)
	return nil
}

func (f *fakeEngine[T]) Insert(_ context.Context, entity ...*T) (types.InsertResult, error) {
	if f.saveErr != nil {
		return types.InsertResult{}, f.saveErr
	}
	f.saved = append(f.saved, entity...)
	return types.InsertResult{RowsAffected: int64(len(entity))}, nil
}

func (f *fakeEngine[T]) Upsert(_ context.Context, _ []string, _ []string, entity ...*T) error {
	f.saved = append(f.saved, entity...)
	return nil
}

func (f *fakeEngine[T]) Update(_ context.Context, criteria types.Query, values types.Conditions) (types.UpdateResult, error) {
	f.updates = append(f.updates, updateCall{criteria: criteria, values: values})
	return types.UpdateResult{RowsAffected: 1}, nil
}

func (f *fakeEngine[T]) Delete(_ context.Context, criteria types.Query) (types.DeleteResult, error) {
	f.deletes = append(f.deletes, criteria)
	return types.DeleteResult{RowsAffected: 1}, nil
}

func (f *fakeEngine[T]) Remove(_ context.Context, entity ...*T) error {
	f.removed = append(f.removed, entity...)
	return nil
}

func (f *fakeEngine[T]) WithTx(bun.IDB) repository.Repository[T] { return f }

func (f *fakeEngine[T]) Meta() *repository.EntityMeta { return f.meta }

func (f *fakeEngine[T]) DB() bun.IDB { return nil }

func (f *fakeEngine[T]) Dialect() schema.Dialect { return nil }

func (f *fakeEngine[T]) NewSelect() *bun.SelectQuery { return nil }

func (f *fakeEngine[T]) NewInsert() *bun.InsertQuery { return nil }

func (f *fakeEngine[T]) NewUpdate() *bun.UpdateQuery { return nil }

func (f *fakeEngine[T]) NewDelete() *bun.DeleteQuery { return nil }
