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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/bunplus/cache"
	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

// Option configures an engine repository.
type Option func(*options)

type options struct {
	cache cache.QueryCache
}

// WithQueryCache enables caching for reads whose options carry CacheOptions.
func WithQueryCache(c cache.QueryCache) Option {
	return func(o *options) { o.cache = c }
}

type baseRepositoryImpl[T any] struct {
	db    bun.IDB
	meta  *EntityMeta
	cache cache.QueryCache
}

// NewRepository returns a generic repository backed by the provided Bun DB,
// transaction or connection.
func NewRepository[T any](db bun.IDB, opts ...Option) Repository[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &baseRepositoryImpl[T]{db: db, meta: MetaOf[T](), cache: o.cache}
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: tx, meta: r.meta, cache: r.cache}
}

func (r *baseRepositoryImpl[T]) Meta() *EntityMeta { return r.meta }

func (r *baseRepositoryImpl[T]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) ValsToSlice(entity ...*T) []*T {
	entities := make([]*T, len(entity))
	copy(entities, entity)
	return entities
}

func (r *baseRepositoryImpl[T]) selectQuery(model any, query types.Query) *bun.SelectQuery {
	return applyFind(r.db.NewSelect().Model(model), query, r.meta.PrimaryKeyName())
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, query types.Query) ([]*T, error) {
	var entities []*T
	q := r.selectQuery(&entities, query)
	return loadCached(ctx, r, opFind, q, query, func(ctx context.Context) ([]*T, error) {
		if err := q.Scan(ctx); err != nil {
			return nil, err
		}
		return entities, nil
	})
}

func (r *baseRepositoryImpl[T]) FindOne(ctx context.Context, query types.Query) (*T, error) {
	entity := new(T)
	q := r.selectQuery(entity, query).Limit(1)
	return loadCached(ctx, r, opFindOne, q, query, func(ctx context.Context) (*T, error) {
		err := q.Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return entity, nil
	})
}

func (r *baseRepositoryImpl[T]) FindOneOrFail(ctx context.Context, query types.Query) (*T, error) {
	entity, err := r.FindOne(ctx, query)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, r.meta.Table)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, query types.Query) (int, error) {
	return r.selectQuery((*T)(nil), query).Count(ctx)
}

type countedPage[T any] struct {
	Items []*T
	Total int
}

func (r *baseRepositoryImpl[T]) FindAndCount(ctx context.Context, query types.Query) ([]*T, int, error) {
	var entities []*T
	q := r.selectQuery(&entities, query)
	page, err := loadCached(ctx, r, opFindAndCount, q, query, func(ctx context.Context) (countedPage[T], error) {
		total, err := q.ScanAndCount(ctx)
		if err != nil {
			return countedPage[T]{}, err
		}
		return countedPage[T]{Items: entities, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

func (r *baseRepositoryImpl[T]) Save(ctx context.Context, entity ...*T) error {
	var inserts, updates []*T
	for _, e := range entity {
		if r.meta.IsNew(e) {
			inserts = append(inserts, e)
		} else {
			updates = append(updates, e)
		}
	}
	if len(inserts) > 0 {
		if _, err := r.db.NewInsert().Model(&inserts).Exec(ctx); err != nil {
			return err
		}
	}
	if len(updates) > 0 {
		return r.multipleUpsert(ctx, r.meta.DataColumnNames(), r.meta.PrimaryKeyNames(), updates...)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Insert(ctx context.Context, entity ...*T) (types.InsertResult, error) {
	entities := r.ValsToSlice(entity...)
	res, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	if err != nil {
		return types.InsertResult{}, err
	}
	n, _ := res.RowsAffected()
	return types.InsertResult{RowsAffected: n}, nil
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, criteria types.Query, values types.Conditions) (types.UpdateResult, error) {
	if len(values) == 0 {
		return types.UpdateResult{}, fmt.Errorf("update %s: values cannot be empty", r.meta.Table)
	}
	q := r.db.NewUpdate().Model((*T)(nil))
	for _, col := range sortedKeys(values) {
		q = q.Set("? = ?", bun.Ident(col), values[col])
	}
	q = applyWhere(q, criteria, r.meta.PrimaryKeyName(), false)
	if !hasFilter(criteria) {
		q = q.Where("1 = 1")
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return types.UpdateResult{}, err
	}
	n, _ := res.RowsAffected()
	return types.UpdateResult{RowsAffected: n}, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, criteria types.Query) (types.DeleteResult, error) {
	q := applyWhere(r.db.NewDelete().Model((*T)(nil)), criteria, r.meta.PrimaryKeyName(), false)
	if !hasFilter(criteria) {
		q = q.Where("1 = 1")
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return types.DeleteResult{}, err
	}
	n, _ := res.RowsAffected()
	return types.DeleteResult{RowsAffected: n}, nil
}

func (r *baseRepositoryImpl[T]) Remove(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := r.ValsToSlice(entity...)
	_, err := r.db.NewDelete().Model(&entities).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}

	insertQuery := r.db.NewInsert()
	entities := r.ValsToSlice(entity...)

	features := r.db.Dialect().Features()
	if features.Has(feature.InsertOnConflict) {
		return r.upsertWithPostgresqlOrSQLite(ctx, insertQuery, fields, duplicateKeys, entities)
	} else if features.Has(feature.InsertOnDuplicateKey) {
		return r.upsertWithMySQL(ctx, insertQuery, fields, entities)
	} else {
		// Fallback: Separate insert/update logic
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertWithMySQL(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = VALUES(%s)", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertWithPostgresqlOrSQLite(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{r.meta.PrimaryKeyName()}
	}
	keyNames := strings.Join(duplicateKeys, ",")
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = EXCLUDED.%s", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("CONFLICT (" + keyNames + ") DO UPDATE").
		Set(strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		_, err := r.db.NewInsert().Model(entity).Exec(ctx)
		if err != nil {
			_, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
			if updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %v", err, updateErr)
			}
		}
	}
	return nil
}

func hasFilter(query types.Query) bool {
	switch v := query.(type) {
	case types.Conditions:
		return len(v) > 0
	case types.Identifier:
		return true
	case *types.FindOneOptions, *types.FindManyOptions:
		opts := types.Options(v)
		return opts != nil && (len(opts.Where) > 0 || (opts.WhereRaw != nil && opts.WhereRaw.Schema != ""))
	}
	return false
}
