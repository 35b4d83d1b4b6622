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
	"fmt"
	"reflect"

	"github.com/tomoncle/bunplus/database"
	"github.com/tomoncle/bunplus/query"
	"github.com/tomoncle/bunplus/repository"
	"github.com/tomoncle/bunplus/scope"
	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
)

// Repository decorates the engine repository of T with scopes, uniqueness
// checks and soft deletes.
type Repository[T any] interface {
	// Find returns every entity matching q within the selected scope.
	Find(ctx context.Context, q types.Query) ([]*T, error)

	// FindOne returns the first entity matching q and opts, or nil. The scope
	// selected by opts wins over the one carried by q, and so do its Where
	// entries. When q is itself an options value, fields opts leaves empty
	// are taken from q.
	FindOne(ctx context.Context, q types.Query, opts *types.FindOneOptions) (*T, error)

	// FindOneOrFail is FindOne returning repository.ErrEntityNotFound instead of nil.
	FindOneOrFail(ctx context.Context, q types.Query, opts *types.FindOneOptions) (*T, error)

	// Count returns the number of entities matching q within the selected scope.
	Count(ctx context.Context, q types.Query) (int, error)

	// FindAndCount returns a window of entities and the total matching count.
	FindAndCount(ctx context.Context, q types.Query) ([]*T, int, error)

	// Page returns the requested page of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save checks uniqueness, then inserts new entities and updates the others.
	Save(ctx context.Context, opts *types.SaveOptions, entity ...*T) error

	// Insert checks uniqueness, then inserts the entities.
	Insert(ctx context.Context, opts *types.SaveOptions, entity ...*T) (types.InsertResult, error)

	// Update checks uniqueness of values, then applies them to every row
	// matching criteria.
	Update(ctx context.Context, criteria types.Query, values types.Conditions, opts *types.SaveOptions) (types.UpdateResult, error)

	// Delete removes the rows matching criteria, or stamps their soft delete
	// column when opts asks for a soft delete.
	Delete(ctx context.Context, criteria types.Query, opts *types.RemoveOptions) (types.Result, error)

	// Remove deletes the entities, or stamps and saves them when opts asks for
	// a soft delete.
	Remove(ctx context.Context, opts *types.RemoveOptions, entity ...*T) error

	// CreateQueryBuilder starts a paginating select query on the entity table.
	CreateQueryBuilder() (*query.SelectQueryBuilder, error)

	// WithTx returns the repository bound to tx.
	WithTx(tx bun.IDB) Repository[T]

	// Scopes returns a copy of the scope table in use.
	Scopes() scope.Table

	// Engine returns the undecorated engine repository.
	Engine() repository.Repository[T]
}

type repositoryImpl[T any] struct {
	engine repository.Repository[T]
	meta   *repository.EntityMeta
	scopes scope.Table
	opts   *options
}

// NewRepository decorates engine. The scope table is taken from WithScopes,
// else from the registry by entity type then table name, else from the
// entity's Scopes method.
func NewRepository[T any](engine repository.Repository[T], opts ...Option) Repository[T] {
	o := newOptions(opts)
	r := &repositoryImpl[T]{engine: engine, meta: engine.Meta(), opts: o}
	r.scopes = r.lookupScopes()
	return r
}

func (r *repositoryImpl[T]) lookupScopes() scope.Table {
	if r.opts.hasScopes {
		return r.opts.scopes
	}
	if t, ok := r.opts.registry.Lookup(reflect.TypeOf((*T)(nil)).Elem(), r.meta.Table); ok {
		return t
	}
	if s, ok := any(new(T)).(scope.Scoped); ok {
		return s.Scopes().Clone()
	}
	return scope.Table{}
}

func (r *repositoryImpl[T]) resolve(q, explicit types.Query) types.Query {
	if id, ok := q.(types.Identifier); ok {
		q = types.Conditions{r.meta.PrimaryKeyName(): id.Value}
	}
	sel := scope.SelectorOf(q)
	if e := scope.SelectorOf(explicit); e.IsSet() {
		sel = e
	}
	if _, ok := r.scopes.Get(sel.Name()); ok && !sel.Disabled() {
		r.opts.logger.Debug("scope applied", "table", r.meta.Table, "scope", sel.Name())
	}
	return scope.Resolve(q, explicit, r.scopes)
}

// layer resolves q, then lays opts over the result: opts.Where beats the
// conditions of q, which beat the scope.
func (r *repositoryImpl[T]) layer(q types.Query, opts *types.FindOneOptions) types.Query {
	if opts == nil {
		return r.resolve(q, nil)
	}
	base := r.resolve(q, opts)

	o := *opts
	switch b := base.(type) {
	case types.Conditions:
		o.Where = types.Merge(b, opts.Where)
	case *types.FindOneOptions, *types.FindManyOptions:
		inner := types.Options(b)
		o.Where = types.Merge(inner.Where, opts.Where)
		fillUnset(&o, inner)
	default:
		o.Where = opts.Where.Clone()
	}
	return &o
}

// fillUnset copies into o the options it leaves empty.
func fillUnset(o, from *types.FindOneOptions) {
	if o.WhereRaw == nil {
		o.WhereRaw = from.WhereRaw
	}
	if o.Select == nil {
		o.Select = from.Select
	}
	if o.Relations == nil {
		o.Relations = from.Relations
	}
	if o.Joins == nil {
		o.Joins = from.Joins
	}
	if o.Order == nil {
		o.Order = from.Order
	}
	if o.Lock == "" {
		o.Lock = from.Lock
	}
	if o.Cache == nil {
		o.Cache = from.Cache
	}
}

func (r *repositoryImpl[T]) Find(ctx context.Context, q types.Query) ([]*T, error) {
	return r.engine.Find(ctx, r.resolve(q, nil))
}

func (r *repositoryImpl[T]) FindOne(ctx context.Context, q types.Query, opts *types.FindOneOptions) (*T, error) {
	return r.engine.FindOne(ctx, r.layer(q, opts))
}

func (r *repositoryImpl[T]) FindOneOrFail(ctx context.Context, q types.Query, opts *types.FindOneOptions) (*T, error) {
	return r.engine.FindOneOrFail(ctx, r.layer(q, opts))
}

func (r *repositoryImpl[T]) Count(ctx context.Context, q types.Query) (int, error) {
	return r.engine.Count(ctx, r.resolve(q, nil))
}

func (r *repositoryImpl[T]) FindAndCount(ctx context.Context, q types.Query) ([]*T, int, error) {
	// Current and Size only take effect when Take is set as well.
	if many, ok := q.(*types.FindManyOptions); ok && many != nil && many.Current != 0 && many.Take != 0 {
		c := *many
		c.Take = c.Size
		c.Skip = (c.Current - 1) * c.Take
		q = &c
	}
	return r.engine.FindAndCount(ctx, r.resolve(q, nil))
}

func (r *repositoryImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	pagination := types.NewDefaultPagination[T](page.GetPage(), page.GetPageSize())
	items, total, err := r.engine.FindAndCount(ctx, r.resolve(page.ToFindOptions(), nil))
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	if items != nil {
		pagination.Items = items
	}
	return pagination, nil
}

func (r *repositoryImpl[T]) Save(ctx context.Context, opts *types.SaveOptions, entity ...*T) error {
	if err := r.checkUnique(ctx, opts, r.entityCandidates(entity)); err != nil {
		return err
	}
	return r.writeError(r.engine.Save(ctx, entity...))
}

func (r *repositoryImpl[T]) Insert(ctx context.Context, opts *types.SaveOptions, entity ...*T) (types.InsertResult, error) {
	if err := r.checkUnique(ctx, opts, r.entityCandidates(entity)); err != nil {
		return types.InsertResult{}, err
	}
	res, err := r.engine.Insert(ctx, entity...)
	return res, r.writeError(err)
}

func (r *repositoryImpl[T]) Update(ctx context.Context, criteria types.Query, values types.Conditions, opts *types.SaveOptions) (types.UpdateResult, error) {
	if err := r.checkUnique(ctx, opts, []candidate{r.conditionsCandidate(values)}); err != nil {
		return types.UpdateResult{}, err
	}
	res, err := r.engine.Update(ctx, criteria, values)
	return res, r.writeError(err)
}

func (r *repositoryImpl[T]) Delete(ctx context.Context, criteria types.Query, opts *types.RemoveOptions) (types.Result, error) {
	if opts.IsSoft() {
		col := r.softDeleteColumn()
		r.opts.logger.Debug("delete translated to soft delete", "table", r.meta.Table, "column", col)
		return r.engine.Update(ctx, criteria, types.Conditions{col: r.opts.now()})
	}
	return r.engine.Delete(ctx, criteria)
}

func (r *repositoryImpl[T]) Remove(ctx context.Context, opts *types.RemoveOptions, entity ...*T) error {
	if !opts.IsSoft() {
		return r.engine.Remove(ctx, entity...)
	}
	now := r.opts.now()
	for _, e := range entity {
		if err := r.meta.SetValue(e, r.opts.softDeleteField, now); err != nil {
			return fmt.Errorf("soft remove %s: %w", r.meta.Table, err)
		}
	}
	r.opts.logger.Debug("remove translated to soft delete", "table", r.meta.Table, "count", len(entity))
	return r.engine.Save(ctx, entity...)
}

func (r *repositoryImpl[T]) softDeleteColumn() string {
	if c, ok := r.meta.Column(r.opts.softDeleteField); ok {
		return c.Name
	}
	return r.opts.softDeleteField
}

func (r *repositoryImpl[T]) writeError(err error) error {
	if err != nil && r.opts.strictUnique && database.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", ErrEntityNotUnique, err)
	}
	return err
}

func (r *repositoryImpl[T]) CreateQueryBuilder() (*query.SelectQueryBuilder, error) {
	return query.NewSelectQueryBuilder(r.engine.DB(), (*T)(nil))
}

func (r *repositoryImpl[T]) WithTx(tx bun.IDB) Repository[T] {
	return &repositoryImpl[T]{engine: r.engine.WithTx(tx), meta: r.meta, scopes: r.scopes, opts: r.opts}
}

func (r *repositoryImpl[T]) Scopes() scope.Table { return r.scopes.Clone() }

func (r *repositoryImpl[T]) Engine() repository.Repository[T] { return r.engine }
