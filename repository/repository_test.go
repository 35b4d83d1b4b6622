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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bunplus/cache"
	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type testUser struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64      `bun:"id,pk,autoincrement"`
	Name      string     `bun:"name,notnull"`
	Email     string     `bun:"email"`
	Role      string     `bun:"role"`
	DeletedAt *time.Time `bun:"deleted_at"`
}

type AuditEntry struct {
	UserID    int64
	HTTPCode  int
	Note      string `bun:"-"`
	Payload   string `bun:"payload_json"`
	createdBy string
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*testUser)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return db
}

func seedUsers(t *testing.T, repo Repository[testUser]) []*testUser {
	t.Helper()
	users := []*testUser{
		{Name: "alice", Email: "alice@example.com", Role: "admin"},
		{Name: "bob", Email: "bob@example.com", Role: "user"},
		{Name: "carol", Email: "carol@example.com", Role: "user"},
		{Name: "dave", Email: "dave@example.com", Role: "guest"},
	}
	res, err := repo.Insert(context.Background(), users...)
	require.NoError(t, err)
	require.EqualValues(t, len(users), res.RowsAffected)
	return users
}

func TestEntityMeta(t *testing.T) {
	meta := MetaOf[testUser]()
	assert.Equal(t, "users", meta.Table)
	assert.Equal(t, []string{"id"}, meta.PrimaryKeyNames())
	assert.Equal(t, []string{"name", "email", "role", "deleted_at"}, meta.DataColumnNames())

	col, ok := meta.Column("DeletedAt")
	require.True(t, ok)
	assert.Equal(t, "deleted_at", col.Name)

	audit := MetaOf[AuditEntry]()
	assert.Equal(t, "audit_entries", audit.Table)
	_, ok = audit.Column("user_id")
	assert.True(t, ok)
	_, ok = audit.Column("http_code")
	assert.True(t, ok)
	_, ok = audit.Column("payload_json")
	assert.True(t, ok)
	_, ok = audit.Column("note")
	assert.False(t, ok)
	_, ok = audit.Column("created_by")
	assert.False(t, ok)
	assert.Empty(t, audit.PrimaryKeys())
}

func TestEntityMetaValues(t *testing.T) {
	meta := MetaOf[testUser]()
	u := &testUser{Name: "alice"}
	assert.True(t, meta.IsNew(u))

	v, ok := meta.Value(u, "name")
	require.True(t, ok)
	assert.Equal(t, "alice", v)

	v, ok = meta.Value(u, "deleted_at")
	require.True(t, ok)
	assert.Nil(t, v)

	_, ok = meta.Value(u, "missing")
	assert.False(t, ok)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, meta.SetValue(u, "deleted_at", now))
	require.NotNil(t, u.DeletedAt)
	assert.True(t, now.Equal(*u.DeletedAt))

	require.NoError(t, meta.SetValue(u, "ID", 7))
	assert.EqualValues(t, 7, u.ID)
	assert.False(t, meta.IsNew(u))

	assert.Error(t, meta.SetValue(*u, "name", "x"))
	assert.Error(t, meta.SetValue(u, "name", 3.5))
}

func TestUnderscore(t *testing.T) {
	cases := map[string]string{
		"ID":        "id",
		"UserID":    "user_id",
		"DeletedAt": "deleted_at",
		"HTTPCode":  "http_code",
		"Name":      "name",
		"Item2Name": "item2_name",
	}
	for in, want := range cases {
		assert.Equal(t, want, underscore(in), in)
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[testUser](newTestDB(t))
	seedUsers(t, repo)

	users, err := repo.Find(ctx, types.Conditions{"role": "user"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.Find(ctx, types.Conditions{"name": []string{"alice", "dave"}})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.Find(ctx, types.Conditions{"deleted_at": nil, "role": "admin"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Name)

	users, err = repo.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	users, err = repo.Find(ctx, &types.FindManyOptions{
		FindOneOptions: types.FindOneOptions{
			Where: types.Conditions{"role": "user"},
			Order: []string{"name DESC"},
		},
		Take: 1,
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Name)

	users, err = repo.Find(ctx, &types.FindManyOptions{
		FindOneOptions: types.FindOneOptions{
			WhereRaw: types.NewQueryFilter("name = ? OR name = ?", "bob", "dave"),
			Order:    []string{"id ASC"},
		},
		Skip: 1,
		Take: 5,
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "dave", users[0].Name)
}

func TestFindIgnoresScopeKey(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[testUser](newTestDB(t))
	seedUsers(t, repo)

	n, err := repo.Count(ctx, types.Conditions{"role": "user", "scope": false})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFindOne(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[testUser](newTestDB(t))
	users := seedUsers(t, repo)

	u, err := repo.FindOne(ctx, types.ID(users[1].ID))
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "bob", u.Name)

	u, err = repo.FindOne(ctx, types.Conditions{"name": "nobody"})
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = repo.FindOneOrFail(ctx, types.Conditions{"name": "nobody"})
	assert.True(t, errors.Is(err, ErrEntityNotFound))

	u, err = repo.FindOneOrFail(ctx, &types.FindOneOptions{
		Where:  types.Conditions{"role": "user"},
		Select: []string{"id", "name"},
		Order:  []string{"name ASC"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Name)
	assert.Empty(t, u.Email)
}

func TestCountAndFindAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[testUser](newTestDB(t))
	seedUsers(t, repo)

	n, err := repo.Count(ctx, types.Conditions{"role": "user"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	users, total, err := repo.FindAndCount(ctx, &types.FindManyOptions{
		FindOneOptions: types.FindOneOptions{Order: []string{"id ASC"}},
		Skip:           2,
		Take:           1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Name)
}

func TestSaveInsertsAndUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[testUser](newTestDB(t))
	users := seedUsers(t, repo)

	users[0].Email = "root@example.com"
	fresh := &testUser{Name: "erin", Role: "user"}
	require.NoError(t, repo.Save(ctx, users[0], fresh))
	assert.NotZero(t, fresh.ID)

	u, err := repo.FindOneOrFail(ctx, types.ID(users[0].ID))
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", u.Email)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestUpdateDeleteRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[testUser](newTestDB(t))
	users := seedUsers(t, repo)

	res, err := repo.Update(ctx, types.Conditions{"role": "user"}, types.Conditions{"role": "member"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.RowsAffected)

	_, err = repo.Update(ctx, types.Conditions{"role": "user"}, nil)
	assert.Error(t, err)

	del, err := repo.Delete(ctx, types.ID(users[3].ID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, del.RowsAffected)

	require.NoError(t, repo.Remove(ctx, users[0]))

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	del, err = repo.Delete(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, del.RowsAffected)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository[testUser](db)

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := repo.WithTx(tx).Insert(ctx, &testUser{Name: "temp"})
		require.NoError(t, err)
		return errors.New("rollback")
	})
	require.Error(t, err)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueryCache(t *testing.T) {
	ctx := context.Background()
	qc := cache.NewMemoryCache(time.Minute)
	repo := NewRepository[testUser](newTestDB(t), WithQueryCache(qc))
	seedUsers(t, repo)

	opts := &types.FindManyOptions{FindOneOptions: types.FindOneOptions{
		Where: types.Conditions{"role": "user"},
		Cache: &types.CacheOptions{},
	}}
	users, err := repo.Find(ctx, opts)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, qc.Len())

	_, err = repo.Update(ctx, types.Conditions{"role": "user"}, types.Conditions{"role": "member"})
	require.NoError(t, err)

	users, err = repo.Find(ctx, opts)
	require.NoError(t, err)
	assert.Len(t, users, 2, "served from cache")

	users, err = repo.Find(ctx, types.Conditions{"role": "user"})
	require.NoError(t, err)
	assert.Empty(t, users)

	one, err := repo.FindOne(ctx, &types.FindOneOptions{
		Where: types.Conditions{"name": "alice"},
		Cache: &types.CacheOptions{ID: "alice"},
	})
	require.NoError(t, err)
	require.NotNil(t, one)
	_, ok, err := qc.Get(ctx, "alice:one")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueryCacheKeepsOperationsApart(t *testing.T) {
	ctx := context.Background()
	qc := cache.NewMemoryCache(time.Minute)
	repo := NewRepository[testUser](newTestDB(t), WithQueryCache(qc))
	seedUsers(t, repo)

	for _, c := range []*types.CacheOptions{{}, {ID: "users-page"}} {
		opts := &types.FindManyOptions{
			FindOneOptions: types.FindOneOptions{Cache: c},
			Take:           2,
			Skip:           10,
		}
		users, err := repo.Find(ctx, opts)
		require.NoError(t, err)
		assert.Empty(t, users)

		users, total, err := repo.FindAndCount(ctx, opts)
		require.NoError(t, err)
		assert.Empty(t, users)
		assert.Equal(t, 4, total)

		users, total, err = repo.FindAndCount(ctx, opts)
		require.NoError(t, err)
		assert.Empty(t, users)
		assert.Equal(t, 4, total, "served from cache")
	}
	assert.Equal(t, 4, qc.Len())
}
