// Package bunplus decorates Bun repositories with named scopes, uniqueness
// checks on save, soft deletes and page based query builders.
//
// A scope table maps scope names to conditions. Unless a query selects
// another scope, or disables scoping with types.NoScope, the "default" scope
// is merged under the caller's conditions on every read:
//
//	conn := bunplus.NewConnection(db)
//	scope.Register[User](conn.Registry(), scope.Table{
//		"default": {"active": true},
//	})
//	users := bunplus.GetRepository[User](conn)
//	active, err := users.Find(ctx, types.Conditions{})
//	all, err := users.Find(ctx, types.Conditions{"scope": false})
package bunplus
