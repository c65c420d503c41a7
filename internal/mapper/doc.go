// Package mapper persists record types through a store.
//
// A Mapper wraps one store. Tables bind it to a record type:
//
//	m := mapper.New(store.New(store.Config{DSN: "app.db"}))
//	users, err := mapper.Bind[User](m)
//	if err != nil {
//		return err
//	}
//	if err := users.EnsureTable(ctx); err != nil {
//		return err
//	}
//	err = users.Insert(ctx, &User{Id: "0001", Age: 21, Name: "zhangsan"})
//
// Connection scope follows the store's state. A closed store is opened for
// each operation and closed before the operation returns, so every call pays
// for a connection. Open the store first (or use Open) to keep one connection
// across operations; in-memory databases require this.
//
// Update and Delete address rows by the Id field and fail with
// schema.ErrCodeMissingKeyField for types that declare none. Rows that match
// nothing are silently ignored.
package mapper
