package schema

import (
	"reflect"
	"sync"
)

// Describable is implemented by the pointer type of every record the mapper
// can persist. Schema must return the same declaration on every call.
//
//	type User struct { Id string; Age int }
//
//	func (*User) Schema() schema.Schema[User] {
//		return schema.Schema[User]{
//			Name: "User",
//			Fields: []schema.Field[User]{
//				schema.TextField("Id", func(u *User) *string { return &u.Id }),
//				schema.IntField("Age", func(u *User) *int { return &u.Age }),
//			},
//		}
//	}
type Describable[T any] interface {
	*T
	Schema() Schema[T]
}

// descriptors caches one *Descriptor[T] per Go type for the process lifetime.
var descriptors sync.Map // reflect.Type -> any (*Descriptor[T])

// Describe returns the cached descriptor for T, building and validating it on
// first use. Failed validations are not cached.
func Describe[T any, P Describable[T]]() (*Descriptor[T], error) {
	key := reflect.TypeFor[T]()
	if d, ok := descriptors.Load(key); ok {
		return d.(*Descriptor[T]), nil
	}

	var zero T
	d, err := New(P(&zero).Schema())
	if err != nil {
		return nil, err
	}

	actual, _ := descriptors.LoadOrStore(key, d)
	return actual.(*Descriptor[T]), nil
}

// MustDescribe is like Describe but panics on an invalid declaration.
// Intended for package-level variables of record packages.
func MustDescribe[T any, P Describable[T]]() *Descriptor[T] {
	d, err := Describe[T, P]()
	if err != nil {
		panic(err)
	}
	return d
}
