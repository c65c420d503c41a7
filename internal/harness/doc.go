// Package harness runs YAML record scenarios against a real store.
//
// A scenario declares one record type (inline or from a CUE file) and a list
// of steps, each one mapper operation:
//
//	name: user_lifecycle
//	description: insert, update and delete one user
//	schema:
//	  name: User
//	  fields:
//	    - {name: Id, kind: text}
//	    - {name: Age, kind: integer}
//	steps:
//	  - op: ensure
//	  - op: insert
//	    record: {Id: "0001", Age: 21}
//	  - op: get_all
//	    expect_rows: [{Id: "0001", Age: 21}]
//	  - op: insert
//	    record: {Id: "it's"}
//	    expect_error: UNSAFE_LITERAL
//
// Every scenario gets a fresh in-memory database that stays open until the
// last step. Each step is traced with the statement texts that reached the
// store, the rows it read and its error code; RunWithGolden compares that
// trace with testdata/golden/<name>.golden as canonical JSON lines.
package harness
