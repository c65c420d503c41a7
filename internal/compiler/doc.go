// Package compiler turns CUE record declarations into dynamic descriptors.
//
// Record types live under a top-level "record" field, one struct per type:
//
//	record: User: {
//		Id:   string
//		Age:  int & >=0
//		Name: string
//	}
//
// Field order follows the CUE source. Constraints and defaults keep their
// base type, so `int & >=0` is an Integer and `bool | *false` a Boolean.
// Validate reports lint findings (W1xx) for declarations that compile but
// will misbehave at statement time.
package compiler
