// Package schema describes the record types the mapper can persist.
//
// It is the foundational layer: every other internal package imports schema,
// and schema imports nothing internal. It holds
//
//   - FieldKind, the closed set {Integer, Text, FloatingPoint, Boolean}, and its
//     column type mapping (ColumnType);
//   - Field and Descriptor, the explicit per-type registration of ordered
//     fields with typed getters and setters (no runtime reflection over
//     struct fields);
//   - Record and Dynamic, for types declared at runtime;
//   - FromStoreValue and Literal, the conversions between native values and
//     what the store accepts and returns;
//   - Error, the single error type shared by all mapper components.
//
// Native values are int64, string, float64 and bool. Struct fields of other
// widths (int, int32, float32, ...) are narrowed on Set and widened on Get.
package schema
