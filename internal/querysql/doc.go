// Package querysql compiles record descriptors and instances into literal SQL.
//
// Every statement is a plain string: values are embedded as single-quoted
// literals in descriptor field order, table and column names are used
// verbatim (schema guarantees they are plain identifiers). The emitted forms
// are
//
//	CREATE TABLE User (Id Text, Age Int, Name Text, Height FLOAT)
//	INSERT INTO User VALUES ('0001', '21', 'zhangsan', '179.5')
//	SELECT * FROM User
//	UPDATE User SET Id='0001', Age='16', Name='xiaohua', Height='168.2' WHERE (Id='0001')
//	DELETE FROM User WHERE (Id='0001')
//	DROP TABLE User
//
// Literals are never escaped. A value whose text contains a single quote is
// rejected with schema.ErrCodeUnsafeLiteral, and UPDATE/DELETE on a type with
// no Id field are rejected with schema.ErrCodeMissingKeyField.
//
// InsertBound, UpdateBound and DeleteBound pair that text with the same
// statement in placeholder form and the native values as arguments. The
// literal is what gets logged; the placeholder form is what runs, so the
// engine never reparses a value.
package querysql
