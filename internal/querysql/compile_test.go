package querysql

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minorm/internal/schema"
)

type user struct {
	Id     string
	Age    int
	Name   string
	Height float64
}

func (*user) Schema() schema.Schema[user] {
	return schema.Schema[user]{
		Name: "User",
		Fields: []schema.Field[user]{
			schema.TextField("Id", func(u *user) *string { return &u.Id }),
			schema.IntField("Age", func(u *user) *int { return &u.Age }),
			schema.TextField("Name", func(u *user) *string { return &u.Name }),
			schema.FloatField("Height", func(u *user) *float64 { return &u.Height }),
		},
	}
}

type flag struct {
	Name    string
	Enabled bool
}

func (*flag) Schema() schema.Schema[flag] {
	return schema.Schema[flag]{
		Name: "Flag",
		Fields: []schema.Field[flag]{
			schema.TextField("Name", func(f *flag) *string { return &f.Name }),
			schema.BoolField("Enabled", func(f *flag) *bool { return &f.Enabled }),
		},
	}
}

var (
	users = schema.MustDescribe[user]()
	flags = schema.MustDescribe[flag]()
)

func TestCreateTable(t *testing.T) {
	assert.Equal(t,
		"CREATE TABLE User (Id Text, Age Int, Name Text, Height FLOAT)",
		CreateTable(users))
	assert.Equal(t, "CREATE TABLE Flag (Name Text, Enabled Bool)", CreateTable(flags))
}

func TestInsert(t *testing.T) {
	sql, err := Insert(users, &user{Id: "0001", Age: 21, Name: "zhangsan", Height: 179.5})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO User VALUES ('0001', '21', 'zhangsan', '179.5')", sql)

	sql, err = Insert(flags, &flag{Name: "beta", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO Flag VALUES ('beta', 'true')", sql)
}

func TestSelectAllAndDropTable(t *testing.T) {
	assert.Equal(t, "SELECT * FROM User", SelectAll(users))
	assert.Equal(t, "DROP TABLE User", DropTable(users))
}

func TestUpdateByKey(t *testing.T) {
	sql, err := UpdateByKey(users, &user{Id: "0001", Age: 16, Name: "xiaohua", Height: 168.2})
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE User SET Id='0001', Age='16', Name='xiaohua', Height='168.2' WHERE (Id='0001')",
		sql)
}

func TestDeleteByKey(t *testing.T) {
	sql, err := DeleteByKey(users, &user{Id: "0001"})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM User WHERE (Id='0001')", sql)
}

func TestBoundStatements(t *testing.T) {
	rec := &user{Id: "0001", Age: 21, Name: "zhangsan", Height: -1.8064654253954446e-205}

	insert, err := InsertBound(users, rec)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO User VALUES (?, ?, ?, ?)", insert.Query)
	assert.Equal(t, []any{"0001", int64(21), "zhangsan", -1.8064654253954446e-205}, insert.Args)
	text, err := Insert(users, rec)
	require.NoError(t, err)
	assert.Equal(t, text, insert.Text, "the literal form is kept for logs")

	update, err := UpdateBound(users, rec)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE User SET Id=?, Age=?, Name=?, Height=? WHERE (Id=?)", update.Query)
	assert.Equal(t, []any{"0001", int64(21), "zhangsan", -1.8064654253954446e-205, "0001"}, update.Args)

	del, err := DeleteBound(users, rec)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM User WHERE (Id=?)", del.Query)
	assert.Equal(t, []any{"0001"}, del.Args)
	assert.Equal(t, "DELETE FROM User WHERE (Id='0001')", del.Text)

	flagInsert, err := InsertBound(flags, &flag{Name: "beta", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, []any{"beta", true}, flagInsert.Args)
}

func TestBoundStatements_FailLikeLiteral(t *testing.T) {
	_, err := InsertBound(users, &user{Id: "1", Name: "O'Brien"})
	assert.True(t, schema.IsCode(err, schema.ErrCodeUnsafeLiteral))

	_, err = UpdateBound(flags, &flag{Name: "beta"})
	assert.True(t, schema.IsCode(err, schema.ErrCodeMissingKeyField))

	_, err = DeleteBound(flags, &flag{Name: "beta"})
	assert.True(t, schema.IsCode(err, schema.ErrCodeMissingKeyField))

	_, err = InsertBound(users, &user{Id: "1", Height: math.Inf(1)})
	assert.True(t, schema.IsCode(err, schema.ErrCodeValueConversion))
}

func TestKeyClause_MissingKeyField(t *testing.T) {
	testCases := []struct {
		name  string
		build func() (string, error)
	}{
		{"update", func() (string, error) { return UpdateByKey(flags, &flag{Name: "beta"}) }},
		{"delete", func() (string, error) { return DeleteByKey(flags, &flag{Name: "beta"}) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, err := tc.build()
			require.Error(t, err)
			assert.Empty(t, sql, "no statement may be produced without a key")
			assert.True(t, schema.IsCode(err, schema.ErrCodeMissingKeyField))
		})
	}
}

func TestQuote_RejectsSingleQuote(t *testing.T) {
	rec := &user{Id: "0002", Name: "O'Brien"}

	for name, build := range map[string]func() (string, error){
		"insert": func() (string, error) { return Insert(users, rec) },
		"update": func() (string, error) { return UpdateByKey(users, rec) },
	} {
		t.Run(name, func(t *testing.T) {
			sql, err := build()
			require.Error(t, err)
			assert.Empty(t, sql)

			var se *schema.Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, schema.ErrCodeUnsafeLiteral, se.Code)
			assert.Equal(t, "User", se.Table)
			assert.Equal(t, "Name", se.Field)
		})
	}

	// A quote in the key is rejected as well, so DELETE cannot widen its match.
	_, err := DeleteByKey(users, &user{Id: "x' OR '1'='1"})
	assert.True(t, schema.IsCode(err, schema.ErrCodeUnsafeLiteral))
}

func TestInsert_NonFiniteFloat(t *testing.T) {
	_, err := Insert(users, &user{Id: "0003", Height: math.NaN()})
	require.Error(t, err)

	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, schema.ErrCodeValueConversion, se.Code)
	assert.Equal(t, "Height", se.Field)
}

func TestDynamicDescriptor(t *testing.T) {
	d, err := schema.Dynamic("Item", []schema.Column{
		{Name: "Id", Kind: schema.Text},
		{Name: "Qty", Kind: schema.Integer},
	})
	require.NoError(t, err)

	sql, err := Insert(d, &schema.Record{"Id": "a1", "Qty": 3})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO Item VALUES ('a1', '3')", sql)

	_, err = Insert(d, &schema.Record{"Id": "a1", "Qty": "three"})
	assert.True(t, schema.IsCode(err, schema.ErrCodeValueConversion))
}
