package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minorm/internal/schema"
)

func dynamic(t *testing.T, name string, cols ...schema.Column) *schema.Descriptor[schema.Record] {
	t.Helper()
	d, err := schema.Dynamic(name, cols)
	require.NoError(t, err)
	return d
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateClean(t *testing.T) {
	d := dynamic(t, "Person",
		schema.Column{Name: "Id", Kind: schema.Text},
		schema.Column{Name: "Age", Kind: schema.Integer},
	)
	assert.Empty(t, Validate([]*schema.Descriptor[schema.Record]{d}))
}

func TestValidateFindings(t *testing.T) {
	testCases := []struct {
		name string
		desc func(t *testing.T) *schema.Descriptor[schema.Record]
		want []string
	}{
		{
			name: "no key",
			desc: func(t *testing.T) *schema.Descriptor[schema.Record] {
				return dynamic(t, "Note", schema.Column{Name: "Title", Kind: schema.Text})
			},
			want: []string{WarnNoKey},
		},
		{
			name: "integer key",
			desc: func(t *testing.T) *schema.Descriptor[schema.Record] {
				return dynamic(t, "Counter", schema.Column{Name: "Id", Kind: schema.Integer})
			},
			want: []string{WarnKeyNotText},
		},
		{
			name: "reserved table and field",
			desc: func(t *testing.T) *schema.Descriptor[schema.Record] {
				return dynamic(t, "User",
					schema.Column{Name: "Id", Kind: schema.Text},
					schema.Column{Name: "On", Kind: schema.Boolean},
				)
			},
			want: []string{WarnReservedWord, WarnReservedWord},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate([]*schema.Descriptor[schema.Record]{tc.desc(t)})
			assert.Equal(t, tc.want, codes(errs))
		})
	}
}

func TestValidateDuplicateRecord(t *testing.T) {
	a := dynamic(t, "Person", schema.Column{Name: "Id", Kind: schema.Text})
	b := dynamic(t, "person", schema.Column{Name: "Id", Kind: schema.Text})

	errs := Validate([]*schema.Descriptor[schema.Record]{a, b})
	require.Len(t, errs, 1)
	assert.Equal(t, WarnDuplicateRecord, errs[0].Code)
	assert.Equal(t, "person", errs[0].Field)
	assert.Contains(t, errs[0].Error(), "W104")
}
