package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-engine/internal/model"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	s := Default()
	require.NoError(t, s.Validate())
	assert.Len(t, s.Fields, 20)

	byCat := s.ByCategory()
	assert.Len(t, byCat[model.CategoryCorporate], 5)
	assert.Len(t, byCat[model.CategoryFinancials], 4)
	assert.Len(t, byCat[model.CategoryLeadership], 3)
	assert.Len(t, byCat[model.CategoryProducts], 3)
	assert.Len(t, byCat[model.CategoryMarket], 3)
	assert.Len(t, byCat[model.CategoryLegal], 2)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		schema  Schema
		wantErr string
	}{
		{
			name:    "empty schema",
			schema:  Schema{},
			wantErr: "no fields",
		},
		{
			name: "empty field name",
			schema: Schema{Fields: []Field{
				{Name: "", Category: model.CategoryCorporate},
			}},
			wantErr: "empty name",
		},
		{
			name: "duplicate field",
			schema: Schema{Fields: []Field{
				{Name: "ceo", Category: model.CategoryLeadership},
				{Name: "ceo", Category: model.CategoryLeadership},
			}},
			wantErr: "duplicate",
		},
		{
			name: "unknown category",
			schema: Schema{Fields: []Field{
				{Name: "mascot", Category: model.Category("folklore")},
			}},
			wantErr: "unknown category",
		},
		{
			name: "valid",
			schema: Schema{Fields: []Field{
				{Name: "ceo", Category: model.CategoryLeadership},
				{Name: "industry", Category: model.CategoryMarket},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.schema.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schema.yaml")
	data := `fields:
  - name: legal_name
    category: corporate
  - name: annual_revenue
    category: financials
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "legal_name", s.Fields[0].Name)
	assert.Equal(t, model.CategoryFinancials, s.Fields[1].Category)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fields:\n  - name: x\n    category: nope\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	s := Default()
	cat, ok := s.CategoryOf("ceo")
	require.True(t, ok)
	assert.Equal(t, model.CategoryLeadership, cat)

	_, ok = s.CategoryOf("unknown_field")
	assert.False(t, ok)
}

func TestFieldNames_Sorted(t *testing.T) {
	t.Parallel()

	names := Default().FieldNames()
	require.Len(t, names, 20)
	assert.True(t, sortedStrings(names))
}

func sortedStrings(ss []string) bool {
	for i := 1; i < len(ss); i++ {
		if ss[i-1] > ss[i] {
			return false
		}
	}
	return true
}
