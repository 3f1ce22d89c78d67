// internal/snapshot/validate_test.go
package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-engine/internal/common/errors"
)

func TestValidateRequestDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid with skills",
			doc:  `{"id":"req-1","category":"development","requiredSkills":["go","sql"],"complexityLevel":3}`,
		},
		{
			name: "valid with budget only",
			doc:  `{"id":"req-2","category":"development","budgetMax":5000}`,
		},
		{
			name:    "missing id",
			doc:     `{"category":"development","requiredSkills":["go"]}`,
			wantErr: true,
		},
		{
			name:    "neither skills nor budget",
			doc:     `{"id":"req-3","category":"development"}`,
			wantErr: true,
		},
		{
			name:    "negative budget",
			doc:     `{"id":"req-4","category":"development","budgetMax":-10}`,
			wantErr: true,
		},
		{
			name:    "complexity out of range",
			doc:     `{"id":"req-5","category":"development","requiredSkills":["go"],"complexityLevel":9}`,
			wantErr: true,
		},
		{
			name:    "not json",
			doc:     `{{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestDocument([]byte(tt.doc))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeInputInvalid))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDecodeRequestDocument(t *testing.T) {
	doc := `{"id":"req-1","category":"development","requiredSkills":["go","sql"],"budgetMax":5000,"complexityLevel":3}`

	request, err := DecodeRequestDocument([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "req-1", request.ID)
	assert.Equal(t, []string{"go", "sql"}, request.RequiredSkills)
	assert.Equal(t, 5000.0, request.BudgetMax)
	assert.Equal(t, 3, request.Complexity)
}

func TestDecodeRequestDocument_RejectsInvalid(t *testing.T) {
	_, err := DecodeRequestDocument([]byte(`{"category":"development"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInputInvalid))
}
