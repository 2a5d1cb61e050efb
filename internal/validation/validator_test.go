package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,oneof=student tutor"`
	Budget int64  `json:"budget" validate:"gte=500"`
	Note   string `json:"note" validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	ok := sample{Email: "a@b.co", Role: "tutor", Budget: 500, Note: "hi"}
	assert.Nil(t, ValidateStruct(&ok))

	bad := sample{Email: "nope", Role: "admin", Budget: 10, Note: "toolong"}
	verr := ValidateStruct(&bad)
	require.NotNil(t, verr)
	require.Len(t, verr.Fields, 4)

	byField := map[string]FieldError{}
	for _, f := range verr.Fields {
		byField[f.Field] = f
	}
	assert.Equal(t, "email must be a valid email address", byField["email"].Message)
	assert.Equal(t, "role must be one of: student tutor", byField["role"].Message)
	assert.Equal(t, "budget must be greater than or equal to 500", byField["budget"].Message)
	assert.Equal(t, "note must be at most 5 characters", byField["note"].Message)
	assert.Contains(t, verr.Error(), "email must be a valid email address")
}

func TestValidateStructRequired(t *testing.T) {
	verr := ValidateStruct(&sample{Budget: 600})
	require.NotNil(t, verr)
	assert.Equal(t, "email is required", verr.Fields[0].Message)
}
