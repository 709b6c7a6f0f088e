package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type roleRequest struct {
	Role  string `json:"role" binding:"required,role"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phoneNumber" binding:"omitempty,phone"`
}

func TestToDetails_UsesJSONNames(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(&roleRequest{Role: "root", Email: "nope", Phone: "123"})
	details := ToDetails(err)

	assert.Equal(t, "must be one of: admin, resident, user", details["role"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be a valid phone number in E.164 format", details["phoneNumber"])
}

func TestToDetails_Required(t *testing.T) {
	Init()
	err := binding.Validator.ValidateStruct(&roleRequest{})
	assert.Equal(t, map[string]string{"role": "is required"}, ToDetails(err))
}

func TestToDetails_ValidRequestPasses(t *testing.T) {
	Init()
	assert.NoError(t, binding.Validator.ValidateStruct(&roleRequest{Role: "resident", Phone: "+821012345678"}))
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte("{"), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
