package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/propertyflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type periodRequest struct {
	Period string `json:"period" binding:"required,len=7" validate:"required,len=7"`
	Role   string `json:"role" binding:"omitempty,oneof=tenant owner" validate:"omitempty,oneof=tenant owner"`
}

func TestValidationDetails(t *testing.T) {
	t.Run("gin binding errors use json names", func(t *testing.T) {
		SetupValidator()
		gin.SetMode(gin.TestMode)

		var details []dto.ValidationDetail
		router := gin.New()
		router.POST("/test", func(c *gin.Context) {
			var req periodRequest
			err := c.ShouldBindJSON(&req)
			details = ValidationDetails(err)
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"role":"guest"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, details, 2)
		assert.Equal(t, dto.ValidationDetail{Field: "period", Message: "This field is required"}, details[0])
		assert.Equal(t, dto.ValidationDetail{Field: "role", Message: "Must be one of: tenant owner"}, details[1])
	})

	t.Run("wrapped validator errors", func(t *testing.T) {
		v := validator.New()
		v.RegisterTagNameFunc(JSONFieldName)

		err := fmt.Errorf("invalid request: %w", v.Struct(periodRequest{Period: "2024-7"}))

		details := ValidationDetails(err)
		require.Len(t, details, 1)
		assert.Equal(t, "period", details[0].Field)
		assert.Equal(t, "Must be exactly 7 characters", details[0].Message)
	})

	t.Run("other errors have no details", func(t *testing.T) {
		assert.Nil(t, ValidationDetails(fmt.Errorf("boom")))
		assert.Nil(t, ValidationDetails(nil))
	})
}
