package probe

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	apperrors "github.com/andrew-woosnam/crossgrant/internal/errors"
)

func TestWrapAPIError_ClassifiesGoogleAPIFailures(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		expectedCode string
	}{
		{name: "forbidden", statusCode: http.StatusForbidden, expectedCode: apperrors.ErrCodeForbidden},
		{name: "not found", statusCode: http.StatusNotFound, expectedCode: apperrors.ErrCodeNotFound},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, expectedCode: apperrors.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &googleapi.Error{Code: tt.statusCode, Message: "denied"}
			err := wrapAPIError("get bucket attrs", fmt.Errorf("storage: %w", apiErr))
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, apperrors.GetErrorCode(err))
			assert.Equal(t, tt.statusCode, apperrors.GetStatusCode(err))
		})
	}
}

func TestWrapAPIError_PassesThroughOtherErrors(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := wrapAPIError("pull from sub", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "pull from sub: connection reset", err.Error())
}
