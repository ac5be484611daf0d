package infra

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	apperrors "github.com/andrew-woosnam/crossgrant/internal/errors"
)

func TestWrapError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, wrapError("create topic", nil))
	})

	t.Run("googleapi error is classified", func(t *testing.T) {
		apiErr := &googleapi.Error{Code: http.StatusForbidden, Message: "caller lacks permission"}
		err := wrapError("set iam policy", fmt.Errorf("crm: %w", apiErr))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetErrorCode(err))
		assert.Equal(t, http.StatusForbidden, apperrors.GetStatusCode(err))
	})

	t.Run("conflict is classified", func(t *testing.T) {
		apiErr := &googleapi.Error{Code: http.StatusConflict, Message: "already exists"}
		err := wrapError("create bucket", apiErr)
		assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetErrorCode(err))
	})

	t.Run("other errors wrap plainly", func(t *testing.T) {
		cause := fmt.Errorf("dial tcp: timeout")
		err := wrapError("enable services", cause)
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "enable services: dial tcp: timeout", err.Error())
	})
}

func TestIsNotFoundAndIsAlreadyExists(t *testing.T) {
	notFound := &googleapi.Error{Code: http.StatusNotFound}
	conflict := &googleapi.Error{Code: http.StatusConflict}

	assert.True(t, isNotFound(fmt.Errorf("get: %w", notFound)))
	assert.False(t, isNotFound(conflict))
	assert.False(t, isNotFound(fmt.Errorf("plain failure")))

	assert.True(t, isAlreadyExists(fmt.Errorf("create: %w", conflict)))
	assert.False(t, isAlreadyExists(notFound))
}
