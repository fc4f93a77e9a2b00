package rsrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vierrors "github.com/flaneur2020/vi-get/viget/errors"
)

// requireVIError checks that err carries target's code and the given message.
func requireVIError(t *testing.T, err error, target *vierrors.VIError, message string) *vierrors.VIError {
	t.Helper()

	require.Error(t, err)
	require.ErrorIs(t, err, target)

	var viErr *vierrors.VIError
	require.ErrorAs(t, err, &viErr)
	assert.Equal(t, message, viErr.Message)
	return viErr
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
