package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BatchMode_IsDeferred(t *testing.T) {
	assert.True(t, BatchDeferred.IsDeferred())
	assert.False(t, BatchImmediate.IsDeferred())
}

func Test_BatchMode_Validate(t *testing.T) {
	assert.NoError(t, BatchImmediate.Validate())
	assert.NoError(t, BatchDeferred.Validate())
	assert.Error(t, BatchMode("eventual").Validate())
}

func Test_Protection_IsConfirmable(t *testing.T) {
	assert.True(t, ProtectionConfirmable.IsConfirmable())
	assert.False(t, ProtectionStandard.IsConfirmable())
	assert.False(t, ProtectionPrivileged.IsConfirmable())
}

func Test_Protection_Validate(t *testing.T) {
	assert.NoError(t, ProtectionConfirmable.Validate())
	assert.NoError(t, ProtectionStandard.Validate())
	assert.NoError(t, ProtectionPrivileged.Validate())
	assert.Error(t, Protection("dangerous").Validate())
}
