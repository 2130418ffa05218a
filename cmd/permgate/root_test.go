package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spf13/cobra"
)

func TestInitConfig_EnvFillsUnsetFlags(t *testing.T) {
	// Save and restore globals
	originalUser := actingUser
	originalUsageDB := usageDB
	defer func() {
		actingUser = originalUser
		usageDB = originalUsageDB
	}()

	t.Setenv("PERMGATE_USER", "guest")
	t.Setenv("PERMGATE_USAGE_DB", "/tmp/usage.db")

	actingUser = ""
	usageDB = ""
	initConfig()
	assert.Equal(t, "guest", actingUser)
	assert.Equal(t, "/tmp/usage.db", usageDB)

	// An explicit flag wins over the environment.
	actingUser = "admin"
	initConfig()
	assert.Equal(t, "admin", actingUser)
}

func TestCommandArgValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     *cobra.Command
		args    []string
		wantErr bool
	}{
		{name: "status needs a package", cmd: newStatusCmd(), args: nil, wantErr: true},
		{name: "status accepts package only", cmd: newStatusCmd(), args: []string{"pkg"}},
		{name: "status accepts package and group", cmd: newStatusCmd(), args: []string{"pkg", "location"}},
		{name: "status rejects extra args", cmd: newStatusCmd(), args: []string{"pkg", "location", "x"}, wantErr: true},
		{name: "grant needs package and group", cmd: newGrantCmd(), args: []string{"pkg"}, wantErr: true},
		{name: "grant accepts capability targets", cmd: newGrantCmd(), args: []string{"pkg", "location", "location.precise"}},
		{name: "revoke needs package and group", cmd: newRevokeCmd(), args: []string{"pkg"}, wantErr: true},
		{name: "lock takes exactly two args", cmd: newLockCmd(), args: []string{"pkg"}, wantErr: true},
		{name: "review reset takes exactly two args", cmd: newReviewResetCmd(), args: []string{"pkg", "location"}},
		{name: "usage list takes exactly two args", cmd: newUsageListCmd(), args: []string{"pkg"}, wantErr: true},
		{name: "usage record takes package and capability", cmd: newUsageRecordCmd(), args: []string{"pkg", "camera.capture"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cmd.Args(tt.cmd, tt.args)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
