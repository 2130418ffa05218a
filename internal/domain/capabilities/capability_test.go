package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

func Test_Flags_BitOperations(t *testing.T) {
	f := Flags(0).With(FlagUserSet).With(FlagReviewRequired)

	assert.True(t, f.Has(FlagUserSet))
	assert.True(t, f.Has(FlagReviewRequired))
	assert.False(t, f.Has(FlagUserFixed))
	assert.False(t, f.Has(FlagUserSet|FlagUserFixed))

	f = f.Without(FlagUserSet)
	assert.False(t, f.Has(FlagUserSet))
	assert.True(t, f.Has(FlagReviewRequired))
}

func Test_Flags_Apply(t *testing.T) {
	tests := []struct {
		name    string
		current Flags
		mask    Flags
		value   Flags
		want    Flags
	}{
		{
			name:    "sets masked bits",
			current: 0,
			mask:    FlagUserSet | FlagUserFixed,
			value:   FlagUserSet,
			want:    FlagUserSet,
		},
		{
			name:    "clears masked bits absent from value",
			current: FlagUserSet | FlagUserFixed,
			mask:    FlagUserSet | FlagUserFixed,
			value:   FlagUserFixed,
			want:    FlagUserFixed,
		},
		{
			name:    "leaves unmasked bits alone",
			current: FlagSystemFixed | FlagUserSet,
			mask:    CommitFlagsMask,
			value:   0,
			want:    FlagSystemFixed,
		},
		{
			name:    "value bits outside the mask are ignored",
			current: 0,
			mask:    FlagUserSet,
			value:   FlagUserSet | FlagGrantedByDefault,
			want:    FlagUserSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.current.Apply(tt.mask, tt.value))
		})
	}
}

func Test_Flags_CommitMaskExcludesPlatformOwnedFlags(t *testing.T) {
	assert.True(t, CommitFlagsMask.Has(FlagUserSet))
	assert.True(t, CommitFlagsMask.Has(FlagUserFixed))
	assert.True(t, CommitFlagsMask.Has(FlagPolicyFixed))
	assert.True(t, CommitFlagsMask.Has(FlagReviewRequired))
	assert.True(t, CommitFlagsMask.Has(FlagRevokeOnUpgrade))

	assert.False(t, CommitFlagsMask.Has(FlagSystemFixed))
	assert.False(t, CommitFlagsMask.Has(FlagGrantedByDefault))
}

func Test_Flags_String(t *testing.T) {
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, "user-set", FlagUserSet.String())
	assert.Equal(t, "user-fixed,review-required", (FlagUserFixed | FlagReviewRequired).String())
}

func Test_Capability_IsGrantingAllowed(t *testing.T) {
	tests := []struct {
		name              string
		ephemeralApp      bool
		ephemeralEligible bool
		runtimeOnly       bool
		model             values.AppModel
		want              bool
	}{
		{
			name:  "regular app on the runtime model",
			model: values.AppModelModern,
			want:  true,
		},
		{
			name:         "ephemeral app needs eligibility",
			ephemeralApp: true,
			model:        values.AppModelModern,
			want:         false,
		},
		{
			name:              "eligible capability for ephemeral app",
			ephemeralApp:      true,
			ephemeralEligible: true,
			model:             values.AppModelModern,
			want:              true,
		},
		{
			name:        "runtime-only capability blocked for legacy app",
			runtimeOnly: true,
			model:       values.AppModelLegacy,
			want:        false,
		},
		{
			name:  "pre-runtime capability fine for legacy app",
			model: values.AppModelLegacy,
			want:  true,
		},
		{
			name:         "both restrictions stack",
			ephemeralApp: true,
			runtimeOnly:  true,
			model:        values.AppModelLegacy,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Capability{
				name:              "probe",
				runtimeOnly:       tt.runtimeOnly,
				ephemeralEligible: tt.ephemeralEligible,
			}
			assert.Equal(t, tt.want, c.IsGrantingAllowed(tt.ephemeralApp, tt.model))
		})
	}
}

func Test_Capability_BackgroundVariantDetection(t *testing.T) {
	fg := &Capability{name: "net.scan", backgroundName: "net.scan.background"}
	bg := &Capability{name: "net.scan.background", foregroundNames: []string{"net.scan"}}
	plain := &Capability{name: "net.admin"}

	assert.False(t, fg.IsBackgroundVariant())
	assert.True(t, bg.IsBackgroundVariant())
	assert.False(t, plain.IsBackgroundVariant())

	assert.Equal(t, "net.scan.background", fg.BackgroundName())
	assert.Equal(t, []string{"net.scan"}, bg.ForegroundNames())
}

func Test_Capability_HasGate(t *testing.T) {
	gated := &Capability{name: "camera.capture", operation: "op.camera.capture"}
	ungated := &Capability{name: "vendor.telemetry"}

	assert.True(t, gated.HasGate())
	assert.False(t, ungated.HasGate())
}
