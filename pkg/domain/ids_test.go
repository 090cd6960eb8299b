package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vantage/pkg/domain-errors"
)

// TestParseTenantID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseTenantID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseTenantID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects whitespace-only string", func(t *testing.T) {
		_, err := ParseTenantID("   ")
		require.Error(t, err)
	})

	t.Run("rejects malformed UUID", func(t *testing.T) {
		_, err := ParseTenantID("not-a-uuid")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "valid UUID")
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseTenantID(uuid.Nil.String())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil UUID")
	})

	t.Run("accepts canonical UUID", func(t *testing.T) {
		raw := uuid.NewString()
		id, err := ParseTenantID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.String())
		assert.False(t, id.IsNil())
	})
}

func TestParseBlueprintID(t *testing.T) {
	t.Run("accepts lowercase slugs", func(t *testing.T) {
		id, err := ParseBlueprintID("payout-express")
		require.NoError(t, err)
		assert.Equal(t, BlueprintID("payout-express"), id)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseBlueprintID("  insights-basic  ")
		require.NoError(t, err)
		assert.Equal(t, BlueprintID("insights-basic"), id)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseBlueprintID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects uppercase and symbols", func(t *testing.T) {
		for _, bad := range []string{"Payout", "payout_express", "payout express", "payout/express"} {
			_, err := ParseBlueprintID(bad)
			assert.Error(t, err, bad)
		}
	})

	t.Run("rejects slugs over 64 characters", func(t *testing.T) {
		_, err := ParseBlueprintID(strings.Repeat("a", 65))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "64 characters")
	})
}

func TestTenantIDJSONRoundTrip(t *testing.T) {
	id := NewTenantID()
	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(raw))

	var decoded TenantID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded)
}

func TestParseRole(t *testing.T) {
	t.Run("accepts known roles", func(t *testing.T) {
		for _, raw := range []string{"compliance_reviewer", "platform_approver", "platform_admin"} {
			role, err := ParseRole(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, role.String())
		}
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := ParseRole("superuser")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
