package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/platform/config"
	"vigil/internal/platform/middleware/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	root := rootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"flush", "release-deferred", "allowlist", "token"}, names)
}

func TestFlushCmd_RejectsUnknownType(t *testing.T) {
	_, err := execute(t, "flush", "weekly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}

func TestAllowlistSyncCmd_Flags(t *testing.T) {
	cmd := allowlistSyncCmd()
	flag := cmd.Flags().Lookup("emergency")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestTokenIssueCmd(t *testing.T) {
	t.Run("requires service", func(t *testing.T) {
		_, err := execute(t, "token", "issue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service")
	})

	t.Run("issues a token the server accepts", func(t *testing.T) {
		out, err := execute(t, "token", "issue", "--service", "classifier", "--scope", auth.ScopeAdmin)
		require.NoError(t, err)

		cfg, err := config.FromEnv()
		require.NoError(t, err)
		claims, err := auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience).
			Validate(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, "classifier", claims.Subject)
		assert.True(t, claims.HasScope(auth.ScopeAdmin))
	})
}

// Builds the full engine once: metrics register globally per process.
func TestAllowlistCheckCmd_PrintsOnlyTheVerdict(t *testing.T) {
	t.Setenv("ALLOWLIST_CACHE", config.CacheBackendNone)

	out, err := execute(t, "allowlist", "check", "988lifeline.org")
	require.NoError(t, err)
	assert.Equal(t, "matched\n", out)
}
