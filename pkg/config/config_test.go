package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/tbc/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "x86", cfg.Target)
	assert.True(t, cfg.IsFeatureEnabled(FeatIncludeOnce))
	assert.True(t, cfg.IsWarningEnabled(WarnUnreachableCode))
	assert.True(t, cfg.IsWarningEnabled(WarnLongCharConst))
	assert.False(t, cfg.IsWarningEnabled(WarnExtra))
	assert.Empty(t, cfg.MacroNames())
}

func TestMacros(t *testing.T) {
	cfg := NewConfig()
	cfg.Define("linux", " Debug ", "")
	assert.Equal(t, []string{"DEBUG", "LINUX"}, cfg.MacroNames())
	assert.True(t, cfg.IsDefined("Linux"))
	assert.False(t, cfg.IsDefined("WINDOWS"))
}

func TestTarget(t *testing.T) {
	cfg := NewConfig()
	cfg.SetTarget("X86")
	assert.Equal(t, "x86", cfg.Target)
	cfg.SetTarget("")
	assert.Equal(t, DefaultTarget, cfg.Target)
}

func TestApplyFlags(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ApplyFlags("-Wno-all", "-Wextra", "-Fno-include-once"))
	assert.False(t, cfg.IsWarningEnabled(WarnUnreachableCode))
	assert.True(t, cfg.IsWarningEnabled(WarnExtra))
	assert.False(t, cfg.IsFeatureEnabled(FeatIncludeOnce))

	require.NoError(t, cfg.ApplyFlags("-Wall", "-Finclude-once"))
	assert.True(t, cfg.IsWarningEnabled(WarnLongCharConst))
	assert.True(t, cfg.IsFeatureEnabled(FeatIncludeOnce))

	assert.EqualError(t, cfg.ApplyFlags("-Wbogus"), "unknown warning 'bogus'")
	assert.EqualError(t, cfg.ApplyFlags("-Fbogus"), "unknown feature 'bogus'")
	assert.EqualError(t, cfg.ApplyFlags("-O2"), "unrecognized flag '-O2'")
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("tbc")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)
	require.Len(t, warningFlags, int(WarnCount))
	require.Len(t, featureFlags, int(FeatCount))

	require.NoError(t, fs.Parse([]string{"-Wextra", "-Wno-long-char-const", "-Fno-include-once", "input.tbc"}))
	cfg.ApplyFlagGroups(warningFlags, featureFlags)

	assert.True(t, cfg.IsWarningEnabled(WarnExtra))
	assert.False(t, cfg.IsWarningEnabled(WarnLongCharConst))
	assert.True(t, cfg.IsWarningEnabled(WarnUnreachableCode), "flags not given keep their defaults")
	assert.False(t, cfg.IsFeatureEnabled(FeatIncludeOnce))
	assert.Equal(t, []string{"input.tbc"}, fs.Args())
}
