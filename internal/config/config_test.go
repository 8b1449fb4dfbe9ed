package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/snapcat/cat"
	"github.com/blinklabs-io/snapcat/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTail       = strings.Repeat("11", 32)
	testHidden     = strings.Repeat("22", 32)
	testRevocation = strings.Repeat("33", 32)
)

func resetGlobalConfig(t *testing.T) {
	globalConfig = defaultConfig()
	// Keep user and system config files out of the way
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig(t)
	yamlContent := `
tailHash: "` + testTail + `"
hiddenPuzzleHash: "0x` + testHidden + `"
revocationLayerModHash: "` + testRevocation + `"
databaseFile: "ledger.db"
rpcUrl: "https://node1:8555,https://node2:8555"
rpcCertFile: "private_full_node.crt"
rpcKeyFile: "private_full_node.key"
rpcCaFile: "private_ca.crt"
rpcTimeout: "5s"
startHeight: 4000000
pollInterval: "30s"
metricsListen: ":12798"
tracing: true
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-snapcat.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0o644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	expected := &Config{
		TailHash:               testTail,
		HiddenPuzzleHash:       "0x" + testHidden,
		RevocationLayerModHash: testRevocation,
		CatModHash:             cat.Cat2ModHash.String(),
		DatabaseFile:           "ledger.db",
		RpcUrl:                 "https://node1:8555,https://node2:8555",
		RpcCertFile:            "private_full_node.crt",
		RpcKeyFile:             "private_full_node.key",
		RpcCaFile:              "private_ca.crt",
		RpcTimeout:             "5s",
		StartHeight:            4000000,
		PollInterval:           "30s",
		MaxCost:                11_000_000_000,
		MetricsListen:          ":12798",
		Tracing:                true,
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expected := defaultConfig()
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			expected,
			cfg,
		)
	}
}

func TestLoad_UserConfigFile(t *testing.T) {
	resetGlobalConfig(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".snapcat"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, ".snapcat", "snapcat.yaml"),
		[]byte("startHeight: 42\n"),
		0o644,
	))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.StartHeight)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	resetGlobalConfig(t)
	t.Setenv("SNAPCAT_TAIL_HASH", testTail)
	t.Setenv("SNAPCAT_RPC_URL", "https://env-node:8555")
	t.Setenv("SNAPCAT_START_HEIGHT", "123")
	t.Setenv("SNAPCAT_RPC_INSECURE_SKIP_VERIFY", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, testTail, cfg.TailHash)
	assert.Equal(t, "https://env-node:8555", cfg.RpcUrl)
	assert.Equal(t, uint64(123), cfg.StartHeight)
	assert.True(t, cfg.RpcInsecureSkipVerify)
	assert.True(t, cfg.TLSOptions().Enabled())
}

func TestLoad_Errors(t *testing.T) {
	resetGlobalConfig(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("startHeight: [1"), 0o644))
	_, err = LoadConfig(tmpFile)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.TailHash = "abcd"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.CatModHash = ""
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.HiddenPuzzleHash = testHidden
	assert.Error(t, cfg.Validate())
	cfg.RevocationLayerModHash = strings.Repeat("33", 32)
	assert.NoError(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.PollInterval = "soon"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.RpcTimeout = "-1s"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.RpcTimeout = ""
	timeout, err := cfg.RpcTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestIdentityAndTemplates(t *testing.T) {
	cfg := defaultConfig()
	_, err := cfg.Identity()
	require.ErrorIs(t, err, ErrNoTailHash)
	_, err = cfg.DatabasePath()
	require.ErrorIs(t, err, ErrNoTailHash)

	cfg.TailHash = "0x" + testTail
	identity, err := cfg.Identity()
	require.NoError(t, err)
	assert.Equal(t, types.MustBytes32FromHex(testTail), identity.TailHash)
	assert.False(t, identity.Revocable())

	path, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, testTail+".db", path)
	cfg.DatabaseFile = "custom.db"
	path, err = cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "custom.db", path)

	cfg.HiddenPuzzleHash = testHidden
	identity, err = cfg.Identity()
	require.NoError(t, err)
	require.True(t, identity.Revocable())
	assert.Equal(t, types.MustBytes32FromHex(testHidden), *identity.HiddenPuzzleHash)

	templates, err := cfg.Templates()
	require.NoError(t, err)
	assert.Equal(t, cat.Cat2ModHash, templates.CatModHash)
	assert.Nil(t, templates.RevocationLayerModHash)

	cfg.RevocationLayerModHash = strings.Repeat("33", 32)
	templates, err = cfg.Templates()
	require.NoError(t, err)
	require.NotNil(t, templates.RevocationLayerModHash)
	assert.Equal(t, types.MustBytes32FromHex(strings.Repeat("33", 32)), *templates.RevocationLayerModHash)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
