package pqreactorconfig_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqreactor/pqreactor/go/pqreactorconfig"
)

func TestDefaultsWithoutFileOrFlags(t *testing.T) {
	loader := pqreactorconfig.NewLoader(afero.NewMemMapFs())
	cfg, err := loader.Decode()
	require.NoError(t, err)
	assert.Equal(t, pqreactorconfig.Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/pqreactor.yaml", []byte(`
dsn: "postgres://localhost/app"
pool_size: 40
log_level: "debug"
`), 0o644))

	loader := pqreactorconfig.NewLoader(fs)
	require.NoError(t, loader.LoadFile("/etc/pqreactor.yaml"))

	cfg, err := loader.Decode()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/app", cfg.DSN)
	assert.Equal(t, 40, cfg.PoolSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat, "unset keys keep their default")
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	loader := pqreactorconfig.NewLoader(afero.NewMemMapFs())
	require.NoError(t, loader.LoadFile("/does/not/exist.yaml"))

	cfg, err := loader.Decode()
	require.NoError(t, err)
	assert.Equal(t, pqreactorconfig.Default(), cfg)
}

func TestBindFlagsTakePrecedenceOverFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/pqreactor.yaml", []byte(`pool_size: 40`), 0o644))

	loader := pqreactorconfig.NewLoader(fs)
	require.NoError(t, loader.LoadFile("/etc/pqreactor.yaml"))

	flags := pflag.NewFlagSet("pqreactor-loadtest", pflag.ContinueOnError)
	flags.Int("pool-size", pqreactorconfig.Default().PoolSize, "")
	require.NoError(t, flags.Set("pool-size", "5"))
	require.NoError(t, loader.BindFlags(flags))

	cfg, err := loader.Decode()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PoolSize)
}

func TestDecodeRejectsNonPositivePoolSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pqreactor.yaml", []byte(`pool_size: 0`), 0o644))

	loader := pqreactorconfig.NewLoader(fs)
	require.NoError(t, loader.LoadFile("/pqreactor.yaml"))

	_, err := loader.Decode()
	assert.Error(t, err)
}

func TestConnectTimeoutParses(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pqreactor.yaml", []byte(`connect_timeout: 15s`), 0o644))

	loader := pqreactorconfig.NewLoader(fs)
	require.NoError(t, loader.LoadFile("/pqreactor.yaml"))

	cfg, err := loader.Decode()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.ConnectTimeout)
}
