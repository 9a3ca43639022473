package darlin

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark/test"
	"github.com/hashicorp/go-multierror"
)

func TestConfigRoundTrip(t *testing.T) {
	assert := test.NewAssert(t)

	cfg := NewDefaultConfig()
	assert.NoError(cfg.Validate())
	cfg.Verifier.Workers = 3
	cfg.HardPart.Accelerator = "icicle"
	cfg.Log.Level = "debug"

	file := filepath.Join(t.TempDir(), "darlin.toml")
	assert.NoError(cfg.WriteFile(file))
	read, err := ReadConfigFile(file)
	assert.NoError(err)
	assert.Equal(cfg, read)
	assert.Equal(3, read.workers())
}

func TestConfigValidate(t *testing.T) {
	assert := test.NewAssert(t)

	cfg := NewDefaultConfig()
	cfg.Verifier.Workers = -1
	cfg.HardPart.Accelerator = "fpga"
	cfg.HardPart.NbTasks = 2048
	cfg.CommitterKey.SizeG1 = 100
	cfg.Log.Level = "loud"

	var merr *multierror.Error
	assert.True(errors.As(cfg.Validate(), &merr))
	assert.Equal(5, len(merr.Errors))

	cfg = NewDefaultConfig()
	cfg.Log = nil
	assert.Error(cfg.Validate())
}
