package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsFillsZeroFields(t *testing.T) {
	cfg := &EngineConfig{}
	applyDefaults(cfg)

	assert.Equal(t, 20.0, cfg.GridSizeM)
	assert.Equal(t, 100.0, cfg.BinaryStopAreaM2)
	assert.Equal(t, 0.01, cfg.MinReduction)
	assert.Equal(t, 2.5, cfg.EC)
	assert.Equal(t, 5, cfg.OracleRetryLimit)
	assert.Equal(t, uint64(500), cfg.QueryLimit)
	assert.Equal(t, "files/kml", cfg.KMLDir)
	assert.Equal(t, "files/json", cfg.JSONDir)
}

func TestApplyDefaultsLeavesSetFieldsAlone(t *testing.T) {
	cfg := &EngineConfig{GridSizeM: 5, QueryLimit: 42}
	applyDefaults(cfg)

	assert.Equal(t, 5.0, cfg.GridSizeM)
	assert.Equal(t, uint64(42), cfg.QueryLimit)
}
