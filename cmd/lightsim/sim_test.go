package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightcode-go/services/config"
)

func TestSim_StepAdvancesVirtualTime(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	sim.Steps(10)
	assert.Equal(t, uint64(10), sim.Ticks())
	assert.Equal(t, 160*time.Millisecond, sim.Elapsed())
	assert.Equal(t, 63, sim.TicksFor(time.Second))
}

func TestSim_PowerCycleStartsOnFreshOutput(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	sim.Btn.Set(true)
	sim.Steps(3)
	sim.Btn.Set(false)
	sim.Steps(30)
	require.Equal(t, "solid", sim.State().State)
	before := sim.Drv

	require.NoError(t, sim.PowerCycle(time.Second))
	assert.NotSame(t, before, sim.Drv)
	assert.False(t, sim.Btn.Pressed())
	assert.Equal(t, "off", sim.State().State)
}

func TestSim_ReloadRejectsInvalidProfile(t *testing.T) {
	sim := newTestSim(t, "narsil", defaultSimOptions())
	bad, err := config.Lookup("narsil")
	require.NoError(t, err)
	bad.Name = "broken"
	bad.Channels = 0

	assert.Error(t, sim.Reload(bad))
	assert.Equal(t, "narsil", sim.Profile().Name)
}

func TestSim_ThermalSensorOptional(t *testing.T) {
	opts := defaultSimOptions()
	opts.Temp = 30
	sim := newTestSim(t, "narsil", opts)
	require.NotNil(t, sim.Temp)
	assert.Nil(t, newTestSim(t, "narsil", defaultSimOptions()).Temp)
}
