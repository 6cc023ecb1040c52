package infra

import (
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrap(t *testing.T) {
	trap := NewTrap("10.0.0.1", "Home", "Autarco-GridOff", "Autarco,fake_key,UIAD1234567", MajorSeverity, "2024-05-01 10:00:00")

	assert.Equal(t, "10.0.0.1", trap.AgentAddress)
	assert.Equal(t, "1.3.6.1.4.1.30378.1.1", trap.Enterprise)
	require.Len(t, trap.Variables, 6)
	assert.Equal(t, "1.3.6.1.4.1.30378.2.1", trap.Variables[0].Name)
	assert.Equal(t, "HPOVComponent", trap.Variables[0].Value)
	assert.Equal(t, "1.3.6.1.4.1.30378.2.3", trap.Variables[2].Name)
	assert.Equal(t, "Autarco-GridOff", trap.Variables[2].Value)
	assert.Equal(t, MajorSeverity, trap.Variables[4].Value)
	for _, v := range trap.Variables {
		assert.Equal(t, gosnmp.OctetString, v.Type)
	}
}

func TestTrapTypeString(t *testing.T) {
	assert.Equal(t, "autarco_alarm", TrapTypeAutarcoAlarm.String())
}
