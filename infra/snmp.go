package infra

import (
	"fmt"
	"time"

	"github.com/HavvokLab/autarco/config"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog"
)

type TrapType string

func (t TrapType) String() string {
	return string(t)
}

const (
	TrapTypeAutarcoAlarm TrapType = "autarco_alarm"
	TrapTypeClearAlarm   TrapType = "clear_alarm"
)

const (
	CriticalSeverity      = "6"
	MajorSeverity         = "5"
	MinorSeverity         = "4"
	WarningSeverity       = "3"
	IndeterminateSeverity = "2"
	ClearSeverity         = "0"
)

type SnmpOrchestrator struct {
	clients  []*SnmpClient
	trapType TrapType
	logger   *zerolog.Logger
}

func NewSnmpOrchestrator(trapType TrapType, snmpList []config.SnmpConfig) (*SnmpOrchestrator, error) {
	logger := logger.NewComponentLogger("autarco_snmp.log")

	clients := make([]*SnmpClient, 0, len(snmpList))
	for _, c := range snmpList {
		client, err := NewSnmpClient(c)
		if err != nil {
			return nil, err
		}

		clients = append(clients, client)
	}

	return &SnmpOrchestrator{clients: clients, trapType: trapType, logger: &logger}, nil
}

// Close releases the UDP sockets of every target.
func (s *SnmpOrchestrator) Close() {
	for _, client := range s.clients {
		if client.client.Conn != nil {
			client.client.Conn.Close()
		}
	}
}

// SendTrap delivers the trap to every configured target. A failing target is
// logged and does not stop the others.
func (s *SnmpOrchestrator) SendTrap(deviceName, alertName, description, severity, lastedUpdateTime string) {
	for _, client := range s.clients {
		err := client.SendTrap(deviceName, alertName, description, severity, lastedUpdateTime)

		var event *zerolog.Event
		msg := "SnmpOrchestrator::SendTrap() - trap sent"
		if err != nil {
			event = s.logger.Error().Err(err)
			msg = "SnmpOrchestrator::SendTrap() - failed to send trap"
		} else {
			event = s.logger.Info()
		}

		event.
			Str("agent_host", client.agentHost).
			Str("target_host", client.client.Target).
			Int("target_port", int(client.client.Port)).
			Str("trap_type", s.trapType.String()).
			Str("device_name", deviceName).
			Str("alert_name", alertName).
			Str("description", description).
			Str("severity", severity).
			Str("lasted_update_time", lastedUpdateTime).
			Msg(msg)
	}
}

const (
	trapEnterprise = "1.3.6.1.4.1.30378.1.1"
	trapVarPrefix  = "1.3.6.1.4.1.30378.2."
)

type SnmpClient struct {
	agentHost string
	client    *gosnmp.GoSNMP
}

func NewSnmpClient(config config.SnmpConfig) (*SnmpClient, error) {
	client := &gosnmp.GoSNMP{
		Target:             config.TargetHost,
		Port:               uint16(config.TargetPort),
		Transport:          "udp",
		Community:          "public",
		Version:            gosnmp.Version1,
		Timeout:            10 * time.Second,
		Retries:            3,
		ExponentialTimeout: true,
		MaxOids:            gosnmp.MaxOids,
	}

	if err := client.Connect(); err != nil {
		return nil, err
	}

	return &SnmpClient{agentHost: config.AgentHost, client: client}, nil
}

// NewTrap builds the v1 trap; variables 1 to 6 carry the component class,
// device, alert, description, severity and update time.
func NewTrap(agentHost, deviceName, alertName, description, severity, lastedUpdateTime string) gosnmp.SnmpTrap {
	values := []string{"HPOVComponent", deviceName, alertName, description, severity, lastedUpdateTime}
	variables := make([]gosnmp.SnmpPDU, 0, len(values))
	for i, value := range values {
		variables = append(variables, gosnmp.SnmpPDU{
			Name:  fmt.Sprintf("%s%d", trapVarPrefix, i+1),
			Type:  gosnmp.OctetString,
			Value: value,
		})
	}

	return gosnmp.SnmpTrap{
		Enterprise:   trapEnterprise,
		AgentAddress: agentHost,
		GenericTrap:  6,
		SpecificTrap: 1,
		Variables:    variables,
	}
}

func (c *SnmpClient) SendTrap(deviceName, alertName, description, severity, lastedUpdateTime string) error {
	trap := NewTrap(c.agentHost, deviceName, alertName, description, severity, lastedUpdateTime)
	_, err := c.client.SendTrap(trap)
	return err
}
