package setting

const (
	AlarmNameGridOff = "Autarco-GridOff"
	AlarmNameHealth  = "Autarco-Health"
	AlarmNameClear   = "Autarco-Clear"
)

// HealthOK is the health value the portal reports for a site or inverter
// without problems.
const HealthOK = "OK"
