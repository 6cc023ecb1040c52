package autarco

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type AccountSite struct {
	SiteID     int     `json:"site_id"`
	PublicKey  string  `json:"public_key"`
	SystemName string  `json:"name"`
	Retailer   string  `json:"name_retailer"`
	Health     *string `json:"health,omitempty"`
}

type Inverter struct {
	SerialNumber     string  `json:"sn"`
	OutACPower       int     `json:"out_ac_power"`
	OutACEnergyTotal int     `json:"out_ac_energy_total"`
	GridTurnedOff    bool    `json:"grid_turned_off"`
	Health           *string `json:"health,omitempty"`
}

// Inverters is an ordered collection of inverters keyed by serial number.
// Iteration order is the order in which the API listed them.
type Inverters struct {
	keys  []string
	items map[string]Inverter
}

func newInverters(capacity int) Inverters {
	return Inverters{
		keys:  make([]string, 0, capacity),
		items: make(map[string]Inverter, capacity),
	}
}

func (i *Inverters) add(key string, inv Inverter) {
	if _, ok := i.items[key]; !ok {
		i.keys = append(i.keys, key)
	}
	i.items[key] = inv
}

func (i Inverters) Len() int {
	return len(i.keys)
}

// Keys returns the serial numbers in upstream order.
func (i Inverters) Keys() []string {
	return append([]string(nil), i.keys...)
}

func (i Inverters) Get(serialNumber string) (Inverter, bool) {
	inv, ok := i.items[serialNumber]
	return inv, ok
}

// All returns the inverters in upstream order.
func (i Inverters) All() []Inverter {
	out := make([]Inverter, 0, len(i.keys))
	for _, k := range i.keys {
		out = append(out, i.items[k])
	}
	return out
}

// Map returns a copy keyed by serial number.
func (i Inverters) Map() map[string]Inverter {
	out := make(map[string]Inverter, len(i.items))
	for k, v := range i.items {
		out[k] = v
	}
	return out
}

// LabeledInverter pairs an inverter with its positional display label.
type LabeledInverter struct {
	Label    string   `json:"label"`
	Inverter Inverter `json:"inverter"`
}

// Labeled returns the legacy display view, "Inverter 1", "Inverter 2", ...
// in upstream order.
func (i Inverters) Labeled() []LabeledInverter {
	out := make([]LabeledInverter, 0, len(i.keys))
	for n, k := range i.keys {
		out = append(out, LabeledInverter{
			Label:    fmt.Sprintf("Inverter %d", n+1),
			Inverter: i.items[k],
		})
	}
	return out
}

func (i Inverters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, k := range i.keys {
		if n > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(i.items[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Solar struct {
	PowerProduction       int `json:"pv_now" mapstructure:"pv_now"`
	EnergyProductionToday int `json:"pv_today" mapstructure:"pv_today"`
	EnergyProductionMonth int `json:"pv_month" mapstructure:"pv_month"`
	EnergyProductionTotal int `json:"pv_to_date" mapstructure:"pv_to_date"`
}

// legacySolar is the shape older API versions reported under stats.kpis.
type legacySolar struct {
	CurrentProduction int `mapstructure:"current_production"`
	OutputToday       int `mapstructure:"output_today"`
	OutputMonth       int `mapstructure:"output_month"`
	OutputToDate      int `mapstructure:"output_to_date"`
}

type Battery struct {
	// Power - flow
	FlowNow       int `json:"battery_now" mapstructure:"battery_now"`
	NetChargedNow int `json:"battery_net_charged_now" mapstructure:"battery_net_charged_now"`
	StateOfCharge int `json:"battery_soc" mapstructure:"battery_soc"`

	// Energy - discharged
	DischargedToday int `json:"battery_discharged_today" mapstructure:"battery_discharged_today"`
	DischargedMonth int `json:"battery_discharged_month" mapstructure:"battery_discharged_month"`
	DischargedTotal int `json:"battery_discharged_to_date" mapstructure:"battery_discharged_to_date"`

	// Energy - charged
	ChargedToday int `json:"battery_charged_today" mapstructure:"battery_charged_today"`
	ChargedMonth int `json:"battery_charged_month" mapstructure:"battery_charged_month"`
	ChargedTotal int `json:"battery_charged_to_date" mapstructure:"battery_charged_to_date"`
}

type Address struct {
	Street  string  `json:"address_line_1"`
	ZipCode string  `json:"postcode"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	State   *string `json:"state,omitempty"`
}

type Site struct {
	PublicKey           string   `json:"public_key"`
	Name                string   `json:"name"`
	Address             *Address `json:"address,omitempty"`
	HasConsumptionMeter bool     `json:"has_consumption_meter"`
	HasBattery          bool     `json:"has_battery"`
	Timezone            string   `json:"timezone"`
	CreatedAt           *Date    `json:"dt_created,omitempty"`
}

type PowerPoint struct {
	Timestamp Timestamp
	Power     *int
}

type EnergyPoint struct {
	Date   Date
	Energy *int
}

// PowerSeries and EnergySeries keep points in the order the API sent them and
// serialize back to the upstream timestamp -> value object.
type PowerSeries []PowerPoint

type EnergySeries []EnergyPoint

func (s PowerSeries) MarshalJSON() ([]byte, error) {
	return marshalSeries(len(s), func(n int) (string, *int) { return s[n].Timestamp.String(), s[n].Power })
}

func (s EnergySeries) MarshalJSON() ([]byte, error) {
	return marshalSeries(len(s), func(n int) (string, *int) { return s[n].Date.String(), s[n].Energy })
}

func marshalSeries(size int, at func(int) (string, *int)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n := 0; n < size; n++ {
		if n > 0 {
			buf.WriteByte(',')
		}
		k, v := at(n)
		key, _ := json.Marshal(k)
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Graphs holds per-inverter series. A nil map means the API did not send
// that series at all.
type Graphs struct {
	PVPower  map[string]PowerSeries  `json:"pv_power,omitempty"`
	PVEnergy map[string]EnergySeries `json:"pv_energy,omitempty"`
}

type Stats struct {
	Graphs Graphs         `json:"graphs"`
	KPIs   map[string]any `json:"kpis,omitempty"`
}

type PowerStat struct {
	Timestamp Timestamp `json:"timestamp"`
	Power     *int      `json:"power"`
}

type EnergyStat struct {
	Timestamp Date `json:"timestamp"`
	Energy    *int `json:"energy"`
}

// GeneratePowerStatsInverter regroups the power graph per inverter. The bool
// is false when no power series was fetched.
func (s *Stats) GeneratePowerStatsInverter() (map[string][]PowerStat, bool) {
	if s.Graphs.PVPower == nil {
		return nil, false
	}

	out := make(map[string][]PowerStat, len(s.Graphs.PVPower))
	for id, series := range s.Graphs.PVPower {
		stats := make([]PowerStat, 0, len(series))
		for _, p := range series {
			stats = append(stats, PowerStat{Timestamp: p.Timestamp, Power: p.Power})
		}
		out[id] = stats
	}
	return out, true
}

// GenerateEnergyStatsInverter regroups the energy graph per inverter. The
// bool is false when no energy series was fetched.
func (s *Stats) GenerateEnergyStatsInverter() (map[string][]EnergyStat, bool) {
	if s.Graphs.PVEnergy == nil {
		return nil, false
	}

	out := make(map[string][]EnergyStat, len(s.Graphs.PVEnergy))
	for id, series := range s.Graphs.PVEnergy {
		stats := make([]EnergyStat, 0, len(series))
		for _, p := range series {
			stats = append(stats, EnergyStat{Timestamp: p.Date, Energy: p.Energy})
		}
		out[id] = stats
	}
	return out, true
}

type PowerResponse struct {
	Inverters Inverters `json:"inverters"`
	Stats     Stats     `json:"stats"`
}

type EnergyResponse struct {
	Stats Stats `json:"stats"`
}
