package model

import (
	"fmt"
	"time"
)

const (
	SolarIndex       = "solar"
	AlarmIndex       = "alarm"
	SiteStationIndex = "site-station"
)

const VendorTypeAutarco = "autarco"

const (
	DataTypeSite     = "SITE"
	DataTypeInverter = "INVERTER"
	DataTypeSolar    = "SOLAR"
	DataTypeBattery  = "BATTERY"
	DataTypeEnergy   = "ENERGY"
	DataTypeAlarm    = "ALARM"
)

const (
	InverterStatusOnline  = "ONLINE"
	InverterStatusGridOff = "GRID_OFF"
	InverterStatusAlarm   = "ALARM"
)

// DailyIndex returns the dated index name, e.g. solar-2024.05.01.
func DailyIndex(prefix string, date time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, date.Format("2006.01.02"))
}

// Meta is flattened into every document.
type Meta struct {
	Timestamp  time.Time `json:"@timestamp"`
	Month      string    `json:"month"`
	Year       string    `json:"year"`
	MonthYear  string    `json:"month_year"`
	VendorType string    `json:"vendor_type"`
	DataType   string    `json:"data_type"`
	Owner      string    `json:"owner"`
}

func NewMeta(ts time.Time, dataType, owner string) Meta {
	return Meta{
		Timestamp:  ts,
		Month:      ts.Format("01"),
		Year:       ts.Format("2006"),
		MonthYear:  ts.Format("01-2006"),
		VendorType: VendorTypeAutarco,
		DataType:   dataType,
		Owner:      owner,
	}
}

type SiteItem struct {
	Meta
	SiteID              string     `json:"site_id"`
	AccountSiteID       int        `json:"account_site_id"`
	Name                *string    `json:"name"`
	Retailer            *string    `json:"retailer,omitempty"`
	Health              *string    `json:"health,omitempty"`
	Street              *string    `json:"street,omitempty"`
	ZipCode             *string    `json:"zip_code,omitempty"`
	City                *string    `json:"city,omitempty"`
	State               *string    `json:"state,omitempty"`
	Country             *string    `json:"country,omitempty"`
	Timezone            *string    `json:"timezone,omitempty"`
	HasBattery          bool       `json:"has_battery"`
	HasConsumptionMeter bool       `json:"has_consumption_meter"`
	InverterCount       int        `json:"inverter_count"`
	CreatedDate         *time.Time `json:"created_date,omitempty"`
}

type InverterItem struct {
	Meta
	SiteID          string   `json:"site_id"`
	SiteName        *string  `json:"site_name"`
	SerialNumber    string   `json:"serial_number"`
	CurrentPower    *float64 `json:"current_power"`
	TotalProduction *float64 `json:"total_production"`
	GridTurnedOff   bool     `json:"grid_turned_off"`
	Health          *string  `json:"health,omitempty"`
	Status          string   `json:"status"`
}

type SolarItem struct {
	Meta
	SiteID            string   `json:"site_id"`
	SiteName          *string  `json:"site_name"`
	CurrentPower      *float64 `json:"current_power"`
	DailyProduction   *float64 `json:"daily_production"`
	MonthlyProduction *float64 `json:"monthly_production"`
	TotalProduction   *float64 `json:"total_production"`
}

type BatteryItem struct {
	Meta
	SiteID          string  `json:"site_id"`
	SiteName        *string `json:"site_name"`
	FlowNow         *int    `json:"flow_now"`
	NetChargedNow   *int    `json:"net_charged_now"`
	StateOfCharge   *int    `json:"state_of_charge"`
	DischargedToday *int    `json:"discharged_today"`
	DischargedMonth *int    `json:"discharged_month"`
	DischargedTotal *int    `json:"discharged_total"`
	ChargedToday    *int    `json:"charged_today"`
	ChargedMonth    *int    `json:"charged_month"`
	ChargedTotal    *int    `json:"charged_total"`
}

// EnergyItem is one day of production of one inverter.
type EnergyItem struct {
	Meta
	SiteID          string   `json:"site_id"`
	SiteName        *string  `json:"site_name"`
	SerialNumber    string   `json:"serial_number"`
	DailyProduction *float64 `json:"daily_production"`
}

type SnmpAlarmItem struct {
	Meta
	SiteName         string `json:"site_name"`
	AlarmName        string `json:"alarm_name"`
	Payload          string `json:"payload"`
	Severity         string `json:"severity"`
	LastedUpdateTime string `json:"lasted_update_time"`
}

func NewSnmpAlarmItem(now time.Time, owner, siteName, alarmName, payload, severity, lastedUpdateTime string) SnmpAlarmItem {
	return SnmpAlarmItem{
		Meta:             NewMeta(now, DataTypeAlarm, owner),
		SiteName:         siteName,
		AlarmName:        alarmName,
		Payload:          payload,
		Severity:         severity,
		LastedUpdateTime: lastedUpdateTime,
	}
}
