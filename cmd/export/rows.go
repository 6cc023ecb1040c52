package main

import (
	"sort"
	"strconv"

	"github.com/HavvokLab/autarco/api/autarco"
)

type PowerRow struct {
	Inverter  string `csv:"inverter"`
	Timestamp string `csv:"timestamp"`
	Power     string `csv:"power_w"`
}

type EnergyRow struct {
	Inverter string `csv:"inverter"`
	Date     string `csv:"date"`
	Energy   string `csv:"energy_kwh"`
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PowerRows flattens the power statistics, inverters in serial number order
// and points in the order the API reported them.
func PowerRows(stats *autarco.Stats) []*PowerRow {
	rows := make([]*PowerRow, 0)
	perInverter, ok := stats.GeneratePowerStatsInverter()
	if !ok {
		return rows
	}

	for _, inverter := range sortedKeys(perInverter) {
		for _, point := range perInverter[inverter] {
			rows = append(rows, &PowerRow{
				Inverter:  inverter,
				Timestamp: point.Timestamp.String(),
				Power:     optionalInt(point.Power),
			})
		}
	}
	return rows
}

func EnergyRows(stats *autarco.Stats) []*EnergyRow {
	rows := make([]*EnergyRow, 0)
	perInverter, ok := stats.GenerateEnergyStatsInverter()
	if !ok {
		return rows
	}

	for _, inverter := range sortedKeys(perInverter) {
		for _, point := range perInverter[inverter] {
			rows = append(rows, &EnergyRow{
				Inverter: inverter,
				Date:     point.Timestamp.String(),
				Energy:   optionalInt(point.Energy),
			})
		}
	}
	return rows
}
