package autarco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/mitchellh/mapstructure"
)

// The API does not advertise a version and its payloads changed shape over
// time. Every decoder below picks its variant from the payload itself.

type member struct {
	key   string
	value json.RawMessage
}

// orderedMembers returns the members of a JSON object in document order.
func orderedMembers(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	members := make([]member, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return members, nil
}

func objectFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if kindOf(raw) != '{' {
		return nil, malformed("expected a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, undecodable(err)
	}
	return fields, nil
}

// kindOf returns the first significant byte of a JSON value.
func kindOf(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func requireKeys(fields map[string]json.RawMessage, what string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if v, ok := fields[k]; !ok || isNull(v) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return malformed("%s is missing %s", what, strings.Join(missing, ", "))
	}
	return nil
}

func unmarshalInto(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return undecodable(err)
	}
	return nil
}

// DecodeAccountSites decodes the account listing. Older API versions return
// a bare array, newer ones wrap it in a "data" member.
func DecodeAccountSites(text string) ([]AccountSite, error) {
	raw := json.RawMessage(text)
	switch kindOf(raw) {
	case '[':
	case '{':
		fields, err := objectFields(raw)
		if err != nil {
			return nil, err
		}
		data, ok := fields["data"]
		if !ok || kindOf(data) != '[' {
			return nil, malformed("account listing has no data array")
		}
		raw = data
	default:
		return nil, malformed("account listing is neither an array nor an object")
	}

	var records []json.RawMessage
	if err := unmarshalInto(raw, &records); err != nil {
		return nil, err
	}

	sites := make([]AccountSite, 0, len(records))
	for _, record := range records {
		site, err := decodeAccountSite(record)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func decodeAccountSite(raw json.RawMessage) (AccountSite, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return AccountSite{}, err
	}
	if err := requireKeys(fields, "account site", "public_key"); err != nil {
		return AccountSite{}, err
	}

	var site AccountSite
	if err := unmarshalInto(raw, &site); err != nil {
		return AccountSite{}, err
	}
	return site, nil
}

// DecodeInverters decodes the "inverters" member of a power response.
func DecodeInverters(text string) (Inverters, error) {
	fields, err := objectFields(json.RawMessage(text))
	if err != nil {
		return Inverters{}, err
	}
	if err := requireKeys(fields, "power response", "inverters"); err != nil {
		return Inverters{}, err
	}
	return decodeInverterMap(fields["inverters"])
}

func decodeInverterMap(raw json.RawMessage) (Inverters, error) {
	if kindOf(raw) != '{' {
		return Inverters{}, malformed("inverters is not an object")
	}

	members, err := orderedMembers(raw)
	if err != nil {
		return Inverters{}, undecodable(err)
	}

	inverters := newInverters(len(members))
	for _, m := range members {
		key, inv, err := decodeInverterEntry(m)
		if err != nil {
			return Inverters{}, err
		}
		inverters.add(key, inv)
	}
	return inverters, nil
}

// decodeInverterEntry accepts either a flat field object or an
// [identifier, fields] pair. The key is the serial number when known.
func decodeInverterEntry(m member) (string, Inverter, error) {
	source := m.value
	identifier := m.key

	switch kindOf(m.value) {
	case '[':
		var pair []json.RawMessage
		if err := unmarshalInto(m.value, &pair); err != nil {
			return "", Inverter{}, err
		}
		if len(pair) != 2 {
			return "", Inverter{}, malformed("inverter %q is not an [identifier, fields] pair", m.key)
		}
		if id := scalarString(pair[0]); id != "" {
			identifier = id
		}
		source = pair[1]
	case '{':
	default:
		return "", Inverter{}, malformed("inverter %q has an unexpected shape", m.key)
	}

	fields, err := objectFields(source)
	if err != nil {
		return "", Inverter{}, err
	}
	what := fmt.Sprintf("inverter %q", m.key)
	if err := requireKeys(fields, what, "out_ac_power", "out_ac_energy_total", "grid_turned_off"); err != nil {
		return "", Inverter{}, err
	}

	var inv Inverter
	if err := unmarshalInto(source, &inv); err != nil {
		return "", Inverter{}, err
	}
	if inv.SerialNumber == "" {
		inv.SerialNumber = identifier
	}
	return inv.SerialNumber, inv, nil
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// DecodePowerResponse decodes the inverters and statistics of a power
// response. A missing or empty stats member yields empty statistics.
func DecodePowerResponse(text string) (*PowerResponse, error) {
	fields, err := objectFields(json.RawMessage(text))
	if err != nil {
		return nil, err
	}
	if err := requireKeys(fields, "power response", "inverters"); err != nil {
		return nil, err
	}

	inverters, err := decodeInverterMap(fields["inverters"])
	if err != nil {
		return nil, err
	}

	stats, err := decodeStats(fields["stats"])
	if err != nil {
		return nil, err
	}

	return &PowerResponse{Inverters: inverters, Stats: *stats}, nil
}

func DecodeEnergyResponse(text string) (*EnergyResponse, error) {
	fields, err := objectFields(json.RawMessage(text))
	if err != nil {
		return nil, err
	}
	if err := requireKeys(fields, "energy response", "stats"); err != nil {
		return nil, err
	}

	stats, err := decodeStats(fields["stats"])
	if err != nil {
		return nil, err
	}
	return &EnergyResponse{Stats: *stats}, nil
}

func decodeStats(raw json.RawMessage) (*Stats, error) {
	stats := &Stats{}
	if isNull(raw) {
		return stats, nil
	}

	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}

	if kpis, ok := fields["kpis"]; ok && !isNull(kpis) {
		if err := unmarshalInto(kpis, &stats.KPIs); err != nil {
			return nil, err
		}
	}

	graphs, ok := fields["graphs"]
	if !ok || isNull(graphs) {
		return stats, nil
	}
	graphFields, err := objectFields(graphs)
	if err != nil {
		return nil, err
	}

	if power, ok := graphFields["pv_power"]; ok && !isNull(power) {
		stats.Graphs.PVPower, err = decodePowerGraph(power)
		if err != nil {
			return nil, err
		}
	}
	if energy, ok := graphFields["pv_energy"]; ok && !isNull(energy) {
		stats.Graphs.PVEnergy, err = decodeEnergyGraph(energy)
		if err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func decodeSeries(raw json.RawMessage, point func(key string, value *int) error) error {
	if kindOf(raw) != '{' {
		return malformed("graph series is not an object")
	}
	members, err := orderedMembers(raw)
	if err != nil {
		return undecodable(err)
	}
	for _, m := range members {
		var value *int
		if err := unmarshalInto(m.value, &value); err != nil {
			return err
		}
		if err := point(m.key, value); err != nil {
			return err
		}
	}
	return nil
}

func decodePowerGraph(raw json.RawMessage) (map[string]PowerSeries, error) {
	var byInverter map[string]json.RawMessage
	if err := unmarshalInto(raw, &byInverter); err != nil {
		return nil, err
	}

	graph := make(map[string]PowerSeries, len(byInverter))
	for id, seriesRaw := range byInverter {
		series := PowerSeries{}
		err := decodeSeries(seriesRaw, func(key string, value *int) error {
			ts, err := ParseTimestamp(key)
			if err != nil {
				return malformed("power graph of %q: %v", id, err)
			}
			series = append(series, PowerPoint{Timestamp: ts, Power: value})
			return nil
		})
		if err != nil {
			return nil, err
		}
		graph[id] = series
	}
	return graph, nil
}

func decodeEnergyGraph(raw json.RawMessage) (map[string]EnergySeries, error) {
	var byInverter map[string]json.RawMessage
	if err := unmarshalInto(raw, &byInverter); err != nil {
		return nil, err
	}

	graph := make(map[string]EnergySeries, len(byInverter))
	for id, seriesRaw := range byInverter {
		series := EnergySeries{}
		err := decodeSeries(seriesRaw, func(key string, value *int) error {
			d, err := ParseDate(key)
			if err != nil {
				return malformed("energy graph of %q: %v", id, err)
			}
			series = append(series, EnergyPoint{Date: d, Energy: value})
			return nil
		})
		if err != nil {
			return nil, err
		}
		graph[id] = series
	}
	return graph, nil
}

// DecodeSite decodes a site detail response, unwrapping the legacy
// {"site": {...}} envelope when present.
func DecodeSite(text string) (*Site, error) {
	raw := json.RawMessage(text)
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}

	if wrapped, ok := fields["site"]; ok && kindOf(wrapped) == '{' {
		if _, flat := fields["public_key"]; !flat {
			raw = wrapped
			if fields, err = objectFields(raw); err != nil {
				return nil, err
			}
		}
	}

	if err := requireKeys(fields, "site", "public_key", "name"); err != nil {
		return nil, err
	}

	var site Site
	if err := unmarshalInto(raw, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// MergeKPIs decodes each KPI payload and merges them in order. Later
// payloads win on key collision. The merge is shallow: a nested object or
// array replaces the earlier value as a whole.
func MergeKPIs(texts ...string) (map[string]any, error) {
	merged := map[string]any{}
	for _, text := range texts {
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()

		var payload map[string]any
		if err := dec.Decode(&payload); err != nil {
			return nil, undecodable(err)
		}
		if payload == nil {
			return nil, malformed("KPI payload is not an object")
		}

		for key, value := range payload {
			switch value.(type) {
			case map[string]any, []any:
				delete(merged, key)
			}
		}

		if err := mergo.Merge(&merged, payload, mergo.WithOverride); err != nil {
			return nil, &GenericError{Message: "unable to merge KPI payloads", Err: err}
		}
	}
	return merged, nil
}

// DecodeSolar extracts the solar metrics from merged KPI data. The legacy
// stats.kpis shape is accepted as well.
func DecodeSolar(data map[string]any) (*Solar, error) {
	if kpis, ok := legacyKPIs(data); ok {
		var legacy legacySolar
		if err := decodeMetrics(kpis, &legacy, "solar"); err != nil {
			return nil, err
		}
		return &Solar{
			PowerProduction:       legacy.CurrentProduction,
			EnergyProductionToday: legacy.OutputToday,
			EnergyProductionMonth: legacy.OutputMonth,
			EnergyProductionTotal: legacy.OutputToDate,
		}, nil
	}

	var solar Solar
	if err := decodeMetrics(data, &solar, "solar"); err != nil {
		return nil, err
	}
	return &solar, nil
}

func DecodeBattery(data map[string]any) (*Battery, error) {
	var battery Battery
	if err := decodeMetrics(data, &battery, "battery"); err != nil {
		return nil, err
	}
	return &battery, nil
}

func legacyKPIs(data map[string]any) (map[string]any, bool) {
	if _, ok := data["pv_now"]; ok {
		return nil, false
	}
	stats, ok := data["stats"].(map[string]any)
	if !ok {
		return nil, false
	}
	kpis, ok := stats["kpis"].(map[string]any)
	if !ok {
		return nil, false
	}
	_, ok = kpis["current_production"]
	return kpis, ok
}

func decodeMetrics(data map[string]any, target any, what string) error {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: numberHook,
		Metadata:   &md,
		Result:     target,
	})
	if err != nil {
		return &GenericError{Message: "unable to build metric decoder", Err: err}
	}

	if err := decoder.Decode(data); err != nil {
		return undecodable(err)
	}

	if len(md.Unset) > 0 {
		missing := append([]string(nil), md.Unset...)
		sort.Strings(missing)
		return malformed("%s metrics are missing %s", what, strings.Join(missing, ", "))
	}
	return nil
}

// numberHook lets integer fields accept fractional JSON numbers.
func numberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return int64(f), nil
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	}
	return data, nil
}
