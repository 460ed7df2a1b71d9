// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"encoding/json"

	"github.com/cropsync/cropsync/farm"
)

// Payload is the normalized form of one telemetry message body. Numeric
// and Text are mutually exclusive: Numeric is set when the metric's
// documented field parses as a number, Text carries the fallback
// representation otherwise. Fields holds the decoded body for auxiliary
// lookups.
type Payload struct {
	Numeric *float64
	Text    *string
	Fields  map[string]interface{}
}

// metricFields maps each recognized metric kind onto the payload field
// holding its numeric value.
var metricFields = map[string]string{
	farm.Temperature: "value_c",
	farm.Humidity:    "value_pct",
	farm.Waterflow:   "l_per_min",
	farm.Waterlevel:  "cm",
	farm.TDS:         "ppm",
}

// waterflowExtras are auxiliary waterflow fields forwarded into the
// live-update event when present, without being persisted.
var waterflowExtras = []string{"total_liters", "avg_l_per_min", "pulses"}

// Normalize maps a raw message body plus its declared metric kind into a
// typed numeric-or-text value. A body that is not valid JSON is replaced
// with a fallback object carrying the raw bytes, serialized into Text. A
// recognized metric whose documented field is absent or non-numeric yields
// neither value: the reading is still recorded with both fields null.
func Normalize(metric string, body []byte) Payload {
	fields := map[string]interface{}{}
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = map[string]interface{}{"raw": string(body)}
		text := marshalFields(fields)
		return Payload{Text: &text, Fields: fields}
	}

	if field, ok := metricFields[metric]; ok {
		if num, ok := fields[field].(float64); ok {
			return Payload{Numeric: &num, Fields: fields}
		}
		return Payload{Fields: fields}
	}

	if num, ok := fields["value"].(float64); ok {
		return Payload{Numeric: &num, Fields: fields}
	}
	text := marshalFields(fields)

	return Payload{Text: &text, Fields: fields}
}

// Extras returns the auxiliary waterflow fields present in the payload.
// Non-waterflow metrics have none.
func (p Payload) Extras(metric string) map[string]interface{} {
	if metric != farm.Waterflow {
		return nil
	}

	extras := map[string]interface{}{}
	for _, key := range waterflowExtras {
		if val, ok := p.Fields[key]; ok {
			extras[key] = val
		}
	}
	if len(extras) == 0 {
		return nil
	}

	return extras
}

func marshalFields(fields map[string]interface{}) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}

	return string(data)
}
