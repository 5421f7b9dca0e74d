package fetch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// StreamID identifies one remote series. Zero is never a valid ID.
type StreamID uint64

// Point is one reading of a stream.
type Point struct {
	Timestamp uint64  `json:"ts"`
	Value     float64 `json:"value"`
}

type pointJSON struct {
	Timestamp uint64          `json:"ts"`
	Value     json.RawMessage `json:"value"`
}

// MarshalJSON writes NaN and infinite values as the strings "NaN", "+Inf"
// and "-Inf", which encoding/json cannot represent as numbers.
func (p Point) MarshalJSON() ([]byte, error) {
	v := strconv.FormatFloat(p.Value, 'g', -1, 64)
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		v = strconv.Quote(v)
	}
	return json.Marshal(pointJSON{Timestamp: p.Timestamp, Value: json.RawMessage(v)})
}

// UnmarshalJSON accepts a number or one of the strings written by MarshalJSON.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw pointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var value float64
	if len(raw.Value) > 0 && raw.Value[0] == '"' {
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("point value %q: %w", s, err)
		}
		value = f
	} else if len(raw.Value) > 0 {
		if err := json.Unmarshal(raw.Value, &value); err != nil {
			return err
		}
	}

	p.Timestamp = raw.Timestamp
	p.Value = value
	return nil
}
