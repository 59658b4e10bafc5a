package dto

import (
	"encoding/json"
	"math"
)

// NullableFloats encodes NaN entries as JSON null, which encoding/json
// otherwise refuses to marshal.
type NullableFloats []float64

func (n NullableFloats) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	out := make([]*float64, len(n))
	for i, v := range n {
		out[i] = floatOrNil(v)
	}
	return json.Marshal(out)
}

func (n *NullableFloats) UnmarshalJSON(data []byte) error {
	var in []*float64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in == nil {
		*n = nil
		return nil
	}
	out := make(NullableFloats, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*n = out
	return nil
}

func floatOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
