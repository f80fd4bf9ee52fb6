package karen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Karen dumps its MongoDB collections with extended-JSON wrappers around
// object IDs and timestamps. The types in this file unwrap them so the rest
// of the pipeline works with plain Go values.

// ObjectID is a document identifier, either wrapped ({"$oid": "..."}) or a
// plain string.
type ObjectID struct {
	Hex string
}

func (o ObjectID) String() string {
	return o.Hex
}

func (o *ObjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		o.Hex = ""
		return nil
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		o.Hex = plain
		return nil
	}

	var wrapped struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("object id: %w", err)
	}
	o.Hex = wrapped.OID
	return nil
}

// Date is a nullable timestamp exported as
// {"$date": {"$numberLong": "<epoch ms>"}}. Malformed or missing dates
// decode as null instead of failing, matching how the source system's
// exports have always been consumed.
type Date struct {
	Time  time.Time
	Valid bool
}

func (d *Date) UnmarshalJSON(data []byte) error {
	d.Time = time.Time{}
	d.Valid = false

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var wrapper struct {
		Date json.RawMessage `json:"$date"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper.Date) == 0 {
		return nil
	}

	var numberLong struct {
		NumberLong string `json:"$numberLong"`
	}
	if err := json.Unmarshal(wrapper.Date, &numberLong); err == nil && numberLong.NumberLong != "" {
		if ms, err := strconv.ParseInt(numberLong.NumberLong, 10, 64); err == nil {
			d.Time = time.UnixMilli(ms).UTC()
			d.Valid = true
		}
		return nil
	}

	var ms int64
	if err := json.Unmarshal(wrapper.Date, &ms); err == nil {
		d.Time = time.UnixMilli(ms).UTC()
		d.Valid = true
	}
	return nil
}

// Int is a nullable integer. Karen is inconsistent about numeric fields and
// exports them as numbers or as numeric strings depending on the form they
// were captured from; both decode here. A non-numeric value is an error.
type Int struct {
	Int64 int64
	Valid bool
}

func (n *Int) UnmarshalJSON(data []byte) error {
	n.Int64 = 0
	n.Valid = false

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		n.Int64 = i
		n.Valid = true
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Int64 = int64(f)
		n.Valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("integer field: %q is not numeric", s)
		}
		n.Int64 = int64(f)
		n.Valid = true
		return nil
	}

	return fmt.Errorf("integer field: unsupported value %s", string(data))
}

// Float is a nullable float with the same string leniency as Int.
type Float struct {
	Float64 float64
	Valid   bool
}

func (n *Float) UnmarshalJSON(data []byte) error {
	n.Float64 = 0
	n.Valid = false

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Float64 = f
		n.Valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("float field: %q is not numeric", s)
		}
		n.Float64 = f
		n.Valid = true
		return nil
	}

	return fmt.Errorf("float field: unsupported value %s", string(data))
}
