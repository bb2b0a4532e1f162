package models

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// FieldFormat names an output field and its display precision.
type FieldFormat struct {
	Name      string `json:"name"`
	Precision int32  `json:"precision"`
}

// RecordLayout describes how scored points are rendered: the display fields
// in order, then the indicator value, then its z-score.
type RecordLayout struct {
	Fields          []FieldFormat `json:"fields"`
	ValueField      string        `json:"valueField"`
	ValuePrecision  int32         `json:"valuePrecision"`
	ZScorePrecision int32         `json:"zScorePrecision"`
}

// ZScoreField is the output name of the z-score column.
func (l RecordLayout) ZScoreField() string {
	return l.ValueField + "ZScore"
}

// NamedValue is one rendered column of a Record.
type NamedValue struct {
	Name      string
	Value     float64
	Precision int32
}

// Record is the serialized form of a ScoredPoint with a stable field order.
type Record struct {
	Date   string
	Values []NamedValue
}

// Records renders points with l. Values are rounded here and nowhere earlier.
func (l RecordLayout) Records(points []ScoredPoint) []Record {
	out := make([]Record, 0, len(points))
	for _, p := range points {
		out = append(out, l.Record(p))
	}
	return out
}

func (l RecordLayout) Record(p ScoredPoint) Record {
	values := make([]NamedValue, 0, len(l.Fields)+2)
	for _, f := range l.Fields {
		if f.Name == l.ValueField {
			continue
		}
		v, ok := p.Derived[f.Name]
		if !ok {
			v, ok = p.Raw[f.Name]
		}
		if !ok {
			continue
		}
		values = append(values, NamedValue{Name: f.Name, Value: v, Precision: f.Precision})
	}
	values = append(values,
		NamedValue{Name: l.ValueField, Value: p.Value, Precision: l.ValuePrecision},
		NamedValue{Name: l.ZScoreField(), Value: p.ZScore, Precision: l.ZScorePrecision},
	)
	return Record{Date: p.Date, Values: values}
}

// Get returns the unrounded value of a column.
func (r Record) Get(name string) (float64, bool) {
	for _, v := range r.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

// Rounded returns the value of a column as it is serialized.
func (r Record) Rounded(name string) (float64, bool) {
	for _, v := range r.Values {
		if v.Name == name {
			return round(v.Value, v.Precision).InexactFloat64(), true
		}
	}
	return 0, false
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	date, err := json.Marshal(r.Date)
	if err != nil {
		return nil, err
	}
	buf.Write(date)
	for _, v := range r.Values {
		buf.WriteByte(',')
		name, err := json.Marshal(v.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(round(v.Value, v.Precision).String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}
