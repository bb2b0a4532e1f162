package normalize

import "RiskPulse/internal/domain/models"

// TransformFunc derives the indicator value from one aligned record. extra
// holds derived display fields besides the value. ok=false drops the record.
type TransformFunc func(in models.Fields) (value float64, extra models.Fields, ok bool)

// Identity passes one input through unchanged.
func Identity(field string) TransformFunc {
	return func(in models.Fields) (float64, models.Fields, bool) {
		v, ok := in[field]
		return v, nil, ok
	}
}

// Difference computes (minuend - subtrahend) * scale. Use scale 100 to turn a
// percentage-point spread into basis points.
func Difference(minuend, subtrahend string, scale float64) TransformFunc {
	if scale == 0 {
		scale = 1
	}
	return func(in models.Fields) (float64, models.Fields, bool) {
		a, okA := in[minuend]
		b, okB := in[subtrahend]
		if !okA || !okB {
			return 0, nil, false
		}
		return (a - b) * scale, nil, true
	}
}

// Ratio computes numerator / denominator and drops records whose
// denominator is not positive.
func Ratio(numerator, denominator string) TransformFunc {
	return func(in models.Fields) (float64, models.Fields, bool) {
		n, okN := in[numerator]
		d, okD := in[denominator]
		if !okN || !okD || d <= 0 {
			return 0, nil, false
		}
		return n / d, nil, true
	}
}

// EquityRiskPremium computes the earnings yield 100*eps/price and subtracts
// the real yield. The earnings yield is reported under yieldField.
func EquityRiskPremium(eps, price, realYield, yieldField string) TransformFunc {
	return func(in models.Fields) (float64, models.Fields, bool) {
		e, okE := in[eps]
		p, okP := in[price]
		r, okR := in[realYield]
		if !okE || !okP || !okR || p <= 0 {
			return 0, nil, false
		}
		ey := 100 * e / p
		return ey - r, models.Fields{yieldField: ey}, true
	}
}

// Apply runs t over records. It returns the points in input order and how
// many records the transform rejected. Points own their Raw maps.
func Apply(records []models.AlignedRecord, t TransformFunc) ([]models.IndicatorPoint, int) {
	points := make([]models.IndicatorPoint, 0, len(records))
	rejected := 0
	for _, r := range records {
		v, extra, ok := t(r.Inputs)
		if !ok {
			rejected++
			continue
		}
		points = append(points, models.IndicatorPoint{
			Date:    r.Date,
			Raw:     r.Inputs.Clone(),
			Derived: extra,
			Value:   v,
		})
	}
	return points, rejected
}
