package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/motionctl/internal/dynamo"
)

var csvHeader = []string{
	"time", "state", "distance", "velocity", "heading",
	"tracking", "setpoint", "measured",
	"forward", "rotation", "height", "winch", "roller",
	"p", "i", "d", "ff", "saturated",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func WriteCSV(w io.Writer, samples []dynamo.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.Time), s.State,
			formatFloat(s.Distance), formatFloat(s.Velocity), formatFloat(s.Heading),
			strconv.FormatBool(s.Tracking), formatFloat(s.Setpoint), formatFloat(s.Measured),
			formatFloat(s.Forward), formatFloat(s.Rotation),
			formatFloat(s.Height), formatFloat(s.Winch), formatFloat(s.Roller),
			formatFloat(s.Proportional), formatFloat(s.Integral), formatFloat(s.Derivative), formatFloat(s.Feedforward),
			strconv.FormatBool(s.Saturated),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows written by WriteCSV.
func ReadCSV(r *csv.Reader) ([]dynamo.Sample, error) {
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		var (
			s      dynamo.Sample
			perr   error
			floats = []*float64{
				&s.Time, nil, &s.Distance, &s.Velocity, &s.Heading,
				nil, &s.Setpoint, &s.Measured,
				&s.Forward, &s.Rotation, &s.Height, &s.Winch, &s.Roller,
				&s.Proportional, &s.Integral, &s.Derivative, &s.Feedforward, nil,
			}
		)
		for j, dst := range floats {
			if dst == nil {
				continue
			}
			if *dst, perr = strconv.ParseFloat(rec[j], 64); perr != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, csvHeader[j], perr)
			}
		}
		s.State = rec[1]
		if s.Tracking, perr = strconv.ParseBool(rec[5]); perr != nil {
			return nil, fmt.Errorf("row %d column tracking: %w", i+1, perr)
		}
		if s.Saturated, perr = strconv.ParseBool(rec[17]); perr != nil {
			return nil, fmt.Errorf("row %d column saturated: %w", i+1, perr)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

type ExportData struct {
	Run     RunMetadata     `json:"run"`
	Samples []dynamo.Sample `json:"samples"`
}

func ExportJSON(w io.Writer, meta RunMetadata, samples []dynamo.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Samples: samples})
}
