// Package export writes simulation results as CSV and JSON documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/fleetload/core/ev"
	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/core/metrics/ledger"
	"github.com/kilianp07/fleetload/core/model"
)

// TimeLayout is the timestamp format used in CSV files.
const TimeLayout = time.DateTime

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteTableCSV writes the load table with a Timestamp column followed by
// agent columns and aggregate columns.
func WriteTableCSV(w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(append([]string{model.TimestampColumn}, cols...)); err != nil {
		return err
	}
	rec := make([]string, len(cols)+1)
	for i := 0; i < t.Len(); i++ {
		rec[0] = t.Time(i).Format(TimeLayout)
		for j, c := range cols {
			rec[j+1] = formatFloat(t.Value(i, c))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEventsCSV writes charging events, one line per sub-step.
func WriteEventsCSV(w io.Writer, events []ev.Event) error {
	cw := csv.NewWriter(w)
	header := []string{"vehicle_id", "type", "location", "session", "start", "end", "power_kw", "energy_kwh"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range events {
		rec := []string{
			e.VehicleID,
			e.Type,
			string(e.Location),
			e.Session,
			e.Time.Format(TimeLayout),
			e.End().Format(TimeLayout),
			formatFloat(e.PowerKW),
			formatFloat(e.EnergyKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDaysJSON writes the day summaries as an indented JSON array.
func WriteDaysJSON(w io.Writer, days []coremetrics.DayResult) error {
	if days == nil {
		days = []coremetrics.DayResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(days)
}

// WriteLedgerCSV writes per-agent daily energy balances.
func WriteLedgerCSV(w io.Writer, recs []ledger.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"agent_id", "date", "consumed_kwh", "delivered_kwh", "coverage"}); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.AgentID,
			r.Date.Format(time.DateOnly),
			formatFloat(r.ConsumedKWh),
			formatFloat(r.DeliveredKWh),
			formatFloat(r.Coverage()),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
