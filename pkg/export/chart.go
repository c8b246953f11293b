package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/fleetload/core/model"
)

// WriteTableChartHTML renders columns of t as an HTML line chart, one series
// per column. Without columns every aggregate column is drawn.
func WriteTableChartHTML(w io.Writer, t *model.Table, title string, columns ...string) error {
	if len(columns) == 0 {
		columns = t.AggregateColumns()
	}
	for _, c := range columns {
		if !t.HasColumn(c) {
			return fmt.Errorf("chart %s: unknown column %q", title, c)
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Load (kW)"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	xAxis := make([]string, t.Len())
	for i := range xAxis {
		xAxis[i] = t.Time(i).Format("2006-01-02 15:04")
	}
	line.SetXAxis(xAxis)
	for _, c := range columns {
		data := make([]opts.LineData, t.Len())
		for i := range data {
			data[i] = opts.LineData{Value: t.Value(i, c)}
		}
		line.AddSeries(c, data)
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart %s: %w", title, err)
	}
	return nil
}
