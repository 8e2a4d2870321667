package report

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteVolumeChart renders a bar chart of per-region traced volume to an
// HTML file. Regions are ordered by id so repeated renders of the same
// sweep produce the same chart.
func WriteVolumeChart(volumes map[int]float64, subtitle, path string) error {
	if len(volumes) == 0 {
		return fmt.Errorf("no region volumes to chart")
	}

	ids := make([]int, 0, len(volumes))
	for id := range volumes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	labels := make([]string, 0, len(ids))
	data := make([]opts.BarData, 0, len(ids))
	for _, id := range ids {
		labels = append(labels, fmt.Sprintf("region %d", id))
		data = append(data, opts.BarData{Value: volumes[id]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Traced Region Volumes", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Traced Region Volumes", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("volume", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	if err := bar.Render(f); err != nil {
		return fmt.Errorf("render volume chart: %w", err)
	}
	return nil
}
