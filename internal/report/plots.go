package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveHistogram renders a histogram of segment lengths to a PNG file.
func SaveHistogram(lengths []float64, bins int, path string) error {
	if len(lengths) == 0 {
		return fmt.Errorf("no segment lengths to plot")
	}
	if bins < 1 {
		return fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}

	p := plot.New()
	p.Title.Text = "Segment Length Distribution"
	p.X.Label.Text = "Length (cm)"
	p.Y.Label.Text = "Segments"

	h, err := plotter.NewHist(plotter.Values(lengths), bins)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	p.Add(h)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram: %w", err)
	}
	return nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeReportDir creates a timestamped output directory under baseDir and
// returns its path.
func MakeReportDir(baseDir string) (string, error) {
	dir := filepath.Join(baseDir, FormatTimestamp(time.Now()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	return dir, nil
}
