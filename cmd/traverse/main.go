// Command traverse runs a segmentation sweep over the built-in pin-lattice
// model, reports segment statistics, and records the run. The 2D track set
// can be persisted to and reloaded from a SQLite track database.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moclab/traverse/internal/config"
	"github.com/moclab/traverse/internal/monitoring"
	"github.com/moclab/traverse/internal/report"
	"github.com/moclab/traverse/internal/trackdb"
	"github.com/moclab/traverse/internal/traverse"
)

func main() {
	configPath := flag.String("config", "", "Path to tuning config JSON (optional)")
	formationFlag := flag.String("formation", "", "Segment formation mode: explicit-2d, explicit-3d, otf-tracks, otf-stacks (overrides config)")
	workers := flag.Int("workers", 0, "Worker pool size, 0 = one per CPU (overrides config)")
	twoWay := flag.Bool("two-way", false, "Traverse each z-stack forward then backward (otf-stacks only)")
	dbPath := flag.String("db", "", "Track database path (overrides config)")
	reportBase := flag.String("report", "", "Report output directory (overrides config)")
	bins := flag.Int("bins", 0, "Histogram bin count (overrides config)")
	saveTracks := flag.Bool("save-tracks", false, "Persist the generated 2D track set to the track database")
	loadTracks := flag.Bool("load-tracks", false, "Load the 2D track set from the track database instead of generating it")
	listRuns := flag.Bool("runs", false, "List recorded sweep runs and exit")
	pins := flag.Int("pins", 8, "Number of pins in the demo lattice")
	tracksPerAzim := flag.Int("tracks", 16, "Parallel 2D tracks per azimuthal angle")
	axialCells := flag.Int("axial-cells", 20, "Axial cells per pin")
	stackSize := flag.Int("stack", 10, "3D tracks per z-stack")
	flag.Parse()

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}

	// Command-line flags win over the config file.
	formationName := cfg.GetFormation()
	if *formationFlag != "" {
		formationName = *formationFlag
	}
	formation, ok := traverse.ParseFormation(formationName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown formation %q\n", formationName)
		os.Exit(1)
	}
	numWorkers := cfg.GetWorkers()
	if *workers > 0 {
		numWorkers = *workers
	}
	trackDB := cfg.GetTrackDBPath()
	if *dbPath != "" {
		trackDB = *dbPath
	}
	reportDir := cfg.GetReportDir()
	if *reportBase != "" {
		reportDir = *reportBase
	}
	histBins := cfg.GetHistogramBins()
	if *bins > 0 {
		histBins = *bins
	}
	runTwoWay := cfg.GetTwoWay() || *twoWay

	store, err := trackdb.Open(trackDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open track db %s: %v\n", trackDB, err)
		os.Exit(1)
	}
	defer store.Close()

	if *listRuns {
		printRuns(store)
		return
	}

	params := defaultLatticeParams()
	params.Pins = *pins
	params.TracksPerAzim = *tracksPerAzim
	params.AxialCells = *axialCells
	params.StackSize = *stackSize

	var model *traverse.Model
	if *loadTracks {
		tracks2D, err := store.LoadTracks()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load tracks: %v\n", err)
			os.Exit(1)
		}
		if len(tracks2D) == 0 {
			fmt.Fprintf(os.Stderr, "track db %s holds no tracks; run with -save-tracks first\n", trackDB)
			os.Exit(1)
		}
		model, err = assembleLatticeModel(params, tracks2D)
		if err != nil {
			fmt.Fprintf(os.Stderr, "assemble model: %v\n", err)
			os.Exit(1)
		}
	} else {
		model, err = buildLatticeModel(params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build model: %v\n", err)
			os.Exit(1)
		}
		if *saveTracks {
			if err := store.SaveTracks(model.Tracks2D); err != nil {
				fmt.Fprintf(os.Stderr, "save tracks: %v\n", err)
				os.Exit(1)
			}
			monitoring.Logf("saved 2D track set to %s", trackDB)
		}
	}

	collector := report.NewCollector()
	factory := func(scratch *traverse.SegmentBuffer) traverse.Kernel {
		if runTwoWay {
			return &twoWaySegmentation{traverse.NewSegmentationKernel(scratch)}
		}
		return traverse.NewSegmentationKernel(scratch)
	}

	tr, err := traverse.New(model, traverse.Options{
		Formation:      formation,
		Workers:        numWorkers,
		ScratchReserve: cfg.GetScratchReserve(),
		Kernels:        factory,
		OnTrack:        collector.OnTrack,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configure sweep: %v\n", err)
		os.Exit(1)
	}

	if runTwoWay {
		err = tr.LoopOverTracksTwoWay()
	} else {
		err = tr.LoopOverTracks()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep failed: %v\n", err)
		os.Exit(1)
	}

	snap := tr.SweepStats()
	summary := collector.Summary()
	monitoring.Logf("segments: %s", summary)

	dir, err := report.MakeReportDir(reportDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report dir: %v\n", err)
		os.Exit(1)
	}
	if err := report.SaveHistogram(collector.Lengths(), histBins, filepath.Join(dir, "segment_lengths.png")); err != nil {
		fmt.Fprintf(os.Stderr, "histogram: %v\n", err)
		os.Exit(1)
	}
	subtitle := fmt.Sprintf("%s: %d tracks, %d segments in %v", snap.Mode, snap.Tracks, snap.Segments, snap.Elapsed)
	if err := report.WriteVolumeChart(collector.Volumes(), subtitle, filepath.Join(dir, "region_volumes.html")); err != nil {
		fmt.Fprintf(os.Stderr, "volume chart: %v\n", err)
		os.Exit(1)
	}
	monitoring.Logf("report written to %s", dir)

	runID, err := store.RecordRun(snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "record run: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("run %s: %s\n", runID, subtitle)
}

func printRuns(store *trackdb.Store) {
	runs, err := store.Runs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %-12s %8d tracks %10d segments  %v\n",
			r.ID, r.Formation, r.Tracks, r.Segments, r.Elapsed)
	}
}

// twoWaySegmentation collects segments from both traversal directions into
// one scratch buffer. The direction notifications carry no extra state here.
type twoWaySegmentation struct {
	*traverse.SegmentationKernel
}

func (k *twoWaySegmentation) SetDirection(forward bool) {}

func (k *twoWaySegmentation) DirectionComplete() {}
