package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pspoerri/fosfix/internal/api"
	"github.com/pspoerri/fosfix/internal/config"
	"github.com/pspoerri/fosfix/internal/encode"
	"github.com/pspoerri/fosfix/internal/logging"
	"github.com/pspoerri/fosfix/internal/resection"
	"github.com/pspoerri/fosfix/internal/sketch"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		a, b, c, d, target string
		observedA          string
		observedB          string
		input              string
		model              string
		method             string
		zone               string
		system             string
		precision          int
		jsonOut            bool
		sketchPath         string
		sketchSize         int
		quality            int
		verbose            bool
		showVersion        bool
	)

	flag.StringVar(&a, "a", "", "Station A: \"lat lon\" (geo) or \"easting northing\" (grid)")
	flag.StringVar(&b, "b", "", "Station B")
	flag.StringVar(&c, "c", "", "Point C, sighted from B")
	flag.StringVar(&d, "d", "", "Point D, sighted from A")
	flag.StringVar(&target, "target", "", "Target point")
	flag.StringVar(&observedA, "from-a", "", "Observed bearing at A in degrees (replaces -d)")
	flag.StringVar(&observedB, "from-b", "", "Observed bearing at B in degrees (replaces -c)")
	flag.StringVar(&input, "input", "", "Scenario file (YAML, JSON or TOML); flags override its fields")
	flag.StringVar(&model, "model", "", "Coordinate model: geo or grid (default geo)")
	flag.StringVar(&method, "method", "", "Solve method: auto, triangle, intersection")
	flag.StringVar(&zone, "zone", "", "UTM zone for grid input, e.g. 43N or 43R")
	flag.StringVar(&system, "system", "", "Projected system: utm or lv95 (default utm)")
	flag.IntVar(&precision, "precision", 0, "Grid reference digits per axis, 1-5 (default 5)")
	flag.BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	flag.StringVar(&sketchPath, "sketch", "", "Write a plan sketch to this .png, .jpg or .webp file")
	flag.IntVar(&sketchSize, "sketch-size", sketch.DefaultSize, "Sketch size in pixels")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP sketch quality 1-100 (100 = lossless WebP)")
	flag.BoolVar(&verbose, "verbose", false, "Log engine decisions to stderr")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fos [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Locate a firing/observation station (FOS) from two known stations and\n")
		fmt.Fprintf(os.Stderr, "the points they sight, then report the correction onto a target.\n\n")
		fmt.Fprintf(os.Stderr, "Example:\n  fos -a \"28.6139 77.2090\" -b \"28.7041 77.1025\" -c \"28.75 77.45\" \\\n")
		fmt.Fprintf(os.Stderr, "      -d \"28.76 77.38\" -target \"28.71 77.31\"\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("fos %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logCfg := logging.Config{Level: "warn"}
	if verbose {
		logCfg.Level = "debug"
	}
	logger := logging.New(logCfg)

	req := &api.ResectRequest{}
	if input != "" {
		var err error
		if req, err = config.LoadScenario(input); err != nil {
			log.Fatalf("Scenario: %v", err)
		}
	}

	overrides := requestFlags{
		model:     model,
		method:    method,
		zone:      zone,
		system:    system,
		precision: precision,
		points:    map[string]string{"A": a, "B": b, "C": c, "D": d, "Target": target},
		fromA:     observedA,
		fromB:     observedB,
	}
	if err := overrides.apply(req); err != nil {
		log.Fatalf("Input: %v", err)
	}
	if len(req.Points) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	in, err := req.Input()
	if err != nil {
		log.Fatalf("Input: %v", err)
	}

	engine, err := resection.NewEngine(resection.Config{}, resection.WithLogger(logger))
	if err != nil {
		log.Fatalf("Engine: %v", err)
	}
	res, err := engine.Solve(context.Background(), in)
	if err != nil {
		log.Fatalf("Resection failed: %v", err)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalf("Encoding result: %v", err)
		}
	} else {
		writeReport(os.Stdout, res)
	}

	if sketchPath != "" {
		if err := writeSketch(sketchPath, res, in, sketchSize, quality); err != nil {
			log.Fatalf("Sketch: %v", err)
		}
		if verbose {
			log.Printf("Sketch written → %s", sketchPath)
		}
	}
}

func writeSketch(path string, res *resection.Result, in resection.Input, size, quality int) error {
	enc, err := encode.ForPath(path, quality)
	if err != nil {
		return err
	}
	img, _, err := sketch.Render(res, in, size)
	if err != nil {
		return err
	}
	defer sketch.PutCanvas(img)

	data, err := enc.Encode(img)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
