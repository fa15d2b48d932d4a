// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/geofront/cogtune/internal/config"
	"github.com/geofront/cogtune/internal/gdal"
	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/objstore"
	"github.com/geofront/cogtune/internal/probe"
	"github.com/geofront/cogtune/internal/sentinel"
	"github.com/geofront/cogtune/internal/tuner"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func printVersion() {
	fmt.Printf("cogtuned %s (commit: %s, built: %s)\n", version, commit, buildDate)
}

// runCLI dispatches the one-shot subcommands. CLI output goes to stdout;
// logs stay on stderr at warn level so pipelines see clean output.
func runCLI(cmd string, args []string) int {
	log.Configure(log.Config{Level: "warn", Service: "cogtune", Version: version})

	switch cmd {
	case "version":
		printVersion()
		return 0
	case "config":
		return runConfigCmd(args)
	case "env":
		return runEnvCmd(args)
	case "doctor":
		return runDoctor(args)
	case "scene":
		return runScene(args)
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
	return 2
}

func runConfigCmd(args []string) int {
	if len(args) == 0 || args[0] != "validate" {
		fmt.Fprintln(os.Stderr, "usage: cogtuned config validate [--config path]")
		return 2
	}

	fs := newFlagSet("config validate")
	configPath := fs.String("config", "", "path to config file (YAML)")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(resolveConfigPath(*configPath), version).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		return 1
	}

	fmt.Printf("ok: profile=%s listen=%s upstream=%s cache=%s\n",
		cfg.Profile, cfg.Listen, cfg.Upstream.Backend, cfg.Cache.Backend)
	return 0
}

func runEnvCmd(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cogtuned env <render|diff> [flags]")
		return 2
	}
	switch args[0] {
	case "render":
		return runEnvRender(args[1:])
	case "diff":
		return runEnvDiff(args[1:])
	}
	fmt.Fprintf(os.Stderr, "unknown env subcommand %q\n", args[0])
	return 2
}

func runEnvRender(args []string) int {
	fs := newFlagSet("env render")
	profileName := fs.String("profile", "cog", "profile to render")
	formatName := fs.String("format", "dotenv", "output format: dotenv, export, docker-args, yaml")
	out := fs.String("out", "", "write to file instead of stdout (atomic replace)")
	tune := fs.Bool("tune", false, "overlay cache sizes derived from this host")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	format, err := gdal.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	p, err := gdal.ProfileByName(*profileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *tune {
		p, err = tuner.TunedProfile(*profileName, tuner.Options{})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	if issues := gdal.Validate(p); gdal.HasErrors(issues) {
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, issue)
		}
		return 1
	}

	if *out != "" {
		if err := gdal.WriteFile(*out, p, format); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	rendered, err := gdal.Render(p, format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(rendered)
	return 0
}

func runEnvDiff(args []string) int {
	fs := newFlagSet("env diff")
	profileName := fs.String("profile", "cog", "profile to compare against the environment")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, err := gdal.ProfileByName(*profileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	entries := gdal.Diff(p, os.LookupEnv)
	if len(entries) == 0 {
		fmt.Printf("environment matches profile %q\n", p.Name)
		return 0
	}
	for _, e := range entries {
		current := e.Current
		if e.WasUnset {
			current = "(unset)"
		}
		fmt.Printf("%-40s %s -> %s\n", e.Name, current, gdal.MaskValue(e.Name, e.Profile))
	}
	return 0
}

func runDoctor(args []string) int {
	fs := newFlagSet("doctor")
	timeout := fs.Duration("timeout", 10*time.Second, "per-request timeout")
	insecure := fs.Bool("insecure", false, "skip TLS certificate verification")
	ingest := fs.Int64("ingest-window", 32768, "header window size to verify (bytes)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cogtuned doctor [flags] <url>")
		return 2
	}

	prober, err := probe.New(probe.Options{
		Timeout:      *timeout,
		IngestWindow: *ingest,
		InsecureTLS:  *insecure,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout*3)
	defer cancel()

	report, err := prober.Probe(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("probed %s in %dms\n\n", report.URL, report.DurationMS)
	for _, c := range report.Checks {
		fmt.Printf("  [%s] %-20s %s\n", badge(c.Status), c.Name, c.Detail)
	}
	if len(report.Recommended) > 0 {
		fmt.Println("\nrecommended settings:")
		for _, a := range report.Recommended {
			fmt.Printf("  %s=%s\n", a.Name, a.Value)
		}
	}
	fmt.Printf("\noverall: %s\n", report.Outcome)

	if report.Outcome == probe.StatusFail {
		return 1
	}
	return 0
}

func badge(s probe.Status) string {
	switch s {
	case probe.StatusPass:
		return "ok"
	case probe.StatusWarn:
		return "warn"
	default:
		return "FAIL"
	}
}

func runScene(args []string) int {
	fs := newFlagSet("scene")
	bucket := fs.String("bucket", sentinel.DefaultBucket, "object store bucket")
	scheme := fs.String("scheme", "s3", "URL scheme for band URLs")
	region := fs.String("region", "us-west-2", "S3 region for --fetch")
	fetch := fs.Bool("fetch", false, "fetch the STAC item and list bands and tile coverage")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cogtuned scene [flags] <sceneID>")
		return 2
	}

	id, err := sentinel.ParseSceneID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	prefix, err := sentinel.ExpandTemplate(sentinel.DefaultPrefixTemplate, id.Fields())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("scene:   %s\n", id.Raw)
	fmt.Printf("level:   %s\n", id.ProcessingLevel)
	fmt.Printf("date:    %s-%s-%s\n", id.AcquisitionYear, id.AcquisitionMonth, id.AcquisitionDay)
	fmt.Printf("grid:    %s%s%s\n", id.UTMZone, id.LatitudeBand, id.GridSquare)
	fmt.Printf("prefix:  %s://%s/%s\n", *scheme, *bucket, prefix)
	fmt.Printf("item:    %s://%s/%s/%s.json\n", *scheme, *bucket, prefix, id.Raw)

	if !*fetch {
		return 0
	}

	store, err := objstore.NewS3Store(objstore.Options{Region: *region, Anonymous: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	reader := sentinel.NewReader(store, nil, sentinel.ReaderOptions{
		Bucket: *bucket,
		Scheme: *scheme,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scene, err := reader.Scene(ctx, id.Raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("bounds:  %v\n", scene.Bounds)
	fmt.Println("bands:")
	for _, band := range scene.Bands {
		u, err := reader.BandURL(scene, band)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("  %-4s %s\n", band, u)
	}

	report, err := sentinel.Coverage(scene, scene.MinZoom, scene.MaxZoom)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("tiles:   %d (zoom %d..%d)\n", report.Total, report.MinZoom, report.MaxZoom)
	fmt.Printf("suggested VSI_CACHE_SIZE: %d\n", report.SuggestedVSICacheSize(0))
	return 0
}
