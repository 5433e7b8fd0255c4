// Command foc-bench boots the drive on the simulated board, turns a model
// rotor and reports calibration, stream and current measurements.
package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gofoc/config"
	"gofoc/core"
	"gofoc/host/bench"
)

var (
	benchOpts = struct {
		profile string
		config  string
		periods int
		rpm     float64
		amps    float64
		lagDeg  float64
		bus     float64
		trim    uint16
		trimHex string
		events  bool
	}{}

	rootCmd = &cobra.Command{
		Use:          "foc-bench",
		Short:        "Run the drive on the simulated board",
		Long:         "Boot the drive from a board profile on the simulated STM32G4, spin a model rotor and report what the control loop measured.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout())
		},
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in board profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range config.Catalog() {
				fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Description)
			}
			w.Flush()
		},
	}
)

func init() {
	def := bench.DefaultOptions()
	f := rootCmd.Flags()
	f.StringVarP(&benchOpts.profile, "profile", "p", "default", "Built-in board profile")
	f.StringVarP(&benchOpts.config, "config", "c", "", "Board profile YAML file, overrides --profile")
	f.IntVarP(&benchOpts.periods, "periods", "n", def.Periods, "Carrier periods to simulate")
	f.Float64Var(&benchOpts.rpm, "rpm", def.Plant.RPM, "Mechanical rotor speed")
	f.Float64Var(&benchOpts.amps, "amps", def.Plant.Amps, "Phase current amplitude")
	f.Float64Var(&benchOpts.lagDeg, "lag", def.Plant.Lag*180/math.Pi, "Current angle from the d axis, degrees")
	f.Float64Var(&benchOpts.bus, "bus", def.Plant.BusVolts, "Bus voltage")
	f.Uint16Var(&benchOpts.trim, "trim", def.Trim, "Factory Vrefint trim word")
	f.StringVar(&benchOpts.trimHex, "trim-hex", "", "Read the trim word from an Intel-HEX system memory dump")
	f.BoolVarP(&benchOpts.events, "events", "e", false, "List the trace events recorded during the run")

	rootCmd.AddCommand(profilesCmd)
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadProfile() (config.Profile, error) {
	if benchOpts.config == "" {
		return config.Lookup(benchOpts.profile)
	}
	f, err := os.Open(benchOpts.config)
	if err != nil {
		return config.Profile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()
	p, err := config.Load(f)
	if err != nil {
		return config.Profile{}, fmt.Errorf("%s: %w", benchOpts.config, err)
	}
	return *p, nil
}

func options() (bench.Options, error) {
	opts := bench.DefaultOptions()
	opts.Periods = benchOpts.periods
	opts.Trim = benchOpts.trim
	opts.Plant.RPM = benchOpts.rpm
	opts.Plant.Amps = benchOpts.amps
	opts.Plant.Lag = benchOpts.lagDeg * math.Pi / 180
	opts.Plant.BusVolts = benchOpts.bus
	if benchOpts.trimHex != "" {
		f, err := os.Open(benchOpts.trimHex)
		if err != nil {
			return opts, fmt.Errorf("open trim dump: %w", err)
		}
		defer f.Close()
		if opts.Trim, err = bench.TrimFromHex(f); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func run(out io.Writer) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}
	opts, err := options()
	if err != nil {
		return err
	}
	rep, err := bench.Run(prof, opts)
	if rep != nil {
		writeReport(out, rep, benchOpts.events)
	}
	return err
}

func writeReport(out io.Writer, r *bench.Report, events bool) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "profile\t%s\n", r.Profile)
	fmt.Fprintf(w, "carrier\t%s\n", r.Carrier)
	fmt.Fprintf(w, "periods\t%d (control ran %d)\n", r.Periods, r.ControlRuns)
	fmt.Fprintf(w, "stream passes\t%d / %d\n", r.StreamPasses[0], r.StreamPasses[1])
	fmt.Fprintf(w, "vref\t%.4f V / %.4f V\n", r.VrefCal[0], r.VrefCal[1])
	fmt.Fprintf(w, "zero offsets\t%d / %d\n", r.Offsets[0], r.Offsets[1])
	fmt.Fprintf(w, "bus\t%s\n", r.Bus)
	fmt.Fprintf(w, "electrical\t%s (measured %s)\n", r.Electrical, r.Measured)
	for _, s := range []struct {
		name string
		sum  bench.Summary
	}{{"id", r.Id}, {"iq", r.Iq}} {
		fmt.Fprintf(w, "%s\tmean %.4f  sd %.4f  min %.4f  max %.4f  p99 ripple %.4f\n",
			s.name, s.sum.Mean, s.sum.StdDev, s.sum.Min, s.sum.Max, s.sum.Ripple)
	}
	w.Flush()

	if !events {
		return
	}
	fmt.Fprintln(out)
	for _, ev := range r.Events {
		fmt.Fprintf(out, "[%8d] %-13s unit=%d v1=%d v2=%d\n",
			ev.Clock, core.EventKind(ev.Kind), ev.Unit, ev.V1, ev.V2)
	}
}
