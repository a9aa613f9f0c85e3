package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/triplog"
	"github.com/kilianp07/celer/pkg/export"
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Query the trip log and export JSON or CSV",
	RunE:  runTrips,
}

var tripsFlags struct {
	from    string
	to      string
	vehicle int
	limit   int
	format  string
	out     string
}

func init() {
	f := tripsCmd.Flags()
	f.StringVar(&tripsFlags.from, "from", "", "only trips ending at or after this RFC3339 time")
	f.StringVar(&tripsFlags.to, "to", "", "only trips ending at or before this RFC3339 time")
	f.IntVar(&tripsFlags.vehicle, "vehicle", -1, "only trips driven by this vehicle")
	f.IntVar(&tripsFlags.limit, "limit", 0, "maximum number of records")
	f.StringVar(&tripsFlags.format, "format", "json", "json or csv")
	f.StringVarP(&tripsFlags.out, "output", "o", "", "output file (stdout when empty)")
	rootCmd.AddCommand(tripsCmd)
}

func tripQuery() (triplog.TripQuery, error) {
	var q triplog.TripQuery
	var err error
	if tripsFlags.from != "" {
		if q.Start, err = time.Parse(time.RFC3339, tripsFlags.from); err != nil {
			return q, fmt.Errorf("--from: %w", err)
		}
	}
	if tripsFlags.to != "" {
		if q.End, err = time.Parse(time.RFC3339, tripsFlags.to); err != nil {
			return q, fmt.Errorf("--to: %w", err)
		}
	}
	if tripsFlags.vehicle >= 0 {
		q = q.ForVehicle(model.VehicleID(tripsFlags.vehicle))
	}
	q.Limit = tripsFlags.limit
	return q, nil
}

func runTrips(cmd *cobra.Command, args []string) error {
	q, err := tripQuery()
	if err != nil {
		return err
	}
	var write func(io.Writer, []triplog.TripRecord) error
	switch tripsFlags.format {
	case "json":
		write = export.WriteTripsJSON
	case "csv":
		write = export.WriteTripsCSV
	default:
		return fmt.Errorf("unknown format %q", tripsFlags.format)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := triplog.Open(cfg.Logging.Options())
	if err != nil {
		return fmt.Errorf("trip log: %w", err)
	}
	defer func() { _ = store.Close() }()
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}
	if tripsFlags.out == "" {
		return write(cmd.OutOrStdout(), recs)
	}
	f, err := os.Create(tripsFlags.out)
	if err != nil {
		return err
	}
	if err := write(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
