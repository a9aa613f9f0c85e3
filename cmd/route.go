package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/routing"
	"github.com/kilianp07/celer/ingest"
)

var routeCmd = &cobra.Command{
	Use:   "route FROM TO",
	Short: "Print the shortest path between two lat,lon points",
	Args:  cobra.ExactArgs(2),
	RunE:  runRoute,
}

var routeHeuristic string

func init() {
	routeCmd.Flags().StringVar(&routeHeuristic, "heuristic", "", "great_circle or manhattan (defaults to dispatch.heuristic)")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	from, err := geo.ParsePoint(args[0])
	if err != nil {
		return err
	}
	to, err := geo.ParsePoint(args[1])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	unit, err := cfg.Graph.UnitFactor()
	if err != nil {
		return err
	}
	g, err := ingest.LoadGraphFile(cfg.Graph.Path, unit)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	name := routeHeuristic
	if name == "" {
		name = cfg.Dispatch.Heuristic
	}
	h, err := routing.ParseHeuristic(name)
	if err != nil {
		return err
	}
	r, err := routing.NewRouter(g, routing.WithHeuristic(h)).RouteBetween(context.Background(), from, to)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "nodes: %d\ncost: %.1fs\ndistance: %.1fm\n", len(r.Nodes), r.Cost, r.Distance)
	for _, n := range r.Nodes {
		fmt.Fprintf(&b, "%d %s\n", n, g.Point(n))
	}
	_, err = io.WriteString(cmd.OutOrStdout(), b.String())
	return err
}
