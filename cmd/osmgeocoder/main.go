package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geocoder"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/matcher"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/web"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "osmgeocoder",
		Short: "OpenStreetMap geocoder",
		Long:  "Forward and reverse geocoding plus predictive completion against an OSM place database",
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to environment file")

	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createForwardCmd())
	rootCmd.AddCommand(createReverseCmd())
	rootCmd.AddCommand(createPredictCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	return cfg, nil
}

func openGeocoder() (*geocoder.Geocoder, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return geocoder.Open(cfg)
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the geocoding HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g, closeStore, err := geocoder.Open(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			return web.NewServer(g, cfg.Server).Start()
		},
	}
}

func createForwardCmd() *cobra.Command {
	var country string
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "forward <address>",
		Short: "Geocode a free-text address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, closeStore, err := openGeocoder()
			if err != nil {
				return err
			}
			defer closeStore()

			hints := matcher.Hints{Country: country}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				hints.Center = &geo.Point{Lat: lat, Lon: lon}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			results, err := g.Forward(ctx, args[0], hints)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%.6f, %.6f (rank %.3f)\n%s\n%s\n\n",
					r.Location.Lat, r.Location.Lon, r.Rank, r.Address, r.Attribution)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "restrict results to an ISO country code")
	cmd.Flags().Float64Var(&lat, "lat", 0, "bias results towards this latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "bias results towards this longitude")
	return cmd
}

func createReverseCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reverse <lat> <lon>",
		Short: "Find the address nearest to a coordinate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var lat, lon float64
			if _, err := fmt.Sscanf(args[0], "%f", &lat); err != nil {
				return fmt.Errorf("invalid latitude %q", args[0])
			}
			if _, err := fmt.Sscanf(args[1], "%f", &lon); err != nil {
				return fmt.Errorf("invalid longitude %q", args[1])
			}

			g, closeStore, err := openGeocoder()
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			results, err := g.Reverse(ctx, lat, lon, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}
			for _, r := range results {
				marker := ""
				if !r.Exact {
					marker = " (nearest street, no exact building)"
				}
				fmt.Printf("%.0fm%s\n%s\n%s\n\n", r.DistanceMeters, marker, r.Address, r.Attribution)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	return cmd
}

func createPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <token>",
		Short: "Complete a partial street or city name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, closeStore, err := openGeocoder()
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			suggestions, err := g.Predict(ctx, args[0])
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Printf("%s (%s)\n", s.Name, s.Kind)
			}
			return nil
		},
	}
}

func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pg, err := store.NewPostgres(cfg.DB)
			if err != nil {
				return err
			}
			defer pg.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := pg.Ping(ctx); err != nil {
				return err
			}
			fmt.Println("database connection successful")
			return nil
		},
	}
}
