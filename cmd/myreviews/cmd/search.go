package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"myreviews/internal/search"
)

var (
	searchProvider string
	searchLat      float64
	searchLon      float64
	searchRadius   int
	searchNearby   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Find restaurants on OpenStreetMap",
	Long: `Search restaurants by name through Nominatim or Overpass. Pass --lat
and --lon to center the search; with --nearby the query is ignored and every
restaurant within --radius meters is listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := searchService()
		if err != nil {
			return err
		}

		var restaurants []search.Restaurant
		switch {
		case searchNearby:
			restaurants, err = svc.Nearby(cmd.Context(), searchLat, searchLon, searchRadius)
		case len(args) > 0:
			var bounds *search.Bounds
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				b := search.BoundsAround(searchLat, searchLon, searchRadius)
				bounds = &b
			}
			restaurants, err = svc.Search(cmd.Context(), strings.Join(args, " "), bounds)
		default:
			return fmt.Errorf("give a search query, or use --nearby with --lat/--lon")
		}
		if err != nil {
			return err
		}

		if len(restaurants) == 0 {
			fmt.Println("No restaurants found.")
			return nil
		}
		for _, r := range restaurants {
			fmt.Printf("%-12d %-35s %s\n", r.ID, truncate(r.Name, 35), r.Address)
		}
		fmt.Printf("\n%d results. Review one with 'myreviews review add --restaurant-id ID --restaurant-name NAME ...'\n", len(restaurants))
		return nil
	},
}

func searchService() (search.RestaurantSearchService, error) {
	cfg := search.Config{DefaultLat: searchLat, DefaultLon: searchLon}
	switch searchProvider {
	case "nominatim":
		return search.NewNominatim(cfg), nil
	case "overpass":
		return search.NewOverpass(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, want nominatim or overpass", searchProvider)
	}
}

func init() {
	searchCmd.Flags().StringVar(&searchProvider, "provider", "overpass", "search provider (nominatim, overpass)")
	searchCmd.Flags().Float64Var(&searchLat, "lat", 49.409445, "search center latitude")
	searchCmd.Flags().Float64Var(&searchLon, "lon", 8.693886, "search center longitude")
	searchCmd.Flags().IntVar(&searchRadius, "radius", 2000, "search radius in meters")
	searchCmd.Flags().BoolVar(&searchNearby, "nearby", false, "list all restaurants around the center")
	rootCmd.AddCommand(searchCmd)
}
