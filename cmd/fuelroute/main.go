package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"github.com/chane12/fuelroute/server/internal/cache"
	"github.com/chane12/fuelroute/server/internal/clients/google"
	"github.com/chane12/fuelroute/server/internal/clients/miteco"
	"github.com/chane12/fuelroute/server/internal/clients/osrm"
	"github.com/chane12/fuelroute/server/internal/config"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
	"github.com/chane12/fuelroute/server/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	command := os.Args[1]

	switch command {
	case "analyze":
		handleAnalyze()
	case "fuels":
		handleFuels()
	case "profiles":
		handleProfiles()
	case "project":
		handleProject()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAnalyze() {
	cfg := config.DefaultConfig()

	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	gpxFile := fs.String("gpx", "", "GPX file with the route track")
	kmlFile := fs.String("kml", "", "KML file with the route line")
	polyline := fs.String("polyline", "", "Encoded polyline of the route")
	from := fs.String("from", "", "Origin place name")
	to := fs.String("to", "", "Destination place name")
	demo := fs.Bool("demo", false, "Use the built-in Madrid - Miraflores demo route")
	catalogFile := fs.String("catalog", "", "Saved MITECO JSON feed instead of the live one")

	fuel := fs.String("fuel", cfg.Analysis.Fuel, "Fuel type (see 'fuels')")
	radiusKm := fs.Float64("radius-km", cfg.Analysis.Radius/1000, "Corridor radius in km (1-15)")
	topN := fs.Int("top", cfg.Analysis.TopN, "Number of cheapest stations to list")
	segmentKm := fs.Float64("segment-km", 0, "Also keep the cheapest station of every stretch of this length")

	profiles := fs.String("profiles", "", "TOML file with [[vehicle]] profiles")
	profile := fs.String("profile", "", "Vehicle profile name")
	tank := fs.Float64("tank", cfg.Vehicle.TankCapacity, "Tank capacity in litres")
	consumption := fs.Float64("consumption", cfg.Vehicle.Consumption, "Consumption in L/100 km")
	level := fs.Float64("fuel-level", cfg.Vehicle.FuelLevel, "Current fuel in litres")
	autonomyKm := fs.Float64("autonomy-km", 0, "Autonomy for the leg check in km; 0 uses 85% of a full tank, -1 disables")

	plan := fs.String("plan", "", "Comma-separated station IDs in stop order")
	sortPlan := fs.Bool("sort-plan", false, "Order the plan stops along the route")
	outGPX := fs.String("out-gpx", "", "Write the route with stops as GPX")
	outKML := fs.String("out-kml", "", "Write the route with stops as KML")
	outGeoJSON := fs.String("out-geojson", "", "Write route, corridor and stations as GeoJSON")
	asJSON := fs.Bool("json", false, "Print the full snapshot as JSON")

	fs.Parse(os.Args[2:])

	if *gpxFile == "" && *kmlFile == "" && *polyline == "" && *from == "" && !*demo {
		fmt.Println("Example usage:")
		fmt.Println("  fuelroute analyze --demo --fuel diesel --radius-km 5")
		fmt.Println("  fuelroute analyze --gpx ride.gpx --fuel gasoline95 --tank 20 --consumption 4.2 --fuel-level 6")
		fmt.Println("  fuelroute analyze --from Madrid --to Valencia --plan 4375,1203 --out-gpx trip.gpx")
		os.Exit(1)
	}

	cfg.Analysis.Fuel = *fuel
	cfg.Vehicle.TankCapacity = *tank
	cfg.Vehicle.Consumption = *consumption
	cfg.Vehicle.FuelLevel = *level
	cfg.Vehicle.ProfilesFile = *profiles
	cfg.Vehicle.Profile = *profile
	if err := cfg.ApplyProfile(); err != nil {
		log.Fatalf("Error loading vehicle profile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	ctx := logging.EnsureLogger(context.Background())
	svc := services.NewAnalysisService(catalogSource(*catalogFile), routeSource(ctx, cfg), cfg)

	params := svc.DefaultParams()
	params.Radius = *radiusKm * 1000
	params.TopN = *topN
	params.SegmentKm = *segmentKm
	params.Autonomy = *autonomyKm * 1000
	params.SortPlan = *sortPlan
	params.Route = services.RouteInput{Polyline: *polyline, Origin: *from, Destination: *to, Demo: *demo}
	if *plan != "" {
		params.Plan = strings.Split(*plan, ",")
	}
	if *gpxFile != "" {
		data, err := os.ReadFile(*gpxFile)
		if err != nil {
			log.Fatalf("Error reading GPX file %s: %v", *gpxFile, err)
		}
		params.Route.GPX = data
	}
	if *kmlFile != "" {
		data, err := os.ReadFile(*kmlFile)
		if err != nil {
			log.Fatalf("Error reading KML file %s: %v", *kmlFile, err)
		}
		params.Route.KML = data
	}

	snap, err := svc.Analyze(ctx, params)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			log.Fatalf("Error encoding snapshot: %v", err)
		}
	} else {
		printSnapshot(snap)
	}

	writeExport(*outGPX, snap.GPX)
	writeExport(*outKML, snap.KML)
	writeExport(*outGeoJSON, snap.GeoJSON)
}

func catalogSource(path string) services.CatalogSource {
	if path != "" {
		return miteco.FileSource{Path: path}
	}
	return miteco.NewClient(cache.NewCache(), 30*time.Second)
}

func routeSource(ctx context.Context, cfg *config.Config) services.RouteSource {
	var geocodes *cache.GeocodeCache
	if path := os.Getenv("FUELROUTE_GEOCODE_CACHE"); path != "" {
		g, err := cache.OpenGeocodeCache(ctx, path)
		if err != nil {
			log.Printf("Geocode cache disabled: %v", err)
		} else {
			geocodes = g
		}
	}
	var routes services.RouteSources
	if key := os.Getenv("GOOGLE_ROUTES_API_KEY"); key != "" {
		routes = append(routes, google.NewClient(key))
	}
	return append(routes, osrm.NewClientWithHTTPDoer(cfg.Routing.NominatimURL, cfg.Routing.Endpoints,
		&http.Client{Timeout: cfg.Routing.Timeout}, geocodes))
}

func writeExport(path string, render func() ([]byte, error)) {
	if path == "" {
		return
	}
	data, err := render()
	if err != nil {
		log.Fatalf("Error rendering %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Error writing %s: %v", path, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
}

func printSnapshot(snap *services.Snapshot) {
	for _, w := range snap.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if snap.RouteUnavailable {
		return
	}

	r := snap.Route
	fmt.Printf("Route (%s): %.1f km, %d vertices (from %d)\n", r.Source, r.Length/1000, r.Vertices, r.OriginalVertices)
	fmt.Printf("Corridor: %.1f km, fuel: %s\n", snap.Radius/1000, snap.Fuel.Label())
	fmt.Printf("Stations: %d considered, %d matched, %d without price, %d malformed\n\n",
		snap.Considered, len(snap.Matches), snap.Unpriced, snap.Skipped)

	fmt.Printf("Top %d cheapest:\n", snap.TopN)
	printStations(snap.Top)
	if len(snap.PerSegment) > 0 {
		fmt.Printf("\nCheapest per stretch:\n")
		printStations(snap.PerSegment)
	}

	if f := snap.Feasibility; f != nil {
		fmt.Printf("\nFeasibility: need %.1f L, have %.1f L\n", f.Required, f.FuelLevel)
		switch {
		case f.Reachable:
			fmt.Printf("  Destination reachable without refuelling\n")
		case f.ExceedsTank:
			fmt.Printf("  Cannot reach even with a full tank; add %.1f L to fill up\n", f.Shortfall)
		default:
			fmt.Printf("  Add at least %.1f L\n", f.Shortfall)
		}
		fmt.Printf("  Range: %.0f km now, %.0f km full, %.0f km useful\n",
			f.CurrentRange/1000, f.FullTankRange/1000, f.UsefulRange/1000)
		if s := f.Savings; s != nil {
			fmt.Printf("  Savings at %s: %.3f €/L, %.2f € on %.1f L\n", s.StationID, s.PerLitre, s.Total, s.Volume)
		}
	}

	if snap.Plan.Len() > 0 {
		fmt.Printf("\nPlan (autonomy %.0f km):\n", snap.Legs.Autonomy/1000)
		if !snap.Legs.RouteOrdered {
			fmt.Printf("  stops are not in route order; leg lengths follow the chosen order\n")
		}
		legs := append(append([]trip.Leg(nil), snap.Legs.Legs...), snap.Legs.Final)
		for _, leg := range legs {
			name := "destination"
			if leg.Station != nil {
				name = leg.Station.Name()
			}
			fmt.Printf("  %d. %-30s %7.1f km  %s\n", leg.Position, name, leg.Distance/1000, leg.Level)
		}
		fmt.Printf("\nMaps: %s\n", snap.Maps.URL)
		if snap.Maps.Truncated > 0 {
			fmt.Printf("  (%d stops left out of the link)\n", snap.Maps.Truncated)
		}
	}
}

func printStations(matches []routing.MatchedStation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tSTATION\tPRICE\tKM\tOFFSET\tMUNICIPALITY")
	for _, m := range matches {
		fmt.Fprintf(w, "  %s\t%s\t%.3f\t%.1f\t%.0f m\t%s\n",
			m.ID, m.Name(), m.Price, m.DistanceAlongRoute/1000, m.LateralOffset, m.Municipality)
	}
	w.Flush()
}

func handleFuels() {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tCATALOG COLUMN")
	for _, f := range stations.FuelTypes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f, f.Label(), f.Column())
	}
	w.Flush()
}

func handleProfiles() {
	fs := flag.NewFlagSet("profiles", flag.ExitOnError)
	file := fs.String("file", "", "TOML file with [[vehicle]] profiles")
	fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Println("Example usage:")
		fmt.Println("  fuelroute profiles --file vehicles.toml")
		os.Exit(1)
	}

	profiles, err := config.LoadVehicleProfiles(*file)
	if err != nil {
		log.Fatalf("Error loading profiles: %v", err)
	}
	for _, name := range profiles.Names() {
		v := profiles[name]
		printVehicle(v)
	}
}

func printVehicle(v trip.Vehicle) {
	fmt.Printf("%s (%s): %.0f L tank, %.1f L/100 km, full tank %.0f km, useful %.0f km\n",
		v.Name, v.Fuel.Label(), v.TankCapacity, v.Consumption, v.FullTankRange()/1000, v.UsefulRange()/1000)
}

func handleProject() {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude")
	lng := fs.Float64("lng", 0, "Longitude")
	easting := fs.Float64("easting", 0, "UTM easting, for the inverse")
	northing := fs.Float64("northing", 0, "UTM northing, for the inverse")
	zone := fs.Int("zone", geo.UTM30N.Zone, "UTM zone")
	south := fs.Bool("south", false, "Southern hemisphere zone")
	fs.Parse(os.Args[2:])

	projection, err := geo.NewUTM(*zone, *south)
	if err != nil {
		log.Fatalf("Invalid projection: %v", err)
	}

	switch {
	case *easting != 0 || *northing != 0:
		p := projection.Inverse(orb.Point{*easting, *northing})
		fmt.Printf("%s (%.3f, %.3f) -> lat %.7f, lng %.7f\n", projection, *easting, *northing, p.Latitude, p.Longitude)
	case *lat != 0 || *lng != 0:
		p, err := geo.NewPoint(*lat, *lng)
		if err != nil {
			log.Fatalf("Invalid point: %v", err)
		}
		xy := projection.Forward(p)
		fmt.Printf("lat %.7f, lng %.7f -> %s (%.3f, %.3f)\n", p.Latitude, p.Longitude, projection, xy[0], xy[1])
	default:
		fmt.Println("Example usage:")
		fmt.Println("  fuelroute project --lat 40.4168 --lng -3.7038")
		fmt.Println("  fuelroute project --easting 440291 --northing 4474254")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("fuelroute - cheapest reachable fuel stops along a route")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  fuelroute <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  analyze    Match a route against the price catalog and rank stations")
	fmt.Println("  fuels      List supported fuel types")
	fmt.Println("  profiles   List vehicle profiles from a TOML file")
	fmt.Println("  project    Convert between lat/lng and UTM coordinates")
	fmt.Println("  help       Show this help message")
	fmt.Println("")
	fmt.Println("Run 'fuelroute <command>' without options for examples.")
}
