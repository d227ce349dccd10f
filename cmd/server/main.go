package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/dpup/prefab"
	"github.com/dpup/prefab/logging"
	"github.com/joho/godotenv"

	"github.com/chane12/fuelroute/server/internal/cache"
	"github.com/chane12/fuelroute/server/internal/clients/google"
	"github.com/chane12/fuelroute/server/internal/clients/miteco"
	"github.com/chane12/fuelroute/server/internal/clients/osrm"
	"github.com/chane12/fuelroute/server/internal/config"
	"github.com/chane12/fuelroute/server/internal/handlers"
	"github.com/chane12/fuelroute/server/internal/services"
)

func main() {
	// .env is optional; prefab.yaml and PF__ variables still apply
	_ = godotenv.Load()

	appConfig := loadConfig()
	ctx := logging.With(context.Background(), logging.NewProdLogger())

	// In-memory cache for the price catalog
	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(ctx, 10*time.Minute)

	catalogClient := miteco.NewClientWithHTTPDoer(
		appConfig.Catalog.URL,
		appConfig.Catalog.Proxies,
		&http.Client{Timeout: appConfig.Catalog.Timeout},
		cacheInstance,
	)
	catalogClient.SetTTL(appConfig.Catalog.TTL)

	// Persistent geocode cache; routing still works without it
	geocodes, err := cache.OpenGeocodeCache(ctx, appConfig.Routing.GeocodeCachePath)
	if err != nil {
		log.Printf("Geocode cache disabled: %v", err)
		geocodes = nil
	} else {
		defer geocodes.Close()
	}

	routeClient := osrm.NewClientWithHTTPDoer(
		appConfig.Routing.NominatimURL,
		appConfig.Routing.Endpoints,
		&http.Client{Timeout: appConfig.Routing.Timeout},
		geocodes,
	)
	routeClient.SetGeocodeInterval(appConfig.Routing.GeocodeInterval)

	var routes services.RouteSources
	if appConfig.Routing.GoogleAPIKey != "" {
		routes = append(routes, google.NewClient(appConfig.Routing.GoogleAPIKey))
		log.Printf("Google Routes enabled, OSRM as fallback")
	}
	routes = append(routes, routeClient)

	analysisService := services.NewAnalysisService(catalogClient, routes, appConfig)

	refresher := services.NewCatalogRefresher(catalogClient, appConfig.Catalog.RefreshInterval)
	refresher.Start(ctx)
	defer refresher.Stop()

	api := handlers.NewHandler(analysisService, refresher).Router(appConfig.Server.CorsOrigins)

	log.Printf("Fuel route API server starting")
	log.Printf("Default fuel: %s, radius: %.0f m, top %d", appConfig.Analysis.Fuel, appConfig.Analysis.Radius, appConfig.Analysis.TopN)
	log.Printf("Projection: %s", appConfig.Analysis.Projection)

	// Server configuration (port, etc.) is loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/api/v1/", api.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig overlays the "fuelroute" section of prefab's config on the
// defaults. Configuration comes from prefab.yaml and PF__ environment variables.
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	if err := prefab.Config.Unmarshal("fuelroute", appConfig); err != nil {
		log.Fatalf("Failed to unmarshal fuelroute section: %v", err)
	}
	if err := appConfig.ApplyProfile(); err != nil {
		log.Fatalf("Failed to load vehicle profile: %v", err)
	}
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>fuelroute</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">fuelroute</span>

Finds the cheapest reachable fuel stations along a driving route in Spain.

<span class="header">API Endpoints:</span>

  <a href="/api/v1/fuels">GET  /api/v1/fuels</a>              - Supported fuel types
  <a href="/api/v1/status">GET  /api/v1/status</a>             - Price catalog refresh status
  POST /api/v1/analyze             - Corridor match, ranking, feasibility and plan legs
  POST /api/v1/export/{format}     - Route with stops as gpx, kml or geojson

<span class="header">Data Sources:</span>
  • MITECO Geoportal     - Fuel prices for every road station, hourly
  • Nominatim            - Place name geocoding
  • OSRM                 - Driving routes

<span class="header">Example Usage:</span>
  curl -X POST -d '{"demo": true, "fuel": "diesel", "radius_km": 5}' /api/v1/analyze
  curl -X POST -d '{"origin": "Madrid", "destination": "Valencia", "plan": ["4375"]}' /api/v1/export/gpx
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
