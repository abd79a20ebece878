package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
)

type routeKey struct {
	origin      string
	destination string
}

// StaticRouteProvider serves the reference inter-city route table. Routes are
// symmetric: the reverse direction reuses the forward entry.
type StaticRouteProvider struct {
	routes map[routeKey]contract.RouteOption
}

func NewStaticRouteProvider() *StaticRouteProvider {
	entries := []contract.RouteOption{
		{
			Origin: "Tokyo", Destination: "Kyoto",
			SuggestedMode: "shinkansen", DistanceKm: 455, DurationMinutes: 150,
			Tips: []string{"buy an IC card at Tokyo Station", "reserved seats on the Nozomi are worth it"},
		},
		{
			Origin: "Tokyo", Destination: "Osaka",
			SuggestedMode: "shinkansen+metro", DistanceKm: 500, DurationMinutes: 120,
			Tips: []string{"an Osaka Amazing Pass covers the metro leg", "JR Pass is sold at Shin-Osaka"},
		},
		{
			Origin: "Tokyo", Destination: "Nara",
			SuggestedMode: "jr-limited-express", DistanceKm: 470, DurationMinutes: 60,
			Tips: []string{"the limited express needs a surcharge ticket", "bus or taxi from the station"},
		},
		{
			Origin: "Kyoto", Destination: "Osaka",
			SuggestedMode: "jr+metro", DistanceKm: 55, DurationMinutes: 90,
			Tips: []string{"Keihan round-trip tickets are cheap", "the Haruka runs from Kyoto Station"},
		},
		{
			Origin: "Osaka", Destination: "Nara",
			SuggestedMode: "kintetsu-rail", DistanceKm: 35, DurationMinutes: 60,
			Tips: []string{"the Kintetsu line runs straight from Namba"},
		},
	}

	routes := make(map[routeKey]contract.RouteOption, len(entries)*2)
	for _, r := range entries {
		routes[routeKey{strings.ToLower(r.Origin), strings.ToLower(r.Destination)}] = r
		reversed := r
		reversed.Origin, reversed.Destination = r.Destination, r.Origin
		routes[routeKey{strings.ToLower(r.Destination), strings.ToLower(r.Origin)}] = reversed
	}
	return &StaticRouteProvider{routes: routes}
}

func (p *StaticRouteProvider) Name() string {
	return ToolRoute
}

func (p *StaticRouteProvider) Required() []string {
	return []string{"origin", "destination"}
}

func (p *StaticRouteProvider) Fetch(ctx context.Context, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	origin := stringArg(args, "origin")
	destination := stringArg(args, "destination")

	route, ok := p.routes[routeKey{strings.ToLower(origin), strings.ToLower(destination)}]
	if !ok {
		return nil, fmt.Errorf("no route data for %s -> %s", origin, destination)
	}
	if mode := stringArg(args, "mode"); mode != "" {
		route.SuggestedMode = mode
	}
	return route, nil
}
