package sandbox

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// Engagement is a command to engage on a vehicle when a scenario starts
type Engagement struct {
	VehicleIndex int
	Spec         appAutopilot.CommandSpec
}

// Scenario is a ready-made world plus the commands to fly in it
type Scenario struct {
	Name        string
	Description string
	World       *World
	Engagements []Engagement

	// Focus is the vehicle the scenario is about
	Focus int
}

type scenarioBuilder struct {
	description string
	build       func(timestep float64) (*Scenario, error)
}

var scenarios = map[string]scenarioBuilder{
	"deep-space": {"FlyTo a point 50km ahead in empty space, stopping on it", buildDeepSpace},
	"planet":     {"FlyTo the centre of a planet 20km away; the path must detour", buildPlanetAvoidance},
	"orbit":      {"FlyAround a planet in orbit mode at twice its envelope", buildOrbit},
	"station":    {"Dock with an orbital station 12km away", buildStationDocking},
	"escort":     {"Hold formation on a leader flying to a distant point", buildEscort},
	"gravity":    {"Dock at a ground station on a planet too heavy to hover over", buildHeavyGravity},
	"transit":    {"FlyTo the far side of a large planet with a transit drive", buildTransit},
}

// ScenarioNames lists the registered scenarios alphabetically
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DescribeScenario returns the one-line description of a scenario
func DescribeScenario(name string) string {
	return scenarios[name].description
}

// BuildScenario creates a fresh world for the named scenario
func BuildScenario(name string, timestep float64) (*Scenario, error) {
	b, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	sc, err := b.build(timestep)
	if err != nil {
		return nil, fmt.Errorf("failed to build scenario %s: %w", name, err)
	}
	sc.Name = name
	sc.Description = b.description
	return sc, nil
}

// StandardShip is a light craft with 20g main engines and 5g manoeuvring thrusters
func StandardShip(label string, pos r3.Vec) ShipSpec {
	return ShipSpec{
		Label:      label,
		Position:   pos,
		Mass:       20000,
		Radius:     20,
		AccelFwd:   200,
		AccelRev:   100,
		AccelUp:    50,
		AccelDown:  50,
		AccelLeft:  50,
		AccelRight: 50,
	}
}

// SmallPlanet has an avoidance envelope of about 5km for a ship with 50m/s² up thrust
func SmallPlanet(label string, pos r3.Vec) PlanetSpec {
	return PlanetSpec{
		Label:       label,
		Position:    pos,
		Mass:        1.8728e19,
		Radius:      3500,
		FrameRadius: 500000,
	}
}

func buildDeepSpace(timestep float64) (*Scenario, error) {
	w := NewWorld(1e12, timestep)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{}), nil)
	if err != nil {
		return nil, err
	}
	vi := w.IndexForBody(ship)
	return &Scenario{
		World: w,
		Focus: vi,
		Engagements: []Engagement{{
			VehicleIndex: vi,
			Spec: appAutopilot.CommandSpec{
				Kind:        domainAutopilot.KindFlyTo,
				TargetIndex: domainAutopilot.NoIndex,
				FrameIndex:  w.IndexForFrame(w.Root()),
				Offset:      r3.Vec{Z: -50000},
			},
		}},
	}, nil
}

func buildPlanetAvoidance(timestep float64) (*Scenario, error) {
	w := NewWorld(1e12, timestep)
	planet := w.AddPlanet(SmallPlanet("Cinder", r3.Vec{}), nil)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{Z: 20000}), planet.NonRotatingFrame())
	if err != nil {
		return nil, err
	}
	vi := w.IndexForBody(ship)
	standoff := 0.0
	return &Scenario{
		World: w,
		Focus: vi,
		Engagements: []Engagement{{
			VehicleIndex: vi,
			Spec: appAutopilot.CommandSpec{
				Kind:        domainAutopilot.KindFlyTo,
				TargetIndex: w.IndexForBody(planet),
				Standoff:    &standoff,
			},
		}},
	}, nil
}

func buildOrbit(timestep float64) (*Scenario, error) {
	w := NewWorld(1e12, timestep)
	planet := w.AddPlanet(SmallPlanet("Cinder", r3.Vec{}), nil)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{X: 12000}), planet.NonRotatingFrame())
	if err != nil {
		return nil, err
	}
	vi := w.IndexForBody(ship)
	return &Scenario{
		World: w,
		Focus: vi,
		Engagements: []Engagement{{
			VehicleIndex: vi,
			Spec: appAutopilot.CommandSpec{
				Kind:             domainAutopilot.KindFlyAround,
				TargetIndex:      w.IndexForBody(planet),
				Altitude:         2,
				RelativeAltitude: true,
				Mode:             domainAutopilot.FlyAroundOrbit,
			},
		}},
	}, nil
}

func buildStationDocking(timestep float64) (*Scenario, error) {
	w := NewWorld(1e12, timestep)
	station := w.AddStation(StationSpec{Label: "Halcyon", Mass: 1e9, Radius: 100, Ports: 2}, nil)
	ship, err := w.AddShip(StandardShip("Wayfarer", r3.Vec{Z: 12000}), nil)
	if err != nil {
		return nil, err
	}
	vi := w.IndexForBody(ship)
	return &Scenario{
		World: w,
		Focus: vi,
		Engagements: []Engagement{{
			VehicleIndex: vi,
			Spec:         appAutopilot.CommandSpec{Kind: domainAutopilot.KindDock, TargetIndex: w.IndexForBody(station)},
		}},
	}, nil
}

func buildEscort(timestep float64) (*Scenario, error) {
	w := NewWorld(1e12, timestep)
	leader, err := w.AddShip(StandardShip("Vanguard", r3.Vec{}), nil)
	if err != nil {
		return nil, err
	}
	wing, err := w.AddShip(StandardShip("Wingman", r3.Vec{X: 2000, Z: 3000}), nil)
	if err != nil {
		return nil, err
	}
	li, wi := w.IndexForBody(leader), w.IndexForBody(wing)
	return &Scenario{
		World: w,
		Focus: wi,
		Engagements: []Engagement{
			{
				VehicleIndex: li,
				Spec: appAutopilot.CommandSpec{
					Kind:        domainAutopilot.KindFlyTo,
					TargetIndex: domainAutopilot.NoIndex,
					FrameIndex:  w.IndexForFrame(w.Root()),
					Offset:      r3.Vec{Z: -200000},
				},
			},
			{
				VehicleIndex: wi,
				Spec: appAutopilot.CommandSpec{
					Kind:        domainAutopilot.KindFormation,
					TargetIndex: li,
					Offset:      r3.Vec{X: 100, Z: 150},
				},
			},
		},
	}, nil
}

func buildHeavyGravity(timestep float64) (*Scenario, error) {
	w := NewWorld(1e12, timestep)
	planet := w.AddPlanet(PlanetSpec{
		Label:       "Anvil",
		Mass:        6e24,
		Radius:      6.4e6,
		FrameRadius: 1e8,
	}, nil)
	pad := w.AddStation(StationSpec{
		Label:    "Anvil Landing",
		Position: r3.Vec{Y: 6.4e6},
		Mass:     1e8,
		Radius:   50,
		Ground:   true,
	}, planet.NonRotatingFrame())

	spec := StandardShip("Mule", r3.Vec{Y: 6.5e6})
	spec.AccelUp = 5
	ship, err := w.AddShip(spec, planet.NonRotatingFrame())
	if err != nil {
		return nil, err
	}
	vi := w.IndexForBody(ship)
	return &Scenario{
		World: w,
		Focus: vi,
		Engagements: []Engagement{{
			VehicleIndex: vi,
			Spec:         appAutopilot.CommandSpec{Kind: domainAutopilot.KindDock, TargetIndex: w.IndexForBody(pad)},
		}},
	}, nil
}

func buildTransit(timestep float64) (*Scenario, error) {
	w := NewWorld(1e13, timestep)
	planet := w.AddPlanet(PlanetSpec{
		Label:       "Colossus",
		Mass:        6e22,
		Radius:      1e6,
		FrameRadius: 1e9,
	}, nil)
	ship, err := w.AddTransitShip(StandardShip("Courier", r3.Vec{Z: 1.2e6}), DefaultTransitSpec(), planet.NonRotatingFrame())
	if err != nil {
		return nil, err
	}
	vi := w.IndexForBody(ship)
	return &Scenario{
		World: w,
		Focus: vi,
		Engagements: []Engagement{{
			VehicleIndex: vi,
			Spec: appAutopilot.CommandSpec{
				Kind:        domainAutopilot.KindFlyTo,
				TargetIndex: domainAutopilot.NoIndex,
				FrameIndex:  w.IndexForFrame(planet.NonRotatingFrame()),
				Offset:      r3.Vec{Z: -1.3e6},
			},
		}},
	}, nil
}

var _ navigation.BodyIndex = (*World)(nil)
