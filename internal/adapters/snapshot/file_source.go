// Package snapshot reads run input snapshots from YAML or JSON files.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"milk-collection-service/internal/domain"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type vendorSeed struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Latitude   float64  `yaml:"latitude" json:"latitude"`
	Longitude  float64  `yaml:"longitude" json:"longitude"`
	MilkLiters *float64 `yaml:"milk_liters" json:"milk_liters"`
	MilkCans   *float64 `yaml:"milk_cans" json:"milk_cans"`
}

type hubSeed struct {
	ID             string  `yaml:"id" json:"id"`
	Name           string  `yaml:"name" json:"name"`
	Latitude       float64 `yaml:"latitude" json:"latitude"`
	Longitude      float64 `yaml:"longitude" json:"longitude"`
	CapacityLiters float64 `yaml:"capacity_liters" json:"capacity_liters"`
}

type vehicleSeed struct {
	ID     string `yaml:"id" json:"id"`
	Number string `yaml:"vehicle_number" json:"vehicle_number"`
	Code   string `yaml:"vehicle_code" json:"vehicle_code"`
	Name   string `yaml:"vehicle_name" json:"vehicle_name"`
}

type categorySeed struct {
	Name                  string        `yaml:"name" json:"name"`
	CapacityLiters        float64       `yaml:"capacity_liters" json:"capacity_liters"`
	Count                 int           `yaml:"count" json:"count"`
	FixedCost             float64       `yaml:"fixed_cost" json:"fixed_cost"`
	CostPerKm             float64       `yaml:"cost_per_km" json:"cost_per_km"`
	ServiceMinutesPerStop float64       `yaml:"service_time_minutes_per_stop" json:"service_time_minutes_per_stop"`
	Vehicles              []vehicleSeed `yaml:"vehicles" json:"vehicles"`
}

type fileSeed struct {
	Vendors    []vendorSeed   `yaml:"vendors" json:"vendors"`
	Hubs       []hubSeed      `yaml:"hubs" json:"hubs"`
	Categories []categorySeed `yaml:"vehicle_categories" json:"vehicle_categories"`
}

// LoadFile parses a snapshot file. The format follows the extension:
// .json is JSON, anything else is YAML. The result is validated.
func LoadFile(path string) (domain.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: read %q: %w", path, err)
	}

	var seed fileSeed
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &seed)
	} else {
		err = yaml.Unmarshal(raw, &seed)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: parse %q: %v: %w", path, err, domain.ErrInvalidInput)
	}

	snap, err := seed.toDomain()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %q: %w", path, err)
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %q: %w", path, err)
	}
	return snap, nil
}

func (f fileSeed) toDomain() (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Vendors:    make([]domain.Vendor, 0, len(f.Vendors)),
		Hubs:       make([]domain.Hub, 0, len(f.Hubs)),
		Categories: make([]domain.VehicleCategory, 0, len(f.Categories)),
	}

	for i, v := range f.Vendors {
		var liters float64
		switch {
		case v.MilkLiters != nil:
			liters = *v.MilkLiters
		case v.MilkCans != nil:
			liters = domain.CansToLiters(*v.MilkCans)
		default:
			return domain.Snapshot{}, fmt.Errorf("vendor #%d (%s): milk_liters or milk_cans is required: %w", i+1, v.ID, domain.ErrInvalidInput)
		}
		snap.Vendors = append(snap.Vendors, domain.Vendor{
			ID:         strings.TrimSpace(v.ID),
			Name:       strings.TrimSpace(v.Name),
			Location:   domain.Coordinates{Lat: v.Latitude, Lon: v.Longitude},
			MilkLiters: liters,
		})
	}

	for _, h := range f.Hubs {
		snap.Hubs = append(snap.Hubs, domain.Hub{
			ID:             strings.TrimSpace(h.ID),
			Name:           strings.TrimSpace(h.Name),
			Location:       domain.Coordinates{Lat: h.Latitude, Lon: h.Longitude},
			CapacityLiters: h.CapacityLiters,
		})
	}

	for _, c := range f.Categories {
		cat := domain.VehicleCategory{
			Name:                  strings.TrimSpace(c.Name),
			CapacityLiters:        c.CapacityLiters,
			Count:                 c.Count,
			FixedCost:             c.FixedCost,
			CostPerKm:             c.CostPerKm,
			ServiceMinutesPerStop: c.ServiceMinutesPerStop,
		}
		for _, v := range c.Vehicles {
			cat.Instances = append(cat.Instances, domain.VehicleInstance(v))
		}
		snap.Categories = append(snap.Categories, cat)
	}

	return snap, nil
}

// FileSource serves the same file-backed snapshot for every run. The file
// is re-read on each call so edits apply without a restart.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Snapshot(_ context.Context) (domain.Snapshot, error) {
	return LoadFile(f.Path)
}
