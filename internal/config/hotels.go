package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoomTypeConfig describes one room type of a hotel and how many units of it exist.
type RoomTypeConfig struct {
	Type      string     `yaml:"type"`
	Units     int        `yaml:"units"`
	Occupancy [4]int     `yaml:"occupancy"` // adult min, child min, adult max, child max
	Rates     [7]float64 `yaml:"rates"`     // Monday first
}

type HotelConfig struct {
	Name  string           `yaml:"name"`
	Rooms []RoomTypeConfig `yaml:"rooms"`
}

// HotelsConfig is the root of hotels.yaml.
type HotelsConfig struct {
	Hotels []HotelConfig `yaml:"hotels"`
}

// LoadHotelsConfig loads and validates the hotel catalog file.
func LoadHotelsConfig(path string) (*HotelsConfig, error) {
	if path == "" {
		path = "configs/hotels.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hotels config: %w", err)
	}

	var cfg HotelsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse hotels config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate hotels config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *HotelsConfig) Validate() error {
	if len(c.Hotels) == 0 {
		return fmt.Errorf("no hotels defined")
	}

	names := make(map[string]bool)
	for i, h := range c.Hotels {
		if h.Name == "" {
			return fmt.Errorf("hotel[%d]: name is required", i)
		}
		if names[h.Name] {
			return fmt.Errorf("hotel[%d]: duplicate name '%s'", i, h.Name)
		}
		names[h.Name] = true

		types := make(map[string]bool)
		for j, r := range h.Rooms {
			prefix := fmt.Sprintf("hotel[%d].rooms[%d]", i, j)
			if r.Type == "" {
				return fmt.Errorf("%s: type is required", prefix)
			}
			if types[r.Type] {
				return fmt.Errorf("%s: duplicate type '%s'", prefix, r.Type)
			}
			types[r.Type] = true

			if r.Units < 0 {
				return fmt.Errorf("%s: units cannot be negative", prefix)
			}
			for k, v := range r.Occupancy {
				if v < 0 {
					return fmt.Errorf("%s.occupancy[%d]: cannot be negative", prefix, k)
				}
			}
			if r.Occupancy[0] > r.Occupancy[2] || r.Occupancy[1] > r.Occupancy[3] {
				return fmt.Errorf("%s.occupancy: minimum exceeds maximum", prefix)
			}
			for k, v := range r.Rates {
				if v < 0 {
					return fmt.Errorf("%s.rates[%d]: cannot be negative", prefix, k)
				}
			}
		}
	}

	return nil
}

func (c *HotelsConfig) String() string {
	rooms := 0
	for _, h := range c.Hotels {
		rooms += len(h.Rooms)
	}
	return fmt.Sprintf("HotelsConfig: %d hotels, %d room types", len(c.Hotels), rooms)
}
