package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("HOTELBOOK_TEST_KEY", "secret")
	dbPath := filepath.Join(t.TempDir(), "nested", "app.db")
	path := writeFile(t, "config.yaml", `
server:
  api_keys:
    - key: "${HOTELBOOK_TEST_KEY}"
      role: supervisor
database:
  path: `+dbPath+`
engine:
  capacity_mode: available
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []APIKeyConfig{{Key: "secret", Role: "supervisor"}}, cfg.Server.APIKeys)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, CapacityAvailable, cfg.Engine.CapacityMode)
	assert.Equal(t, 75.0, cfg.Engine.Deposit)
	assert.Equal(t, 14.0, cfg.Engine.BreakfastPerPerson)
	assert.Equal(t, 0.05, cfg.Engine.AdvancePurchaseDiscount)
	assert.Equal(t, 30, cfg.Engine.PurgeAfterDays)
	assert.Equal(t, 7, cfg.Engine.StayRetentionYears)
	assert.Equal(t, "configs/hotels.yaml", cfg.Catalog.Path)
	assert.DirExists(t, filepath.Dir(dbPath))
}

func TestLoad_RejectsUnknownCapacityMode(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database:
  path: `+filepath.Join(t.TempDir(), "app.db")+`
engine:
  capacity_mode: overbook
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity_mode")
}

func TestLoadHotelsConfig(t *testing.T) {
	path := writeFile(t, "hotels.yaml", `
hotels:
  - name: Harbour
    rooms:
      - type: double
        units: 5
        occupancy: [1, 0, 2, 1]
        rates: [70, 70, 70, 70, 90, 90, 80]
`)

	cfg, err := LoadHotelsConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Hotels, 1)
	assert.Equal(t, 5, cfg.Hotels[0].Rooms[0].Units)
	assert.Equal(t, 90.0, cfg.Hotels[0].Rooms[0].Rates[4])
}

func TestHotelsConfig_Validate(t *testing.T) {
	room := RoomTypeConfig{Type: "single", Units: 1, Occupancy: [4]int{1, 0, 1, 0}}

	tests := []struct {
		name    string
		cfg     HotelsConfig
		wantErr string
	}{
		{"empty", HotelsConfig{}, "no hotels"},
		{"missing name", HotelsConfig{Hotels: []HotelConfig{{}}}, "name is required"},
		{
			"duplicate hotel",
			HotelsConfig{Hotels: []HotelConfig{{Name: "a"}, {Name: "a"}}},
			"duplicate name",
		},
		{
			"duplicate room type",
			HotelsConfig{Hotels: []HotelConfig{{Name: "a", Rooms: []RoomTypeConfig{room, room}}}},
			"duplicate type",
		},
		{
			"negative units",
			HotelsConfig{Hotels: []HotelConfig{{Name: "a", Rooms: []RoomTypeConfig{{Type: "x", Units: -1}}}}},
			"units cannot be negative",
		},
		{
			"min over max",
			HotelsConfig{Hotels: []HotelConfig{{Name: "a", Rooms: []RoomTypeConfig{{Type: "x", Occupancy: [4]int{3, 0, 2, 0}}}}}},
			"minimum exceeds maximum",
		},
		{"valid", HotelsConfig{Hotels: []HotelConfig{{Name: "a", Rooms: []RoomTypeConfig{room}}}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
