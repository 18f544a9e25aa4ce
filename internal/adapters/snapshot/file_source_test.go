package snapshot

import (
	"context"
	"milk-collection-service/internal/domain"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFileYAML(t *testing.T) {
	snap, err := LoadFile("testdata/snapshot.yaml")
	require.NoError(t, err)

	require.Len(t, snap.Vendors, 2)
	require.Equal(t, 50.0, snap.Vendors[0].MilkLiters)
	// 0.75 cans at 40 L per can.
	require.Equal(t, 30.0, snap.Vendors[1].MilkLiters)
	require.Equal(t, domain.Coordinates{Lat: 10.02, Lon: 78.02}, snap.Vendors[1].Location)

	require.Len(t, snap.Categories, 2)
	require.Equal(t, "tanker", snap.Categories[0].Name)
	require.Equal(t, []domain.VehicleInstance{{ID: "TN-01", Number: "TN 01 AB 1234", Code: "TK1", Name: "Tanker One"}}, snap.Categories[0].Instances)
	require.Equal(t, 5.0, snap.Categories[1].ServiceMinutesPerStop)
}

func TestLoadFileJSON(t *testing.T) {
	snap, err := LoadFile("testdata/snapshot.json")
	require.NoError(t, err)
	require.Len(t, snap.Vendors, 1)
	require.Equal(t, "small", snap.Categories[0].Name)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	noMilk := filepath.Join(dir, "nomilk.yaml")
	require.NoError(t, os.WriteFile(noMilk, []byte(`
vendors: [{id: V1, latitude: 10, longitude: 78}]
hubs: [{id: H1, latitude: 10, longitude: 78, capacity_liters: 10}]
vehicle_categories: [{name: a, capacity_liters: 10, count: 1}]
`), 0o600))
	_, err = LoadFile(noMilk)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("vendors: []\n"), 0o600))
	_, err = LoadFile(empty)
	require.ErrorIs(t, err, domain.ErrEmptyInput)

	badCoord := filepath.Join(dir, "coord.json")
	require.NoError(t, os.WriteFile(badCoord, []byte(`{
"vendors":[{"id":"V1","latitude":100,"longitude":78,"milk_liters":1}],
"hubs":[{"id":"H1","latitude":10,"longitude":78,"capacity_liters":10}],
"vehicle_categories":[{"name":"a","capacity_liters":10,"count":1}]}`), 0o600))
	_, err = LoadFile(badCoord)
	require.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestFileSource(t *testing.T) {
	src := NewFileSource("testdata/snapshot.yaml")
	snap, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Hubs, 1)
}

func TestLoadDemoSeed(t *testing.T) {
	snap, err := LoadFile(filepath.Join("..", "..", "..", "data", "seeds", "snapshot.yaml"))
	require.NoError(t, err)

	if got := len(snap.Vendors); got != 10 {
		t.Fatalf("vendors = %d, want 10", got)
	}
	require.Len(t, snap.Hubs, 2)
	require.Equal(t, "tanker", snap.Categories[0].Name)
	require.Equal(t, "TK-01", snap.Categories[0].DrawableInstances()[0].ID)
}
