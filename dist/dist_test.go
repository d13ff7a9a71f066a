package dist_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iss4e/toolchain/dist"
)

func newEnergyUnits(t *testing.T) *dist.Distribution {
	t.Helper()

	d := dist.New("iss4e-toolchain", "0.1.0")
	sp, err := d.Add("energy_units")
	require.NoError(t, err)

	require.NoError(t, sp.Define("convert_kwh_to_joules", dist.KindFunction))
	require.NoError(t, sp.Define("convert_joules_to_kwh", dist.KindFunction))
	require.NoError(t, sp.Define("_internal_constant", dist.KindConstant))

	return d
}

func TestDeclareAndListExports(t *testing.T) {
	d := newEnergyUnits(t)

	err := d.Declare("energy_units", "convert_kwh_to_joules", "convert_joules_to_kwh")
	require.NoError(t, err)

	exports, err := d.ListExports("energy_units")
	require.NoError(t, err)
	assert.Equal(t, []string{"convert_kwh_to_joules", "convert_joules_to_kwh"}, exports)
}

func TestDeclareUnknownSymbol(t *testing.T) {
	d := newEnergyUnits(t)

	err := d.Declare("energy_units", "convert_kwh_to_joules", "nonexistent_fn")
	require.Error(t, err)

	var unknown *dist.UnknownSymbolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "energy_units", unknown.SubPackage)
	assert.Equal(t, "nonexistent_fn", unknown.Name)

	// A failed declaration must not leave a partial manifest behind.
	exports, err := d.ListExports("energy_units")
	require.NoError(t, err)
	assert.Empty(t, exports)
}

func TestDeclareIsIdempotent(t *testing.T) {
	d := newEnergyUnits(t)

	names := []string{"convert_kwh_to_joules", "convert_joules_to_kwh"}
	require.NoError(t, d.Declare("energy_units", names...))
	require.NoError(t, d.Declare("energy_units", names...))

	exports, err := d.ListExports("energy_units")
	require.NoError(t, err)
	assert.Equal(t, names, exports)
}

func TestRedeclareReplacesManifest(t *testing.T) {
	d := newEnergyUnits(t)

	require.NoError(t, d.Declare("energy_units", "convert_kwh_to_joules", "convert_joules_to_kwh"))
	require.NoError(t, d.Declare("energy_units", "convert_joules_to_kwh"))

	exports, err := d.ListExports("energy_units")
	require.NoError(t, err)
	assert.Equal(t, []string{"convert_joules_to_kwh"}, exports)

	// The dropped name is back to private, not merged into the new manifest.
	_, err = d.Resolve("energy_units", "convert_kwh_to_joules")
	var notExported *dist.NotExportedError
	assert.True(t, errors.As(err, &notExported))
}

func TestDeclareRejectsDuplicateNames(t *testing.T) {
	d := newEnergyUnits(t)

	err := d.Declare("energy_units", "convert_kwh_to_joules", "convert_kwh_to_joules")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	d := newEnergyUnits(t)
	require.NoError(t, d.Declare("energy_units", "convert_kwh_to_joules", "convert_joules_to_kwh"))
	d.Publish()

	tests := []struct {
		name        string
		symbol      string
		wantKind    dist.Kind
		notExported bool
		unknown     bool
	}{
		{name: "exported function", symbol: "convert_kwh_to_joules", wantKind: dist.KindFunction},
		{name: "private member", symbol: "_internal_constant", notExported: true},
		{name: "nonexistent symbol", symbol: "nonexistent_fn", unknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := d.Resolve("energy_units", tt.symbol)

			switch {
			case tt.notExported:
				var notExported *dist.NotExportedError
				require.True(t, errors.As(err, &notExported))
				assert.Equal(t, tt.symbol, notExported.Name)
			case tt.unknown:
				var unknown *dist.UnknownSymbolError
				require.True(t, errors.As(err, &unknown))
				assert.Equal(t, tt.symbol, unknown.Name)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.symbol, sym.Name)
				assert.Equal(t, tt.wantKind, sym.Kind)
				assert.True(t, sym.Exported)
			}
		})
	}
}

func TestResolveDoesNotCrossSubPackages(t *testing.T) {
	d := newEnergyUnits(t)
	require.NoError(t, d.Declare("energy_units", "convert_kwh_to_joules"))

	other, err := d.Add("charging")
	require.NoError(t, err)
	require.NoError(t, other.Define("session_energy", dist.KindFunction))
	require.NoError(t, d.Declare("charging", "session_energy"))

	// Exported elsewhere, still unknown here.
	_, err = d.Resolve("energy_units", "session_energy")
	var unknown *dist.UnknownSymbolError
	require.True(t, errors.As(err, &unknown))
}

func TestUnknownSubPackage(t *testing.T) {
	d := newEnergyUnits(t)

	var unknown *dist.UnknownSubPackageError

	_, err := d.ListExports("metering")
	require.True(t, errors.As(err, &unknown))

	_, err = d.Resolve("metering", "anything")
	require.True(t, errors.As(err, &unknown))

	err = d.Declare("metering", "anything")
	require.True(t, errors.As(err, &unknown))
}

func TestListExportsReturnsFreshSlice(t *testing.T) {
	d := newEnergyUnits(t)
	require.NoError(t, d.Declare("energy_units", "convert_kwh_to_joules", "convert_joules_to_kwh"))

	first, err := d.ListExports("energy_units")
	require.NoError(t, err)
	first[0] = "clobbered"

	second, err := d.ListExports("energy_units")
	require.NoError(t, err)
	assert.Equal(t, []string{"convert_kwh_to_joules", "convert_joules_to_kwh"}, second)
}

func TestRemoveDropsManifestEntry(t *testing.T) {
	d := newEnergyUnits(t)
	require.NoError(t, d.Declare("energy_units", "convert_kwh_to_joules", "convert_joules_to_kwh"))

	sp, err := d.SubPackage("energy_units")
	require.NoError(t, err)
	require.NoError(t, sp.Remove("convert_kwh_to_joules"))

	exports, err := d.ListExports("energy_units")
	require.NoError(t, err)
	assert.Equal(t, []string{"convert_joules_to_kwh"}, exports)

	_, err = d.Resolve("energy_units", "convert_kwh_to_joules")
	var unknown *dist.UnknownSymbolError
	assert.True(t, errors.As(err, &unknown))
}

func TestPublishSealsDistribution(t *testing.T) {
	d := newEnergyUnits(t)
	require.NoError(t, d.Declare("energy_units", "convert_kwh_to_joules"))
	d.Publish()
	require.True(t, d.Published())

	sp, err := d.SubPackage("energy_units")
	require.NoError(t, err)

	assert.ErrorIs(t, sp.Define("late_symbol", dist.KindFunction), dist.ErrPublished)
	assert.ErrorIs(t, sp.Remove("convert_kwh_to_joules"), dist.ErrPublished)
	assert.ErrorIs(t, d.Declare("energy_units", "convert_kwh_to_joules"), dist.ErrPublished)

	_, err = d.Add("late_package")
	assert.ErrorIs(t, err, dist.ErrPublished)

	// Reads still work after publication.
	exports, err := d.ListExports("energy_units")
	require.NoError(t, err)
	assert.Equal(t, []string{"convert_kwh_to_joules"}, exports)
}

func TestAddExistingSubPackageReturnsSame(t *testing.T) {
	d := dist.New("iss4e-toolchain", "0.1.0")

	first, err := d.Add("util")
	require.NoError(t, err)
	second, err := d.Add("util")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{"util"}, d.SubPackages())
}

func TestMembersKeepDefinitionOrder(t *testing.T) {
	d := newEnergyUnits(t)
	sp, err := d.SubPackage("energy_units")
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"convert_kwh_to_joules", "convert_joules_to_kwh", "_internal_constant"},
		sp.Members())

	// Redefining an existing member keeps its slot.
	require.NoError(t, sp.Define("convert_kwh_to_joules", dist.KindFunction))
	assert.Equal(t,
		[]string{"convert_kwh_to_joules", "convert_joules_to_kwh", "_internal_constant"},
		sp.Members())
}
