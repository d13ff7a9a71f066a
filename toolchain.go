package toolchain

import (
	"sync"

	"github.com/iss4e/toolchain/dist"
)

const (
	// Name identifies the installable distribution.
	Name = "iss4e-toolchain"
	// Version of the distribution; bumped on every release.
	Version = "0.1.0"
)

type symbolDef struct {
	name     string
	kind     dist.Kind
	exported bool
}

type packageDef struct {
	name    string
	symbols []symbolDef
}

func fn(name string) symbolDef    { return symbolDef{name, dist.KindFunction, true} }
func typ(name string) symbolDef   { return symbolDef{name, dist.KindType, true} }
func konst(name string) symbolDef { return symbolDef{name, dist.KindConstant, true} }
func internalFn(name string) symbolDef {
	return symbolDef{name, dist.KindFunction, false}
}

// packages is the curated export surface of the distribution, one entry
// per sub-package. Internal helpers are listed as members so consumers
// probing for them get a "not exported" answer rather than "unknown".
var packages = []packageDef{
	{
		name: "dist",
		symbols: []symbolDef{
			fn("New"),
			typ("Distribution"), typ("SubPackage"), typ("Symbol"), typ("Kind"),
			konst("KindFunction"), konst("KindConstant"), konst("KindType"),
			typ("UnknownSymbolError"), typ("NotExportedError"), typ("UnknownSubPackageError"),
			konst("ErrPublished"),
			internalFn("without"),
		},
	},
	{
		name: "config",
		symbols: []symbolDef{
			fn("Load"),
			konst("FileName"),
			typ("Config"), typ("LoggingConfig"), typ("DatasourcesConfig"), typ("TimescaleConfig"),
			internalFn("setDefaults"),
		},
	},
	{
		name: "logutil",
		symbols: []symbolDef{
			fn("Configure"), fn("New"),
			konst("FormatJSON"), konst("FormatText"),
		},
	},
	{
		name: "progress",
		symbols: []symbolDef{
			fn("NewReporter"), fn("NewAggregator"),
			typ("Reporter"), typ("Aggregator"), typ("Options"), typ("Update"),
			konst("DefaultInterval"), konst("ItemsProcessed"),
		},
	},
	{
		name: "timeutil",
		symbols: []symbolDef{
			fn("UTC"), fn("NowUTC"), fn("NewDateRange"), fn("Pairs"),
			typ("DateRange"), typ("Pair"),
		},
	},
	{
		name: "seriesmath",
		symbols: []symbolDef{
			fn("Differentiate"), fn("Smooth"), fn("SmoothOne"),
			fn("Always"), fn("CarryForward"), fn("ResetStale"),
			typ("Sample"), typ("DiffOptions"), typ("SmoothOptions"), typ("Fallback"),
		},
	},
	{
		name: "lookahead",
		symbols: []symbolDef{
			fn("Prefetch"), fn("FromSlice"),
			typ("Source"), typ("Iterator"),
		},
	},
	{
		name: "walker",
		symbols: []symbolDef{
			fn("New"),
			typ("Walker"),
		},
	},
	{
		name: "seriesdb",
		symbols: []symbolDef{
			fn("Connect"), fn("Open"), fn("NewBatchStream"), fn("Merge"),
			fn("TagSelector"), fn("JoinSelectors"),
			typ("Client"), typ("Options"), typ("Point"), typ("Row"), typ("BatchFunc"),
			typ("RowStream"), typ("Series"), typ("SeriesStream"), typ("SeriesRow"),
			typ("StreamParams"),
			konst("DefaultBatchSize"), konst("DefaultSlowQueryThreshold"), konst("QueryDuration"),
			internalFn("scanRows"), internalFn("buildSeriesQuery"),
		},
	},
}

func buildManifest() *dist.Distribution {
	d := dist.New(Name, Version)
	for _, pkg := range packages {
		sp, err := d.Add(pkg.name)
		if err != nil {
			panic(err)
		}
		var exports []string
		for _, sym := range pkg.symbols {
			if err := sp.Define(sym.name, sym.kind); err != nil {
				panic(err)
			}
			if sym.exported {
				exports = append(exports, sym.name)
			}
		}
		if err := d.Declare(pkg.name, exports...); err != nil {
			panic(err)
		}
	}
	d.Publish()
	return d
}

// Manifest returns the published distribution describing the public
// surface of this module. The value is built once and shared; it is
// immutable and safe for concurrent readers.
var Manifest = sync.OnceValue(buildManifest)
