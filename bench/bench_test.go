// Package bench provides reproducible micro-benchmarks for this module's
// hot paths. Run via: go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// We measure:
//  1. InternString    — name interning under repeated lookups
//  2. NewObject        — object table allocation
//  3. HandleResolve    — handle-to-instance resolution, the read path every
//     property access goes through
//  4. PackageSaveLoad  — one export's tagged-property save + lazy load
//
// Results are printed in ns/op + alloc/op so CI can diff via benchstat.
package bench

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"

	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/name"
	"github.com/lumina-rt/objectcore/pkg/objectcore"
	"github.com/lumina-rt/objectcore/pkg/pkgfile"
	"github.com/lumina-rt/objectcore/pkg/rtti"
)

const datasetSize = 1 << 14

type benchAsset struct {
	objectcore.Base
	Health int32
	Mana   int32
}

func newBenchClass() (*rtti.Graph, *rtti.Class) {
	g := rtti.NewGraph()
	n := name.InternString("bench.Asset")
	g.RegisterClasses(rtti.ClassRegistration{
		Name:    n,
		Factory: func() any { return &benchAsset{} },
		Properties: []rtti.PropertyParam{
			{Name: name.InternString("Health"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Health")},
			{Name: name.InternString("Mana"), Tag: rtti.Int32, Accessor: rtti.FieldAccessor("Mana")},
		},
	})
	g.Flush()
	return g, g.FindClass(n)
}

// names is a reused dataset of distinct strings, so InternString benchmarks
// measure steady-state lookup/insert cost rather than allocating strings on
// every iteration.
var names = func() []string {
	out := make([]string, datasetSize)
	for i := range out {
		out[i] = fmt.Sprintf("bench.Name%d", i)
	}
	return out
}()

func BenchmarkInternString(b *testing.B) {
	for _, s := range names {
		name.InternString(s)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		name.InternString(names[i&(datasetSize-1)])
	}
}

func BenchmarkInternStringParallel(b *testing.B) {
	for _, s := range names {
		name.InternString(s)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			name.InternString(names[i&(datasetSize-1)])
			i++
		}
	})
}

func BenchmarkNewObject(b *testing.B) {
	_, class := newBenchClass()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		inst := objectcore.NewObject(class, nil, name.None, guid.GUID{}, 0)
		objectcore.Destroy(inst)
	}
}

func BenchmarkHandleResolve(b *testing.B) {
	_, class := newBenchClass()
	inst := objectcore.NewObject(class, nil, name.None, guid.GUID{}, 0)
	h := inst.Handle()
	tbl := objectcore.Table()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tbl.Resolve(h)
	}
}

func BenchmarkPackageSaveLoad(b *testing.B) {
	graph, class := newBenchClass()
	fs := afero.NewMemMapFs()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		inst := objectcore.NewObject(class, nil, name.InternString("Asset"), guid.GUID{}, 0).(*benchAsset)
		inst.Health = 100
		inst.Mana = 50
		path := fmt.Sprintf("/bench/Asset%d.lasset", i)
		b.StartTimer()

		if err := pkgfile.SavePackage(fs, path, name.InternString("Asset"), []objectcore.Instance{inst}, nil); err != nil {
			b.Fatalf("SavePackage: %v", err)
		}
		objectcore.Destroy(inst)

		pkg, err := pkgfile.LoadPackage(fs, graph, path)
		if err != nil {
			b.Fatalf("LoadPackage: %v", err)
		}
		if _, err := pkg.LoadObject(inst.ObjectGUID()); err != nil {
			b.Fatalf("LoadObject: %v", err)
		}
	}
}
