package assetregistry

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/lumina-rt/objectcore/pkg/paths"
	"github.com/lumina-rt/objectcore/pkg/pkgfile"
)

// discoveryPartitionSize bounds how many files one errgroup worker claims at
// a time; partitioning coarser than "one file per task" keeps goroutine churn
// down on mounts with very large file counts while still fanning out across
// every available core.
const discoveryPartitionSize = 64

// errNoExports is recorded as a failure reason when a package file's export
// table is empty, so it has no candidate primary asset.
var errNoExports = errors.New("assetregistry: package has no exports")

// discoveredFile pairs a package's real on-disk path (what afero/pkgfile
// read) with the virtual path the registry should record (what embedders
// query by).
type discoveredFile struct {
	real    string
	virtual string
}

// RunInitialDiscovery enumerates every ".lasset" file under mt's mounted
// roots (resolved through fs), parses each file's header and export table
// (never its object payloads), and records one AssetData per package,
// keyed by its virtual mount path. Work is partitioned across errgroup
// workers; the "registry updated" broadcast fires exactly once, from
// whichever worker processes the partition that completes the count,
// detected by comparing the number of partitions finished so far against
// the total rather than via a separate join.
func (r *Registry) RunInitialDiscovery(ctx context.Context, fs afero.Fs, mt *paths.MountTable) error {
	start := time.Now()

	var files []discoveredFile
	for _, prefix := range mt.Mounts() {
		root, _ := mt.Resolve(prefix)
		_ = afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
			if err != nil || info == nil || info.IsDir() || !hasPackageExtension(p) {
				return nil
			}
			virtual := paths.Combine(prefix, strings.TrimPrefix(paths.Normalize(p), root))
			files = append(files, discoveredFile{real: p, virtual: paths.Normalize(virtual)})
			return nil
		})
	}

	if len(files) == 0 {
		r.broadcast()
		return nil
	}

	partitions := partition(files, discoveryPartitionSize)
	var completed int64
	total := int64(len(partitions))

	g, gctx := errgroup.WithContext(ctx)
	if r.discoveryWorkers > 0 {
		g.SetLimit(r.discoveryWorkers)
	}
	for _, part := range partitions {
		part := part
		g.Go(func() error {
			var recs []*AssetData
			for _, f := range part {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				rec, err := discoverOne(fs, f)
				if err != nil {
					r.recordFailure(f.virtual, err.Error())
					continue
				}
				recs = append(recs, rec)
			}

			r.mu.Lock()
			for _, rec := range recs {
				r.insertLocked(rec)
			}
			r.mu.Unlock()
			r.metrics.IncAssetsDiscovered(len(recs))

			if atomic.AddInt64(&completed, 1) == total {
				r.metrics.ObserveDiscoveryDuration(time.Since(start).Seconds())
				r.broadcast()
			}
			return nil
		})
	}

	return g.Wait()
}

func partition(files []discoveredFile, size int) [][]discoveredFile {
	var out [][]discoveredFile
	for i := 0; i < len(files); i += size {
		end := i + size
		if end > len(files) {
			end = len(files)
		}
		out = append(out, files[i:end])
	}
	return out
}

// discoverOne parses one package file's header and export table and picks
// its primary export via the same name-matching rule pkgfile.LoadPackage
// uses for post-rename recovery, falling back to the first export when no
// export's name matches the file's stem — discovery has no reflection graph
// available to check a fallback export's "is this an asset class" metadata,
// unlike pkgfile's in-process recovery path.
func discoverOne(fs afero.Fs, f discoveredFile) (*AssetData, error) {
	_, exports, err := pkgfile.PeekExports(fs, f.real)
	if err != nil {
		return nil, err
	}
	if len(exports) == 0 {
		return nil, errNoExports
	}

	stem := stemOfPath(f.virtual)
	primary := exports[0]
	for _, exp := range exports {
		if exp.Name == stem {
			primary = exp
			break
		}
	}

	return &AssetData{
		GUID:      primary.GUID,
		Path:      f.virtual,
		Name:      primary.Name,
		ClassName: primary.ClassName,
	}, nil
}

func stemOfPath(p string) string {
	base := p
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return base
}
