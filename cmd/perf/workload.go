package perf

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/ValentinKolb/blockfile/lib/blockstore/memory"
	"github.com/ValentinKolb/blockfile/lib/common"
	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"
)

// benchmarkNames lists the read benchmarks in execution order
var benchmarkNames = []string{"get", "prefix", "range", "open"}

// perfReport is the outcome of one workload run
type perfReport struct {
	order   []string
	results map[string]testing.BenchmarkResult
	timers  gometrics.Registry
	ids     []uuid.UUID
	storage memory.StorageInfo // of the first instance
}

// --------------------------------------------------------------------------
// Type dispatch
// --------------------------------------------------------------------------

// runWorkload builds cfg.Instances blockfiles in manager and benchmarks
// reads on them, using the key and value types named in cfg
func runWorkload(ctx context.Context, cfg *common.PerfConfig, manager *memory.StorageManager) (*perfReport, error) {
	switch cfg.KeyType {
	case "string":
		return withValueType(ctx, cfg, manager, func(i int) string { return fmt.Sprintf("key-%08d", i) })
	case "uint32":
		return withValueType(ctx, cfg, manager, func(i int) uint32 { return uint32(i) })
	case "float32":
		return withValueType(ctx, cfg, manager, func(i int) float32 { return float32(i) / 10 })
	default:
		return nil, fmt.Errorf("invalid key type %s", cfg.KeyType)
	}
}

func withValueType[K blockstore.Key](ctx context.Context, cfg *common.PerfConfig, manager *memory.StorageManager, key func(int) K) (*perfReport, error) {
	switch cfg.ValueType {
	case "string":
		return newWorkload(cfg, manager, key, func(i int) string {
			return fmt.Sprintf("value-%d", i)
		}).run(ctx)
	case "uint32":
		return newWorkload(cfg, manager, key, func(i int) uint32 {
			return uint32(i)
		}).run(ctx)
	case "vector":
		return newWorkload(cfg, manager, key, func(int) []float32 {
			return randomVector(cfg.VectorDim)
		}).run(ctx)
	case "bitmap":
		return newWorkload(cfg, manager, key, func(i int) *roaring.Bitmap {
			bm := roaring.New()
			bm.AddRange(uint64(i), uint64(i+64))
			return bm
		}).run(ctx)
	case "record":
		return newWorkload(cfg, manager, key, func(i int) types.DataRecord {
			return types.DataRecord{
				ID:        fmt.Sprintf("record-%d", i),
				Embedding: randomVector(cfg.VectorDim),
				Metadata:  types.Metadata{"offset": types.Int(int64(i)), "source": types.String("perf")},
			}
		}).run(ctx)
	default:
		return nil, fmt.Errorf("invalid value type %s", cfg.ValueType)
	}
}

func randomVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rand.Float32()
	}
	return v
}

// --------------------------------------------------------------------------
// Workload
// --------------------------------------------------------------------------

type workload[K blockstore.Key, V blockstore.Value] struct {
	cfg      *common.PerfConfig
	manager  *memory.StorageManager
	key      func(int) K
	value    func(int) V
	prefixes []string
	ids      []uuid.UUID
	timers   gometrics.Registry
}

func newWorkload[K blockstore.Key, V blockstore.Value](cfg *common.PerfConfig, manager *memory.StorageManager, key func(int) K, value func(int) V) *workload[K, V] {
	prefixes := make([]string, cfg.Prefixes)
	for i := range prefixes {
		prefixes[i] = fmt.Sprintf("prefix-%d", i)
	}

	return &workload[K, V]{
		cfg:      cfg,
		manager:  manager,
		key:      key,
		value:    value,
		prefixes: prefixes,
		timers:   gometrics.NewRegistry(),
	}
}

func (w *workload[K, V]) timer(name string) gometrics.Timer {
	return gometrics.GetOrRegisterTimer(name, w.timers)
}

func (w *workload[K, V]) run(ctx context.Context) (*perfReport, error) {
	fmt.Println("building instances...")
	start := time.Now()
	if err := w.build(ctx); err != nil {
		return nil, err
	}
	fmt.Printf("built %d instances in %s\n\n", len(w.ids), time.Since(start).Round(time.Millisecond))

	storage, err := w.manager.Get(w.ids[0])
	if err != nil {
		return nil, err
	}

	report := &perfReport{
		order:   append([]string{"build", "commit"}, benchmarkNames...),
		results: make(map[string]testing.BenchmarkResult),
		timers:  w.timers,
		ids:     w.ids,
		storage: storage.Info(),
	}

	printTimer("build", w.timer("build"))
	printTimer("commit", w.timer("commit"))

	benchmarks := map[string]func(*testing.B){
		"get":    w.benchmarkGet,
		"prefix": w.benchmarkPrefix,
		"range":  w.benchmarkRange,
		"open":   w.benchmarkOpen,
	}
	for _, name := range benchmarkNames {
		if w.cfg.ShouldSkip(name) {
			report.results[name] = testing.BenchmarkResult{}
			printResult(name, report.results[name], nil)
			continue
		}
		result := testing.Benchmark(benchmarks[name])
		report.results[name] = result
		printResult(name, result, w.timer(name))
	}

	return report, nil
}

// build writes and commits all instances, at most cfg.Threads at a time
func (w *workload[K, V]) build(ctx context.Context) error {
	w.ids = make([]uuid.UUID, w.cfg.Instances)
	buildTimer, commitTimer := w.timer("build"), w.timer("commit")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Threads)

	for n := range w.ids {
		n := n
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			writer := memory.NewWriter(w.manager)
			for p, prefix := range w.prefixes {
				for k := 0; k < w.cfg.KeysPerPrefix; k++ {
					if err := memory.Set(writer, prefix, w.key(k), w.value(p*w.cfg.KeysPerPrefix+k)); err != nil {
						return fmt.Errorf("instance %d: %w", n, err)
					}
				}
			}

			commitStart := time.Now()
			if err := writer.Commit(); err != nil {
				return fmt.Errorf("instance %d: %w", n, err)
			}
			commitTimer.UpdateSince(commitStart)
			buildTimer.UpdateSince(start)

			w.ids[n] = writer.ID()
			log.Debugf("built instance %d (%s)", n, writer.ID())
			return nil
		})
	}

	return g.Wait()
}

// --------------------------------------------------------------------------
// Read benchmarks
// --------------------------------------------------------------------------

func (w *workload[K, V]) readers(b *testing.B) []*memory.Reader[K, V] {
	readers := make([]*memory.Reader[K, V], len(w.ids))
	for i, id := range w.ids {
		r, err := memory.OpenReader[K, V](w.manager, id)
		if err != nil {
			b.Fatalf("open reader: %v", err)
		}
		readers[i] = r
	}
	return readers
}

// parallel runs op with cfg.Threads goroutines per CPU and records the
// latency of every call in the named timer
func (w *workload[K, V]) parallel(b *testing.B, name string, op func(rng *rand.Rand) error) {
	timer := w.timer(name)

	b.SetParallelism(w.cfg.Threads)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			start := time.Now()
			if err := op(rng); err != nil {
				log.Errorf("(%s) - %v", name, err)
			}
			timer.UpdateSince(start)
		}
	})
}

func (w *workload[K, V]) benchmarkGet(b *testing.B) {
	readers := w.readers(b)
	w.parallel(b, "get", func(rng *rand.Rand) error {
		r := readers[rng.Intn(len(readers))]
		_, err := r.Get(w.prefixes[rng.Intn(len(w.prefixes))], w.key(rng.Intn(w.cfg.KeysPerPrefix)))
		return err
	})
}

func (w *workload[K, V]) benchmarkPrefix(b *testing.B) {
	readers := w.readers(b)
	w.parallel(b, "prefix", func(rng *rand.Rand) error {
		r := readers[rng.Intn(len(readers))]
		_, err := r.GetByPrefix(w.prefixes[rng.Intn(len(w.prefixes))])
		return err
	})
}

// benchmarkRange queries the upper tenth of a prefix
func (w *workload[K, V]) benchmarkRange(b *testing.B) {
	readers := w.readers(b)
	bound := w.key(w.cfg.KeysPerPrefix * 9 / 10)
	w.parallel(b, "range", func(rng *rand.Rand) error {
		r := readers[rng.Intn(len(readers))]
		_, err := r.GetGte(w.prefixes[rng.Intn(len(w.prefixes))], bound)
		return err
	})
}

func (w *workload[K, V]) benchmarkOpen(b *testing.B) {
	w.parallel(b, "open", func(rng *rand.Rand) error {
		_, err := memory.OpenReader[K, V](w.manager, w.ids[rng.Intn(len(w.ids))])
		return err
	})
}
