package memory

import (
	"io"

	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("memory")

// --------------------------------------------------------------------------
// Instance State
// --------------------------------------------------------------------------

type instanceState uint8

const (
	stateBuilding instanceState = iota
	stateCommitted
)

func (s instanceState) String() string {
	switch s {
	case stateBuilding:
		return "building"
	case stateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// instance is one registry slot. Slots are never modified in place: a
// commit replaces the building slot with a new committed one.
type instance struct {
	state   instanceState
	builder *StorageBuilder // set while building
	storage *Storage        // set once committed
}

// --------------------------------------------------------------------------
// Storage Manager
// --------------------------------------------------------------------------

// StorageManager is the registry of all blockfile instances of a process.
// It hands out builders, publishes them as immutable storages on commit and
// resolves ids to committed storages for readers.
//
// Thread-safety: All methods are safe for concurrent use. A commit publishes
// its storage atomically, a concurrent Get observes either no committed
// instance or the complete storage.
type StorageManager struct {
	instances *xsync.MapOf[uuid.UUID, *instance]

	metrics        *metrics.Set
	created        *metrics.Counter
	committed      *metrics.Counter
	commitFailures *metrics.Counter
	dropped        *metrics.Counter
	readerOpens    *metrics.Counter
}

// NewStorageManager creates a new empty registry
func NewStorageManager() *StorageManager {
	set := metrics.NewSet()
	m := &StorageManager{
		instances:      xsync.NewMapOf[uuid.UUID, *instance](),
		metrics:        set,
		created:        set.NewCounter("blockfile_instances_created_total"),
		committed:      set.NewCounter("blockfile_instances_committed_total"),
		commitFailures: set.NewCounter("blockfile_commit_failures_total"),
		dropped:        set.NewCounter("blockfile_instances_dropped_total"),
		readerOpens:    set.NewCounter("blockfile_reader_opens_total"),
	}

	set.NewGauge(`blockfile_instances{state="building"}`, func() float64 {
		return float64(m.count(stateBuilding))
	})
	set.NewGauge(`blockfile_instances{state="committed"}`, func() float64 {
		return float64(m.count(stateCommitted))
	})

	return m
}

// Create registers a new instance in building state and returns its builder.
// Ids are random and never reused.
func (m *StorageManager) Create() *StorageBuilder {
	for {
		id := uuid.New()
		builder := newStorageBuilder(id)
		if _, loaded := m.instances.LoadOrStore(id, &instance{state: stateBuilding, builder: builder}); loaded {
			continue
		}

		m.created.Inc()
		log.Debugf("created instance %s", id)
		return builder
	}
}

// Commit seals the builder of id and publishes its content as an immutable
// storage. It fails with blockstore.ErrInstanceNotBuilding if id is unknown,
// already committed or was dropped while committing.
//
// Sorting the staged entries happens outside of the registry lock.
func (m *StorageManager) Commit(id uuid.UUID) error {
	inst, ok := m.instances.Load(id)
	if !ok || inst.state != stateBuilding || !inst.builder.seal() {
		return m.failCommit(id, "instance is unknown or not building")
	}

	storage := inst.builder.freeze()

	published := false
	m.instances.Compute(id, func(old *instance, loaded bool) (*instance, bool) {
		if !loaded {
			return nil, true
		}
		if old != inst {
			return old, false
		}
		published = true
		return &instance{state: stateCommitted, storage: storage}, false
	})
	if !published {
		return m.failCommit(id, "instance was dropped during commit")
	}

	m.committed.Inc()
	log.Debugf("committed instance %s (%d entries)", id, storage.Len())
	return nil
}

func (m *StorageManager) failCommit(id uuid.UUID, reason string) error {
	m.commitFailures.Inc()
	log.Warningf("commit of %s failed: %s", id, reason)
	return errors.Wrapf(blockstore.ErrInstanceNotBuilding, "commit %s", id)
}

// Get returns the committed storage of id. Unknown and still building
// instances both yield blockstore.ErrNotFound.
func (m *StorageManager) Get(id uuid.UUID) (*Storage, error) {
	inst, ok := m.instances.Load(id)
	if !ok || inst.state != stateCommitted {
		return nil, errors.Wrapf(blockstore.ErrNotFound, "instance %s", id)
	}
	return inst.storage, nil
}

// Drop removes the instance id in any state and reports whether it existed.
// Readers that already hold the storage keep working on it.
func (m *StorageManager) Drop(id uuid.UUID) bool {
	inst, ok := m.instances.LoadAndDelete(id)
	if !ok {
		return false
	}

	// a dropped builder must not accept writes anymore
	if inst.state == stateBuilding {
		inst.builder.seal()
	}

	m.dropped.Inc()
	log.Debugf("dropped %s instance %s", inst.state, id)
	return true
}

// --------------------------------------------------------------------------
// Introspection
// --------------------------------------------------------------------------

// ManagerInfo is a snapshot of the registry
type ManagerInfo struct {
	Building      int `json:"building"`
	Committed     int `json:"committed"`
	StagedEntries int `json:"staged_entries"`
	StoredEntries int `json:"stored_entries"`
}

// Info walks the registry and returns instance and entry counts.
// The result is not an atomic snapshot under concurrent modification.
func (m *StorageManager) Info() ManagerInfo {
	var info ManagerInfo
	m.instances.Range(func(_ uuid.UUID, inst *instance) bool {
		switch inst.state {
		case stateBuilding:
			info.Building++
			info.StagedEntries += inst.builder.Len()
		case stateCommitted:
			info.Committed++
			info.StoredEntries += inst.storage.Len()
		}
		return true
	})
	return info
}

// WritePrometheus writes the metrics of this manager in Prometheus text
// format to w.
func (m *StorageManager) WritePrometheus(w io.Writer) {
	m.metrics.WritePrometheus(w)
}

func (m *StorageManager) count(state instanceState) int {
	n := 0
	m.instances.Range(func(_ uuid.UUID, inst *instance) bool {
		if inst.state == state {
			n++
		}
		return true
	})
	return n
}
