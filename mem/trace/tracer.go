// Package trace provides hooks that record the accesses of the cache and the
// page table simulators into a database.
package trace

import (
	"sync"

	"github.com/rs/xid"

	"github.com/sarchlab/addrsim/datarecording"
	"github.com/sarchlab/addrsim/mem/cache"
	"github.com/sarchlab/addrsim/mem/vm"
	"github.com/sarchlab/addrsim/sim/hooking"
)

// The tables that a DBTracer writes.
const (
	TableCacheAccesses = "cache_accesses"
	TableTranslations  = "translations"
	TableEvictions     = "evictions"
)

// CacheAccessEntry is a row of the cache access table.
type CacheAccessEntry struct {
	ID       string `json:"id"`
	Seq      uint64 `json:"seq"`
	Location string `json:"location"`
	Mode     string `json:"mode"`
	Address  uint64 `json:"address"`
	Hit      bool   `json:"hit"`
	Word     uint64 `json:"word"`
	Line     uint64 `json:"line"`
	Tag      uint64 `json:"tag"`
	Value    int64  `json:"value"`
}

// TranslationEntry is a row of the translation table.
type TranslationEntry struct {
	ID              string `json:"id"`
	Seq             uint64 `json:"seq"`
	Location        string `json:"location"`
	VirtualAddress  uint64 `json:"virtual_address"`
	VirtualPage     uint64 `json:"virtual_page"`
	Offset          uint64 `json:"offset"`
	Fault           bool   `json:"fault"`
	PhysicalAddress uint64 `json:"physical_address"`
	Frame           uint64 `json:"frame"`
}

// EvictionEntry is a row of the eviction table.
type EvictionEntry struct {
	ID          string `json:"id"`
	Seq         uint64 `json:"seq"`
	Location    string `json:"location"`
	VirtualPage uint64 `json:"virtual_page"`
	Frame       uint64 `json:"frame"`
}

// A DBTracer is a hook that records the cache accesses, the translations, and
// the evictions into a data recorder. Entries of all the tables share one
// sequence counter, so the order of the events can be restored.
type DBTracer struct {
	lock         sync.Mutex
	dataRecorder datarecording.DataRecorder
	seq          uint64
}

// NewDBTracer creates a DBTracer and the tables it writes.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(TableCacheAccesses, CacheAccessEntry{})
	t.dataRecorder.CreateTable(TableTranslations, TranslationEntry{})
	t.dataRecorder.CreateTable(TableEvictions, EvictionEntry{})

	return t
}

// Func records the event if it is one the tracer knows.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		t.recordAccess(location(ctx), ctx.Detail.(cache.AccessResult))
	case vm.HookPosTranslate:
		t.recordTranslation(location(ctx), ctx.Detail.(vm.TranslationResult))
	case vm.HookPosEvict:
		t.recordEviction(location(ctx), ctx.Item.(vm.Page))
	}
}

// Flush writes the buffered entries.
func (t *DBTracer) Flush() {
	t.dataRecorder.Flush()
}

func location(ctx hooking.HookCtx) string {
	if ctx.Domain == nil {
		return ""
	}

	return ctx.Domain.Name()
}

func (t *DBTracer) nextSeq() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.seq++

	return t.seq
}

func (t *DBTracer) recordAccess(where string, rsp cache.AccessResult) {
	t.dataRecorder.InsertData(TableCacheAccesses, CacheAccessEntry{
		ID:       xid.New().String(),
		Seq:      t.nextSeq(),
		Location: where,
		Mode:     rsp.Mode.String(),
		Address:  rsp.Address,
		Hit:      rsp.Hit,
		Word:     rsp.Word,
		Line:     rsp.Index,
		Tag:      rsp.Tag,
		Value:    rsp.Value,
	})
}

func (t *DBTracer) recordTranslation(where string, rsp vm.TranslationResult) {
	t.dataRecorder.InsertData(TableTranslations, TranslationEntry{
		ID:              xid.New().String(),
		Seq:             t.nextSeq(),
		Location:        where,
		VirtualAddress:  rsp.VirtualAddress,
		VirtualPage:     rsp.VirtualPage,
		Offset:          rsp.Offset,
		Fault:           rsp.Fault,
		PhysicalAddress: rsp.PhysicalAddress,
		Frame:           rsp.Frame,
	})
}

func (t *DBTracer) recordEviction(where string, page vm.Page) {
	t.dataRecorder.InsertData(TableEvictions, EvictionEntry{
		ID:          xid.New().String(),
		Seq:         t.nextSeq(),
		Location:    where,
		VirtualPage: page.VirtualPage,
		Frame:       page.Frame,
	})
}

// MapTables tells the reader how to decode the tables written by a DBTracer.
func MapTables(reader datarecording.DataReader) {
	reader.MapTable(TableCacheAccesses, CacheAccessEntry{})
	reader.MapTable(TableTranslations, TranslationEntry{})
	reader.MapTable(TableEvictions, EvictionEntry{})
}
