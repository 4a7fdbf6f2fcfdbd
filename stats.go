// Streaming summary pass, grounded on original_source/src/Stats.cpp.
// Reuses the same RecordParser/Handler machinery as decode, rather than
// a bespoke counting loop, per spec §2's "Record parser ... delegates
// values" data flow.
package austream

import (
	"errors"
	"io"
)

// Stats summarizes one pass over a stream: record-type counts and a
// histogram of value-event types, counted at every nesting depth.
type Stats struct {
	HeaderRecords int
	ClearRecords  int
	AddRecords    int
	ValueRecords  int
	DictEntries   int // entries in the dictionary generation of the most recent A record
	TypeCounts    map[string]int
}

type statsHandler struct {
	noopHandler
	st *Stats
}

func (h *statsHandler) OnBool(bool) error          { h.st.TypeCounts["bool"]++; return nil }
func (h *statsHandler) OnNull() error              { h.st.TypeCounts["null"]++; return nil }
func (h *statsHandler) OnPosInt(uint64) error      { h.st.TypeCounts["int"]++; return nil }
func (h *statsHandler) OnNegInt(uint64) error      { h.st.TypeCounts["int"]++; return nil }
func (h *statsHandler) OnDouble(uint64) error      { h.st.TypeCounts["double"]++; return nil }
func (h *statsHandler) OnTimestamp(int64) error    { h.st.TypeCounts["timestamp"]++; return nil }
func (h *statsHandler) OnArrayStart() error        { h.st.TypeCounts["array"]++; return nil }
func (h *statsHandler) OnObjectStart() error       { h.st.TypeCounts["object"]++; return nil }
func (h *statsHandler) OnStringStart(int) error    { h.st.TypeCounts["string"]++; return nil }

// ComputeStats runs a single sequential pass over src from its current
// position to EOF.
func ComputeStats(src ByteSource) (*Stats, error) {
	st := &Stats{TypeCounts: make(map[string]int)}
	dict := NewDictionary(1)
	sh := &statsHandler{st: st}
	rp := NewRecordParser(src, dict, sh)

	for {
		kind, err := rp.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return st, nil
			}
			return st, err
		}
		switch kind {
		case KindHeader:
			st.HeaderRecords++
		case KindClear:
			st.ClearRecords++
		case KindAdd:
			st.AddRecords++
			if rp.activeGen != nil {
				st.DictEntries = len(rp.activeGen.entries)
			}
		case KindValue:
			st.ValueRecords++
		}
	}
}
