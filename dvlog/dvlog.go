// Package dvlog is the Data Vector Logger: a periodic snapshot sink that
// either appends CSV rows to a file or keeps a bounded in-memory ring for a
// live operator view.
//
// Its CSV/Watch split and "snapshot under lock, write outside it" shape
// are rebuilt on this module's Data Vector and clock.
package dvlog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/fswtime"
)

// Mode selects the logger's sink.
type Mode int

const (
	ModeCSV Mode = iota
	ModeWatch
)

// Config is the full construction config for a Logger.
type Config struct {
	DV            *datavector.DataVector
	Clock         *fswtime.Clock
	RegionsToLog  []datavector.RegionID
	ElementNames  map[datavector.ElementID]string
	Mode          Mode
	LogFilePath   string // required for ModeCSV
	WatchRingSize int    // required for ModeWatch; number of snapshots retained
}

type snapshot struct {
	nowNs  uint64
	values []datavector.TypedValue
}

// Logger is one configured snapshot sink.
type Logger struct {
	cfg           Config
	elementOrder  []datavector.ElementID
	file          *os.File
	headerWritten bool
	ring          []snapshot
	ringPos       int
	ringFull      bool
}

// Create opens the log file (CSV mode) and resolves the element order for
// every configured region. Fails with FailedToOpenFile if the file cannot
// be created.
func Create(cfg Config) (*Logger, *ferr.Error) {
	const op = "DataVectorLogger.Create"

	if cfg.DV == nil {
		return nil, ferr.New(op, ferr.KindDataVectorNull, "data vector is nil")
	}
	if len(cfg.RegionsToLog) == 0 {
		return nil, ferr.New(op, ferr.KindEmptyConfig, "logger has no regions configured")
	}

	var order []datavector.ElementID
	for _, rid := range cfg.RegionsToLog {
		ids, err := cfg.DV.RegionElementIDs(rid)
		if err != nil {
			return nil, err
		}
		order = append(order, ids...)
	}

	l := &Logger{cfg: cfg, elementOrder: order}

	if cfg.Mode == ModeCSV {
		f, err := os.OpenFile(cfg.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, ferr.Wrap(op, ferr.KindFailedToOpenFile, err)
		}
		l.file = f
		if info, statErr := f.Stat(); statErr == nil && info.Size() > 0 {
			l.headerWritten = true
		}
	} else {
		size := cfg.WatchRingSize
		if size <= 0 {
			size = 64
		}
		l.ring = make([]snapshot, size)
	}

	return l, nil
}

func (l *Logger) elementName(id datavector.ElementID) string {
	if name, ok := l.cfg.ElementNames[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("elem_%d", id)
}

func (l *Logger) readSnapshot() ([]datavector.TypedValue, *ferr.Error) {
	const op = "DataVectorLogger.Snapshot"

	values := make([]datavector.TypedValue, 0, len(l.elementOrder))
	for _, rid := range l.cfg.RegionsToLog {
		regionValues, err := l.cfg.DV.ReadRegion(rid)
		if err != nil {
			return nil, ferr.Wrap(op, ferr.KindDataVectorRead, err)
		}
		values = append(values, regionValues...)
	}
	return values, nil
}

// Snapshot reads the configured regions, each under its own lock
// acquisition (separate regions are not read atomically with one another),
// and appends a row (CSV mode) or stores the reading in the ring (Watch
// mode).
func (l *Logger) Snapshot() *ferr.Error {
	const op = "DataVectorLogger.Snapshot"

	nowNs, err := l.cfg.Clock.NowNs()
	if err != nil {
		return err
	}

	values, verr := l.readSnapshot()
	if verr != nil {
		return verr
	}

	if l.cfg.Mode == ModeWatch {
		l.ring[l.ringPos] = snapshot{nowNs: nowNs, values: values}
		l.ringPos = (l.ringPos + 1) % len(l.ring)
		if l.ringPos == 0 {
			l.ringFull = true
		}
		return nil
	}

	if !l.headerWritten {
		header := make([]string, 0, len(l.elementOrder)+1)
		header = append(header, "now_ns")
		for _, id := range l.elementOrder {
			header = append(header, l.elementName(id))
		}
		if _, werr := l.file.WriteString(strings.Join(header, ",") + "\n"); werr != nil {
			return ferr.Wrap(op, ferr.KindFailedToWriteFile, werr)
		}
		l.headerWritten = true
	}

	row := make([]string, 0, len(values)+1)
	row = append(row, strconv.FormatUint(nowNs, 10))
	for _, v := range values {
		row = append(row, formatTypedValue(v))
	}
	if _, werr := l.file.WriteString(strings.Join(row, ",") + "\n"); werr != nil {
		return ferr.Wrap(op, ferr.KindFailedToWriteFile, werr)
	}
	return nil
}

// Watch returns the ring's contents in chronological order. Only valid in
// ModeWatch.
func (l *Logger) Watch() [][]datavector.TypedValue {
	n := l.ringPos
	if l.ringFull {
		n = len(l.ring)
	}
	out := make([][]datavector.TypedValue, 0, n)
	if l.ringFull {
		for i := l.ringPos; i < len(l.ring); i++ {
			out = append(out, l.ring[i].values)
		}
	}
	for i := 0; i < l.ringPos; i++ {
		out = append(out, l.ring[i].values)
	}
	return out
}

// Close closes the underlying file, if one is open.
func (l *Logger) Close() *ferr.Error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return ferr.Wrap("DataVectorLogger.Close", ferr.KindFailedToWriteFile, err)
	}
	return nil
}

func formatTypedValue(v datavector.TypedValue) string {
	switch v.Type {
	case datavector.TypeU8:
		return strconv.FormatUint(uint64(v.AsU8()), 10)
	case datavector.TypeU16:
		return strconv.FormatUint(uint64(v.AsU16()), 10)
	case datavector.TypeU32:
		return strconv.FormatUint(uint64(v.AsU32()), 10)
	case datavector.TypeU64:
		return strconv.FormatUint(v.AsU64(), 10)
	case datavector.TypeI8:
		return strconv.FormatInt(int64(v.AsI8()), 10)
	case datavector.TypeI16:
		return strconv.FormatInt(int64(v.AsI16()), 10)
	case datavector.TypeI32:
		return strconv.FormatInt(int64(v.AsI32()), 10)
	case datavector.TypeI64:
		return strconv.FormatInt(v.AsI64(), 10)
	case datavector.TypeF32:
		return strconv.FormatFloat(float64(v.AsF32()), 'g', -1, 32)
	case datavector.TypeF64:
		return strconv.FormatFloat(v.AsF64(), 'g', -1, 64)
	case datavector.TypeBool:
		if v.AsBool() {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}
