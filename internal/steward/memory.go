package steward

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const maxRecords = 50

// CycleRecord captures what happened in a single steward cycle.
type CycleRecord struct {
	Time      string  `json:"time"`
	Level     string  `json:"level"`
	Cash      float64 `json:"cash"`
	Occupancy float64 `json:"occupancy"`
	Planned   int     `json:"planned"`
	Done      int     `json:"done"`
	Failed    int     `json:"failed"`
	Collected float64 `json:"collected"`
}

// CycleMemory is a ring of recent cycle records kept in a JSON file.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
	path    string
}

// LoadMemory reads the memory file. A missing or corrupt file yields an
// empty memory; an empty path keeps the memory in process only.
func LoadMemory(path string) *CycleMemory {
	m := &CycleMemory{path: path}
	if path == "" {
		return m
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, m); err != nil {
		slog.Warn("steward memory corrupted, starting fresh", "path", path, "error", err)
		return &CycleMemory{path: path}
	}
	return m
}

// Save writes the memory to disk.
func (m *CycleMemory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal steward memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		slog.Error("failed to write steward memory", "path", m.path, "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Summary describes the last n cycles, one per line.
func (m *CycleMemory) Summary(n int) string {
	start := 0
	if len(m.Records) > n {
		start = len(m.Records) - n
	}
	var b strings.Builder
	for _, r := range m.Records[start:] {
		fmt.Fprintf(&b, "%s: %s cash=$%.0f occupancy=%.0f%% actions=%d/%d collected=$%.0f\n",
			r.Time, r.Level, r.Cash, r.Occupancy*100, r.Done, r.Planned, r.Collected)
	}
	return b.String()
}
