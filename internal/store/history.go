package store

import (
	"fmt"
	"sort"
	"time"
)

// Record is one dispatch attempt. Records are append-only.
type Record struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SourceTool    string    `json:"source_tool"`
	TargetTool    string    `json:"target_tool"`
	RequestClass  string    `json:"request_class"`
	Success       bool      `json:"success"`
	ExecutionTime float64   `json:"execution_time"`
	CommandUsed   string    `json:"command_used"`
	FallbackLevel int       `json:"fallback_level"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	ErrorReason   *string   `json:"error_reason"`
}

// PatternStats aggregates records sharing a source->target pattern.
type PatternStats struct {
	UsageCount       int       `json:"usage_count"`
	SuccessCount     int       `json:"success_count"`
	SuccessRate      float64   `json:"success_rate"`
	AvgExecutionTime float64   `json:"avg_execution_time"`
	LastUsed         time.Time `json:"last_used"`
}

// HistoryFile is the shape of success_patterns.json.
type HistoryFile struct {
	Records  []Record                `json:"records"`
	Patterns map[string]PatternStats `json:"patterns"`
}

// PatternKey names the aggregation bucket for a record.
func PatternKey(source, target string) string {
	if source == "" {
		source = "user"
	}
	return fmt.Sprintf("%s->%s", source, target)
}

// History appends records to success_patterns.json.
type History struct {
	Path string
	// Limit caps retained records; statistics keep counting past it.
	Limit int
}

// Append adds rec and folds it into the pattern statistics.
func (h History) Append(rec Record) error {
	return Update(h.Path, func(f *HistoryFile) error {
		f.Records = append(f.Records, rec)
		if h.Limit > 0 && len(f.Records) > h.Limit {
			f.Records = append([]Record(nil), f.Records[len(f.Records)-h.Limit:]...)
		}
		if f.Patterns == nil {
			f.Patterns = map[string]PatternStats{}
		}
		key := PatternKey(rec.SourceTool, rec.TargetTool)
		st := f.Patterns[key]
		total := st.AvgExecutionTime * float64(st.UsageCount)
		st.UsageCount++
		if rec.Success {
			st.SuccessCount++
		}
		st.SuccessRate = float64(st.SuccessCount) / float64(st.UsageCount)
		st.AvgExecutionTime = (total + rec.ExecutionTime) / float64(st.UsageCount)
		st.LastUsed = rec.Timestamp
		f.Patterns[key] = st
		return nil
	})
}

// Read returns the current file contents.
func (h History) Read() (HistoryFile, error) {
	f, err := Load[HistoryFile](h.Path)
	if f.Patterns == nil {
		f.Patterns = map[string]PatternStats{}
	}
	return f, err
}

// Recent returns up to n records, newest first.
func (h History) Recent(n int) ([]Record, error) {
	f, err := h.Read()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(f.Records))
	for i := len(f.Records) - 1; i >= 0; i-- {
		out = append(out, f.Records[i])
		if n > 0 && len(out) == n {
			break
		}
	}
	return out, nil
}

// PatternKeys returns the statistic keys sorted by usage (desc), then name.
func (f HistoryFile) PatternKeys() []string {
	keys := make([]string, 0, len(f.Patterns))
	for k := range f.Patterns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := f.Patterns[keys[i]], f.Patterns[keys[j]]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		return keys[i] < keys[j]
	})
	return keys
}
