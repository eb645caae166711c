package memory

import (
	"math"
	"testing"
)

type limitRecorder struct {
	current int64
	set     []int64
}

func (r *limitRecorder) setLimit(limit int64) int64 {
	prev := r.current
	if limit >= 0 {
		r.current = limit
		r.set = append(r.set, limit)
	}
	return prev
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		current    int64
		wantSource string
		wantLimit  int64
		wantSet    bool
	}{
		{
			name:       "nothing set",
			env:        nil,
			current:    math.MaxInt64,
			wantSource: SourceNone,
		},
		{
			name:       "GOMEMLIMIT wins",
			env:        map[string]string{"GOMEMLIMIT": "512MiB", "MEMORY_LIMIT": "1073741824"},
			current:    512 << 20,
			wantSource: SourceGoMemLimit,
			wantLimit:  512 << 20,
		},
		{
			name:       "MEMORY_LIMIT with default ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1000000000"},
			current:    math.MaxInt64,
			wantSource: SourceMemoryLimit,
			wantLimit:  850000000,
			wantSet:    true,
		},
		{
			name:       "MEMORY_LIMIT with custom ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "0.5"},
			current:    math.MaxInt64,
			wantSource: SourceMemoryLimit,
			wantLimit:  500000000,
			wantSet:    true,
		},
		{
			name:       "ratio out of range falls back",
			env:        map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "1.5"},
			current:    math.MaxInt64,
			wantSource: SourceMemoryLimit,
			wantLimit:  850000000,
			wantSet:    true,
		},
		{
			name:       "invalid MEMORY_LIMIT",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			current:    math.MaxInt64,
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &limitRecorder{current: tt.current}
			got := Configure(func(k string) string { return tt.env[k] }, rec.setLimit)

			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Configured != (tt.wantLimit > 0) {
				t.Errorf("Configured = %v", got.Configured)
			}
			if tt.wantSet != (len(rec.set) == 1) {
				t.Errorf("limit set calls = %v", rec.set)
			}
		})
	}
}
