// Command kstat reads a stats.Snapshot written by the kernel and
// renders it as a github.com/google/pprof/profile profile, so it can
// be inspected with pprof -top/-web the way process-accounting data
// is studied offline.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/pprof/profile"

	"stats"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: kstat <snapshot.json>")
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "kstat:", err)
		os.Exit(1)
	}
}

func run(path string, out *os.File) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := stats.Unmarshal(data)
	if err != nil {
		return err
	}
	p := toProfile(snap)
	return p.Write(out)
}

// toProfile maps each counter in the snapshot to a pprof sample with
// a single-frame synthetic call stack named after the counter, which
// is enough structure for pprof's -top to render a readable table.
func toProfile(s stats.Snapshot) *profile.Profile {
	valueType := &profile.ValueType{Type: "count", Unit: "count"}
	p := &profile.Profile{
		SampleType: []*profile.ValueType{valueType},
		TimeNanos: time.Unix(0, 0).UnixNano(),
		DurationNanos: 0,
	}

	counters := []struct {
		name string
		value int64
	}{
		{"tasks", int64(s.TaskCount)},
		{"inodes", int64(s.InodeCount)},
		{"dentries", int64(s.DentryCount)},
		{"frames_allocated", int64(s.FramesAllocated)},
		{"heap_bytes_allocated", int64(s.HeapBytesAllocated)},
	}

	for i, c := range counters {
		fn := &profile.Function{ID: uint64(i + 1), Name: c.name}
		loc := &profile.Location{ID: uint64(i + 1), Line: []profile.Line{{Function: fn}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value: []int64{c.value},
		})
	}
	return p
}
