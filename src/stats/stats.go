// Package stats collects the small set of kernel counters worth
// exposing to offline tooling: task count, VFS inode/dentry counts,
// and the frame allocator's high-water mark, process-accounting data
// gathered in-kernel and studied later by a host-side tool (cmd/kstat).
package stats

import "encoding/json"

// Snapshot is a point-in-time readout, serialized by the kernel and
// deserialized by cmd/kstat.
type Snapshot struct {
	TaskCount int `json:"task_count"`
	InodeCount int `json:"inode_count"`
	DentryCount int `json:"dentry_count"`
	FramesAllocated uint64 `json:"frames_allocated"`
	HeapBytesAllocated uint64 `json:"heap_bytes_allocated"`
}

// Marshal encodes the snapshot as JSON, the interchange format between
// the kernel (which has no filesystem of its own to write to besides
// ramfs) and cmd/kstat running on the host.
func (s Snapshot) Marshal() ([]byte, error) { return json.Marshal(s) }

// Unmarshal decodes a Snapshot written by Marshal.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	err := json.Unmarshal(data, &s)
	return s, err
}
