// Package cpu decodes CPUID-style feature information, mirroring
// original_source/kernel/src/cpuid.rs's CpuInfo. The boot sequence
// only consults two derived booleans; the rest of FeatureSet exists so
// a real CPUID backend can be dropped in without touching call sites
// (supplemented features).
package cpu

// FeatureSet is the decoded shape of a CPUID query. VendorString and
// ProcessorName are ASCII strings assembled from the leaf registers;
// the bit fields mirror leaf 1's ECX/EDX feature flags most kernels
// care about.
type FeatureSet struct {
	VendorString string
	ProcessorName string
	HasSSE42 bool
	HasPOPCNT bool
	HasAVX bool
	CoresPerPackage uint32
	// ThreadsPerCore is advisory only (the Open Question): the
	// original source flags its own computed value as unreliable on
	// some hypervisors, and nothing in this kernel branches on it.
	ThreadsPerCore uint32
}

// Prober is the single hardware hook this package needs: a raw CPUID
// leaf/subleaf query returning (eax, ebx, ecx, edx). Boot glue supplies
// the real CPUID instruction (via a small asm stub analogous to
// ioport's), tests supply a table of canned leaves.
type Prober func(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)

// Probe decodes a FeatureSet using cpuid. Leaf 0 gives the vendor
// string, leaf 1 gives the feature bits and cores-per-package,
// leaves 0x80000002-4 give the processor name string.
func Probe(cpuid Prober) FeatureSet {
	_, ebx, ecx, edx := cpuid(0, 0)
	vendor := vendorString(ebx, edx, ecx)

	_, ebx1, ecx1, edx1 := cpuid(1, 0)
	fs := FeatureSet{
		VendorString: vendor,
		HasSSE42: ecx1&(1<<20) != 0,
		HasPOPCNT: ecx1&(1<<23) != 0,
		HasAVX: ecx1&(1<<28) != 0,
		CoresPerPackage: (ebx1 >> 16) & 0xff,
		ThreadsPerCore: (ebx1 >> 16) & 0xff, // see field doc: advisory only
	}
	_ = edx1

	var name [48]byte
	for i, leaf := range []uint32{0x80000002, 0x80000003, 0x80000004} {
		a, b, c, d := cpuid(leaf, 0)
		putLE(name[i*16:], a, b, c, d)
	}
	fs.ProcessorName = trimName(name[:])
	return fs
}

func vendorString(ebx, edx, ecx uint32) string {
	var b [12]byte
	putLE(b[:4], ebx, 0, 0, 0)
	putLE(b[4:8], edx, 0, 0, 0)
	putLE(b[8:12], ecx, 0, 0, 0)
	return string(b[:])
}

func putLE(dst []byte, a, b, c, d uint32) {
	regs := [4]uint32{a, b, c, d}
	for i, r := range regs {
		if i*4+4 > len(dst) {
			break
		}
		dst[i*4+0] = byte(r)
		dst[i*4+1] = byte(r >> 8)
		dst[i*4+2] = byte(r >> 16)
		dst[i*4+3] = byte(r >> 24)
	}
}

func trimName(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ') {
		end--
	}
	start := 0
	for start < end && b[start] == ' ' {
		start++
	}
	return string(b[start:end])
}

// Supported reports whether fs meets this kernel's minimum
// requirement (SSE4.2 and POPCNT), the gate the boot sequence
// applies before continuing past CPU feature probing.
func Supported(fs FeatureSet) bool {
	return fs.HasSSE42 && fs.HasPOPCNT
}
