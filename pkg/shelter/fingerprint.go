package shelter

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// Fingerprint tuning. Small inputs are identified by their length plus a
// literal prefix; larger inputs by an FNV-1a hash over strided samples.
// This is a best-effort, non-cryptographic cache key: a collision costs a
// stale parse result, never corruption.
const (
	fingerprintSmallMax   = 1024
	fingerprintPrefixLen  = 64
	fingerprintMaxSamples = 64
)

// Fingerprint computes a cheap, approximate content identifier suitable as
// a [ContentCache] key.
func Fingerprint(content []byte) string {
	if len(content) <= fingerprintSmallMax {
		prefix := content
		if len(prefix) > fingerprintPrefixLen {
			prefix = prefix[:fingerprintPrefixLen]
		}

		return fmt.Sprintf("s:%d:%s", len(content), prefix)
	}

	stride := len(content) / fingerprintMaxSamples
	if stride < 1 {
		stride = 1
	}

	h := fnv.New64a()

	var lenBuf [8]byte

	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(content)))
	_, _ = h.Write(lenBuf[:])

	for i := 0; i < len(content); i += stride {
		end := i + 8
		if end > len(content) {
			end = len(content)
		}

		_, _ = h.Write(content[i:end])
	}

	return fmt.Sprintf("h:%d:%016x", len(content), h.Sum64())
}
