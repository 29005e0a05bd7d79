package mongodb

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// identityPrefix namespaces the uid so it can share a registry with other
// storage kinds.
const identityPrefix = "mongodb:"

// Fingerprint returns the identity of a connection: "mongodb:" followed by
// the 32-bit murmur3 hash (seed 0) of uri and db as 8 hex digits. Settings
// that do not change the target, such as pool size or read preference, do
// not contribute.
func Fingerprint(uri, db string) string {
	h := murmur3.New32()
	_, _ = h.Write([]byte(uri))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(db))
	return fmt.Sprintf("%s%08x", identityPrefix, h.Sum32())
}
