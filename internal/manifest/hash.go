package manifest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// HashBytes returns the hex sha256 digest of data. Used for artifact
// content hashes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// InputHash digests an ordered list of input byte slices into one hex
// string. Each part is length-prefixed so ("ab","c") and ("a","bc") hash
// differently.
func InputHash(parts ...[]byte) string {
	h := sha256.New()

	var lenBuf [8]byte

	for _, p := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}

	return hex.EncodeToString(h.Sum(nil))
}
