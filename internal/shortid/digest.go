package shortid

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/zeebo/blake3"
)

type digest struct {
	name string
	new  func() hash.Hash
}

// every retry moves one step along the cycle, so two consecutive
// candidates never come from the same algorithm
var cycle = []digest{
	{name: "sha1", new: sha1.New},
	{name: "md5", new: md5.New},
	{name: "sha256", new: sha256.New},
	{name: "blake3", new: func() hash.Hash { return blake3.New() }},
}

func (d digest) sum(seed string) string {
	h := d.new()
	h.Write([]byte(seed))
	return hex.EncodeToString(h.Sum(nil))
}

// prefix returns the first n hex characters of the digest, chaining the
// digest over itself when n exceeds its size.
func (d digest) prefix(full string, n int) string {
	out := full
	for len(out) < n {
		out += d.sum(out)
	}

	return out[:n]
}
