package persist

import (
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/l1jgo/autobuild/internal/blueprint"
)

// Digest is the blake2b-256 content hash stored with each blueprint. It is
// taken over the JSON encoding of the elements, whose map keys marshal sorted.
func Digest(elems []blueprint.RawElement) ([]byte, error) {
	raw, err := json.Marshal(elems)
	if err != nil {
		return nil, fmt.Errorf("encode elements: %w", err)
	}
	sum := blake2b.Sum256(raw)
	return sum[:], nil
}
