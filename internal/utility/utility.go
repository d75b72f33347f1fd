package utility

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomBase36 returns n random characters from [0-9a-z].
func RandomBase36(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		out[i] = base36[v.Int64()]
	}
	return string(out)
}

// NewGameID returns a client-side game id of the form game_<epoch ms>_<9 chars>.
func NewGameID(now time.Time) string {
	return "game_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + RandomBase36(9)
}

// HashBase36 folds s into a non-negative base36 string using the 31x string hash
// over 32-bit wraparound arithmetic.
func HashBase36(s string) string {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
