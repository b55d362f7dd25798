package ship

import (
	"math/big"
	"time"
)

// The ship's native time aura counts 2^-64 fractions of a second.
// daUnixEpoch is 1970-01-01T00:00:00Z in that encoding, so a wall-clock
// time converts as millis*2^64/1000 + epoch.
var (
	daUnixEpoch, _ = new(big.Int).SetString("170141184475152167957503069145530368000", 10)
	daSecond       = new(big.Int).Lsh(big.NewInt(1), 64)
	msPerSecond    = big.NewInt(1000)
)

// TimeCode converts t to the ship's native time encoding formatted as an
// unsigned decimal string. The encoding has sub-millisecond resolution
// and is strictly increasing in t, so codes from the same author order
// chronologically both numerically and lexicographically (equal length
// for any modern timestamp).
func TimeCode(t time.Time) string {
	da := big.NewInt(t.UnixMilli())
	da.Mul(da, daSecond)
	da.Div(da, msPerSecond)
	da.Add(da, daUnixEpoch)
	return da.String()
}
