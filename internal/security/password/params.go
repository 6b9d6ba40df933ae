package password

import (
	"os"
	"strconv"
)

// Params is the argon2id cost policy. Raising any field makes existing hashes
// report NeedsRehash on their next successful login.
type Params struct {
	Memory      uint32 // kibibytes
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams is ~128 MiB, t=3.
var DefaultParams = Params{Memory: 128 * 1024, Iterations: 3, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// ParamsFromEnv overlays ARGON2_MEMORY, ARGON2_ITER and ARGON2_PAR on the defaults.
func ParamsFromEnv() Params {
	p := DefaultParams
	p.Memory = envUint[uint32]("ARGON2_MEMORY", 32, p.Memory)
	p.Iterations = envUint[uint32]("ARGON2_ITER", 32, p.Iterations)
	p.Parallelism = envUint[uint8]("ARGON2_PAR", 8, p.Parallelism)
	return p
}

func envUint[T uint8 | uint32](key string, bits int, def T) T {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, bits); err == nil && n > 0 {
			return T(n)
		}
	}
	return def
}
