package services

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	applicationIDPrefix = "app"
	employerIDPrefix    = "emp"
	demoIDPrefix        = "mock-id"

	idSuffixLen = 9
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// newRequestID builds "<prefix>_<unix ms>_<9 base36 chars>".
func newRequestID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), randomBase36(idSuffixLen))
}

func newDemoID(now time.Time) string {
	return fmt.Sprintf("%s-%d", demoIDPrefix, now.UnixMilli())
}

func randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return string(b)
}
