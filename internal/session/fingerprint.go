package session

import (
	"encoding/base64"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// fingerprintLength is the number of encoded characters kept from the
// fingerprint hash.
const fingerprintLength = 16

// DeviceFingerprint hashes stable host characteristics into a short
// identifier used to detect session relocation. Only characteristics
// that rarely change between runs on the same machine are included.
func DeviceFingerprint() string {
	hostname, _ := os.Hostname()
	zone, _ := time.Now().Zone()

	features := []string{
		hostname,
		runtime.GOOS,
		runtime.GOARCH,
		fmt.Sprintf("%d", runtime.NumCPU()),
		os.Getenv("LANG"),
		zone,
	}

	sum := blake2b.Sum256([]byte(strings.Join(features, "|")))
	encoded := base64.RawURLEncoding.EncodeToString(sum[:])
	return encoded[:fingerprintLength]
}
