package license

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	hwidOnce sync.Once
	hwid     string
	hwidErr  error
)

// HardwareID derives the immutable device identity the license is bound to.
// It prefers the machine id and falls back to the permanent MAC of the first
// physical interface; either way the raw value is hashed so the identity
// itself never leaves the device. Software reconfiguration (renaming
// interfaces, changing addresses on top) does not change it within a boot.
func HardwareID() (string, error) {
	hwidOnce.Do(func() {
		hwid, hwidErr = computeHardwareID()
	})
	return hwid, hwidErr
}

func computeHardwareID() (string, error) {
	if raw, err := os.ReadFile("/etc/machine-id"); err == nil {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return digest("machine-id:" + id), nil
		}
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", errors.Wrap(err, "failed list interfaces")
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return digest("mac:" + iface.HardwareAddr.String()), nil
	}
	return "", errors.New("no hardware identity source available")
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
