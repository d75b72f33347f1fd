package identity

import (
	"log"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/kv"
	"github.com/qianfeiqianlan/2048-clash/internal/utility"
)

const BrowserIDKey = "browser_unique_id"

// BrowserID returns the stable install id stored under BrowserIDKey, creating
// one as browser_<feature hash>_<random> on first use. Storage failures are
// logged and the freshly generated id is still returned.
func BrowserID(store kv.Store) string {
	if existing, ok, err := store.Get(BrowserIDKey); err == nil && ok && existing != "" {
		return existing
	} else if err != nil {
		log.Printf("[Identity] reading browser id: %v\n", err)
	}

	id := "browser_" + utility.HashBase36(strings.Join(hostFeatures(), "|")) + "_" + utility.RandomBase36(9)
	if err := store.Set(BrowserIDKey, id); err != nil {
		log.Printf("[Identity] saving browser id: %v\n", err)
	}
	return id
}

func hostFeatures() []string {
	hostname, _ := os.Hostname()
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	_, offset := time.Now().Zone()
	return []string{
		runtime.GOOS + "/" + runtime.GOARCH,
		hostname,
		username,
		strconv.Itoa(offset / 60),
		strconv.Itoa(runtime.NumCPU()),
	}
}
