// Package guard forces test mode before any package init can observe the
// environment. Import it for side effects in tests that boot runtime
// components.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CAMPUSDESK_TEST_MODE") == "" {
			_ = os.Setenv("CAMPUSDESK_TEST_MODE", "1")
		}
	})
}
