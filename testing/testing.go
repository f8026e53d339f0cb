// Package testing forces test mode before runtime components initialise.
// Import it for side effects from tests that exercise HTTP or job wiring.
package testing

import _ "github.com/campusdesk/campusdesk/internal/testing/guard"
