package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderIDSuffixLen = 6

// NewOrderID builds a human-readable order id: ORD-<unix millis>-<6 upper-case hex digits>.
// Uniqueness is enforced by the orders table; callers retry on a clash.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:orderIDSuffixLen]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
