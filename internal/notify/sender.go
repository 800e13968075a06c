package notify

import "context"

// Sender delivers a single notification. Delivery is a black box: the
// services only care about success or failure within the caller's context.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
