// File: internal/domain/ports/adapter/notifier.go
package adapter

import "context"

// Notifier delivers operator alerts (low stock and the like).
type Notifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}
