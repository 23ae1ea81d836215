package notify

import (
	"context"
	"errors"

	"github.com/sokoide/shopfront/pkg/domain"
)

// MultiNotifier delivers to every notifier in order. A failing notifier
// does not stop delivery to the rest; the errors are joined.
type MultiNotifier []domain.Notifier

func (m MultiNotifier) Notify(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
