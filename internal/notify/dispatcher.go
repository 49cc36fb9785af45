package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Sender delivers one rendered message to a stream topic.
type Sender interface {
	Send(ctx context.Context, stream, topic, content string) (entities.DeliveryResult, error)
}

// Dispatcher renders alert messages and sends them through a rate-limited
// chat channel. Delivery failures are logged and never abort the run.
type Dispatcher struct {
	log    *zap.SugaredLogger
	sender Sender
	window *window
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher bound to a sender.
func NewDispatcher(log *zap.SugaredLogger, sender Sender, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		log:    log.Named("notify"),
		sender: sender,
		window: newWindow(cfg.Notify.Budget, cfg.Notify.Window),
		now:    time.Now,
	}
}

// Dispatch sends one candidate row to its destination. It blocks when the
// send budget for the current window is spent and reports the delivery
// outcome without raising on API-level failure.
func (d *Dispatcher) Dispatch(ctx context.Context, c entities.AlertCandidate, dest Destination) entities.DeliveryResult {
	content := render(c, d.now())
	if content == "" {
		d.log.Infow("no template output, skipping", "type", c.Type, "row_id", c.RowID)
		return entities.DeliveryResult{Success: true}
	}

	d.window.reserve()

	res, err := d.sender.Send(ctx, dest.Stream, dest.Topic, content)
	if err != nil {
		d.log.Errorw("notification send failed",
			"type", c.Type, "row_id", c.RowID, "service", c.Service, "error", err)
		return entities.DeliveryResult{Success: false, Message: err.Error()}
	}
	if !res.Success {
		d.log.Errorw("notification rejected",
			"type", c.Type, "row_id", c.RowID, "service", c.Service, "reason", res.Message)
		return res
	}

	d.log.Infow("notification sent", "type", c.Type, "row_id", c.RowID, "squad", c.Squad, "zone", c.Zone)
	return res
}
