package adapter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"perpgate/src/model"
)

// attachmentPlacer places one reduce-only protective order and returns
// the venue order id.
type attachmentPlacer func(ctx context.Context, kind string, triggerPrice decimal.Decimal) (string, error)

const attachmentTimeout = 15 * time.Second

// attachProtectiveOrders fires the take-profit / stop-loss placements
// for a parent order the venue just accepted. The work is detached
// from the caller's context so PlaceOrder returns without waiting on
// it. Each placement gets exactly one attempt; failures are logged and
// reported on the channel, never raised. The channel is closed once
// every attempt has been reported. Returns nil when the request
// carries no attachments.
func attachProtectiveOrders(exchange string, parent *model.OrderResult, req *model.OrderRequest, place attachmentPlacer) <-chan model.AttachmentOutcome {
	type job struct {
		kind    string
		trigger decimal.Decimal
	}
	var jobs []job
	if req.TakeProfit != nil {
		jobs = append(jobs, job{"take_profit", *req.TakeProfit})
	}
	if req.StopLoss != nil {
		jobs = append(jobs, job{"stop_loss", *req.StopLoss})
	}
	if len(jobs) == 0 {
		return nil
	}

	out := make(chan model.AttachmentOutcome, len(jobs))
	go func() {
		defer close(out)
		ctx, cancel := context.WithTimeout(context.Background(), attachmentTimeout)
		defer cancel()

		for _, j := range jobs {
			orderID, err := place(ctx, j.kind, j.trigger)
			if err != nil {
				logger.WithFields(logger.Fields{
					"exchange":        exchange,
					"parent_order_id": parent.OrderID,
					"kind":            j.kind,
					"trigger":         j.trigger.String(),
				}).WithError(err).Error("Protective order placement failed")
			} else {
				logger.WithFields(logger.Fields{
					"exchange":        exchange,
					"parent_order_id": parent.OrderID,
					"kind":            j.kind,
					"order_id":        orderID,
				}).Info("Protective order placed")
			}
			out <- model.AttachmentOutcome{Kind: j.kind, OrderID: orderID, Err: err}
		}
	}()
	return out
}
