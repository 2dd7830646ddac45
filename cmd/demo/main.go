// cmd/demo/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	app "minivenmo/internal"
	"minivenmo/internal/domain"
	"minivenmo/internal/service"
)

// run performs the demo scenario: two seeded users, one payment per routing
// path, a rendered feed and a one-way friendship.
func run(ctx context.Context, application *app.Application) error {
	svc := application.VenmoService

	bobby, err := svc.CreateUser(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111")
	if err != nil {
		return err
	}
	carol, err := svc.CreateUser(ctx, "Carol", decimal.NewFromFloat(10.00), "4242424242424242")
	if err != nil {
		return err
	}

	if _, err := svc.Pay(ctx, bobby.ID, carol.ID, decimal.NewFromFloat(5.00), "Coffee"); err != nil {
		if pe := (*domain.PaymentError)(nil); errors.As(err, &pe) {
			fmt.Println(pe.Reason)
		} else {
			return err
		}
	}
	if _, err := svc.Pay(ctx, carol.ID, bobby.ID, decimal.NewFromFloat(15.00), "Lunch"); err != nil {
		if pe := (*domain.PaymentError)(nil); errors.As(err, &pe) {
			fmt.Println(pe.Reason)
		} else {
			return err
		}
	}

	feed, _, err := svc.GetFeed(ctx, bobby.ID, 0, 0)
	if err != nil {
		return err
	}
	service.RenderFeed(os.Stdout, feed)

	return svc.AddFriend(ctx, bobby.ID, carol.ID)
}

func main() {
	ctx := context.Background()

	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, application); err != nil {
		application.Logger.Error("Demo failed", "error", err)
		os.Exit(1)
	}
}
