package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/RohitVelivela/vijaybrothers/internal/checkout"
	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/paymentflow"
	"github.com/RohitVelivela/vijaybrothers/internal/review"
)

func checkoutCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "checkout",
		Usage: "pay for the current cart",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "phone", Required: true},
			&cli.StringFlag{Name: "line1", Required: true},
			&cli.StringFlag{Name: "line2"},
			&cli.StringFlag{Name: "city", Required: true},
			&cli.StringFlag{Name: "state", Required: true},
			&cli.StringFlag{Name: "zip", Required: true},
			&cli.StringFlag{Name: "landmark"},
			&cli.StringFlag{Name: "shipping", Value: string(domain.ShippingStandard), Usage: "standard or express"},
			&cli.StringFlag{Name: "method", Value: string(domain.PaymentUPI), Usage: "card, upi, netbanking or wallet"},
		},
		Action: func(c *cli.Context) error {
			journal, err := review.Open(a.cfg.ReviewJournalPath)
			if err != nil {
				return err
			}
			defer journal.Close()

			in := bufio.NewReader(os.Stdin)
			out := c.App.Writer
			adapter := paymentflow.NewAdapter(a.api, paymentflow.NewTerminalWidget(in, out), journal,
				paymentflow.Timeouts{Create: a.cfg.PaymentCreateTimeout, Verify: a.cfg.PaymentVerifyTimeout}, a.log)
			machine := checkout.NewMachine(a.carts, a.api, adapter, checkout.NewFinalizer(a.carts, a.log), a.log)

			if err := machine.ProceedToAddress(c.Context); err != nil {
				return err
			}
			printCart(out, a.carts.Cart())

			customer := domain.Customer{Name: c.String("name"), Email: c.String("email"), Phone: c.String("phone")}
			address := domain.Address{
				Line1:    c.String("line1"),
				Line2:    c.String("line2"),
				City:     c.String("city"),
				State:    c.String("state"),
				Zip:      c.String("zip"),
				Landmark: c.String("landmark"),
			}
			if err := machine.SubmitAddress(customer, address); err != nil {
				return err
			}

			cfg, err := machine.SelectOptions(c.Context, domain.ShippingMethod(c.String("shipping")), domain.PaymentMethod(c.String("method")))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\nGrand total %s\n", cfg.Message, a.carts.Cart().GrandTotal(cfg))

			for {
				order, err := machine.Pay(c.Context)
				if err == nil {
					fmt.Fprintf(out, "Payment received. Order %s is %s.\n", order.OrderNumber, order.Status)
					return nil
				}

				var (
					failed *checkout.PaymentFailedError
					verr   *checkout.VerificationError
				)
				switch {
				case errors.Is(err, checkout.ErrPaymentDismissed):
					fmt.Fprintln(out, "Payment window closed.")
				case errors.As(err, &failed):
					fmt.Fprintf(out, "Payment failed: %s\n", failed.Reason)
				case errors.As(err, &verr):
					fmt.Fprintf(out, "We could not confirm payment %s. It has been recorded for review; please do not pay again.\n", verr.PaymentID)
					return err
				default:
					return err
				}

				if !confirm(in, out, "Try again?") {
					return err
				}
				if machine.State() == checkout.StateFailed {
					if err := machine.Retry(); err != nil {
						return err
					}
				}
			}
		},
	}
}

func confirm(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
