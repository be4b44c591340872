package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

func orderCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "order",
		Usage:     "show an order",
		ArgsUsage: "<order-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("order id is required")
			}
			order, err := a.api.GetOrder(c.Context, c.Args().First())
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Order %s (%s)\n", order.OrderNumber, order.OrderID)
			fmt.Fprintf(w, "Status %s, payment %s\n", order.Status, order.PaymentStatus)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			for _, item := range order.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\tx%d\n", item.ProductID, item.Name, item.Price, item.Quantity)
			}
			_ = tw.Flush()
			fmt.Fprintf(w, "Subtotal %s, shipping %s, total %s\n",
				order.Totals.Subtotal, order.Totals.Shipping, order.Totals.GrandTotal)
			return nil
		},
	}
}
