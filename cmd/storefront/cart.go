package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

func cartCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "show and change the cart",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the cart",
				Action: func(c *cli.Context) error {
					printCart(c.App.Writer, a.carts.Refresh(c.Context))
					return nil
				},
			},
			{
				Name:      "add",
				Usage:     "add a product",
				ArgsUsage: "<product-id> [quantity]",
				Action: func(c *cli.Context) error {
					productID, err := productArg(c)
					if err != nil {
						return err
					}
					qty := 1
					if c.NArg() > 1 {
						if qty, err = strconv.Atoi(c.Args().Get(1)); err != nil {
							return fmt.Errorf("quantity: %w", err)
						}
					}
					a.carts.Refresh(c.Context)
					view, err := a.carts.AddItem(c.Context, productID, qty)
					if err != nil {
						return err
					}
					printCart(c.App.Writer, view)
					return nil
				},
			},
			{
				Name:      "update",
				Usage:     "set the quantity of a line (0 removes it)",
				ArgsUsage: "<product-id> <quantity>",
				Action: func(c *cli.Context) error {
					productID, err := productArg(c)
					if err != nil {
						return err
					}
					qty, err := strconv.Atoi(c.Args().Get(1))
					if err != nil {
						return fmt.Errorf("quantity: %w", err)
					}
					a.carts.Refresh(c.Context)
					view, err := a.carts.UpdateQuantity(c.Context, productID, qty)
					if err != nil {
						return err
					}
					printCart(c.App.Writer, view)
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a line",
				ArgsUsage: "<product-id>",
				Action: func(c *cli.Context) error {
					productID, err := productArg(c)
					if err != nil {
						return err
					}
					a.carts.Refresh(c.Context)
					view, err := a.carts.RemoveItem(c.Context, productID)
					if err != nil {
						return err
					}
					printCart(c.App.Writer, view)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "empty the cart",
				Action: func(c *cli.Context) error {
					a.carts.Refresh(c.Context)
					view, err := a.carts.Clear(c.Context)
					if err != nil {
						return err
					}
					printCart(c.App.Writer, view)
					return nil
				},
			},
		},
	}
}

func productArg(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("product id is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", c.Args().First())
	}
	return id, nil
}

func printCart(w io.Writer, view domain.CartView) {
	if view.IsEmpty() {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tPRICE\tQTY\tTOTAL")
	for _, line := range view.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", line.ProductID, line.Name, line.Price, line.Quantity, line.Total())
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d item(s), subtotal %s\n", view.ItemCount, view.Subtotal)
}
