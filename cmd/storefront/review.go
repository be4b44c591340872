package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/RohitVelivela/vijaybrothers/internal/review"
)

func reviewCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "payments whose verification needs a manual check",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list pending reviews",
				Action: func(c *cli.Context) error {
					journal, err := review.Open(a.cfg.ReviewJournalPath)
					if err != nil {
						return err
					}
					defer journal.Close()

					entries, err := journal.Pending(c.Context)
					if err != nil {
						return err
					}
					if len(entries) == 0 {
						fmt.Fprintln(c.App.Writer, "Nothing to review.")
						return nil
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tPAYMENT\tGATEWAY ORDER\tAMOUNT\tATTEMPTS\tREASON\tSINCE")
					for _, e := range entries {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
							e.ID, e.PaymentID, e.RazorpayOrderID, e.Amount, e.Attempts, e.Reason, e.CreatedAt.Local().Format("2006-01-02 15:04"))
					}
					return tw.Flush()
				},
			},
			{
				Name:      "resolve",
				Usage:     "close a review",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "note", Required: true, Usage: "what was found"},
				},
				Action: func(c *cli.Context) error {
					id, err := strconv.ParseInt(c.Args().First(), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid review id %q", c.Args().First())
					}
					journal, err := review.Open(a.cfg.ReviewJournalPath)
					if err != nil {
						return err
					}
					defer journal.Close()
					return journal.Resolve(c.Context, id, c.String("note"))
				},
			},
		},
	}
}
