package paymentflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

// TerminalWidget stands in for the hosted checkout in a terminal. It prints the
// gateway order and reads the callback the real widget would deliver:
//
//	paid <razorpay_payment_id> <razorpay_signature>
//	fail <code> <reason...>
//	dismiss
type TerminalWidget struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalWidget reads from in. Pass the same *bufio.Reader the rest of the
// program reads from so no input is lost between prompts.
func NewTerminalWidget(in io.Reader, out io.Writer) *TerminalWidget {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &TerminalWidget{in: br, out: out}
}

func (w *TerminalWidget) Open(ctx context.Context, opts WidgetOptions) (Outcome, error) {
	fmt.Fprintf(w.out, "Razorpay checkout (key %s)\n", opts.KeyID)
	fmt.Fprintf(w.out, "  order:   %s\n", opts.Order.RazorpayOrderID)
	fmt.Fprintf(w.out, "  amount:  %s %s\n", opts.Order.Amount, opts.Order.Currency)
	if opts.Prefill.Method != "" {
		fmt.Fprintf(w.out, "  method:  %s\n", opts.Prefill.Method)
	}
	fmt.Fprintln(w.out, "Enter: paid <payment_id> <signature> | fail <code> <reason> | dismiss")

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := w.in.ReadString('\n')
		if err != nil && line == "" {
			errs <- err
			return
		}
		lines <- line
	}()

	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case err := <-errs:
		if err == io.EOF {
			return Outcome{Kind: OutcomeDismissed}, nil
		}
		return Outcome{}, err
	case line := <-lines:
		return parseOutcome(line, opts.Order.RazorpayOrderID)
	}
}

func parseOutcome(line, gatewayOrderID string) (Outcome, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Outcome{Kind: OutcomeDismissed}, nil
	}
	switch strings.ToLower(fields[0]) {
	case "paid":
		if len(fields) != 3 {
			return Outcome{}, fmt.Errorf("paid needs a payment id and a signature")
		}
		return Outcome{
			Kind: OutcomeSuccess,
			Verification: domain.PaymentVerification{
				PaymentID:       fields[1],
				RazorpayOrderID: gatewayOrderID,
				Signature:       fields[2],
			},
		}, nil
	case "fail":
		out := Outcome{Kind: OutcomeFailed}
		if len(fields) > 1 {
			out.FailureCode = fields[1]
		}
		if len(fields) > 2 {
			out.FailureReason = strings.Join(fields[2:], " ")
		}
		return out, nil
	case "dismiss", "cancel", "close":
		return Outcome{Kind: OutcomeDismissed}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown widget response %q", fields[0])
	}
}
