package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/gleejeyly/storefront/internal/domain"
)

func newOrdersCmd(sess *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Place and list orders",
	}
	cmd.AddCommand(newOrdersListCmd(sess), newOrdersSubmitCmd(sess))
	return cmd
}

func newOrdersListCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := sess.adapter.ListOrders(cmd.Context())
			if err != nil {
				return err
			}
			if orders == nil {
				orders = []domain.Order{}
			}
			return writeJSON(cmd.OutOrStdout(), orders)
		},
	}
}

func newOrdersSubmitCmd(sess *session) *cobra.Command {
	var o domain.Order

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Place a cheesecake order",
		Long: fmt.Sprintf("Place an order for %s at ₱%s each. Orders need %d days lead time.",
			domain.ProductName, domain.FormatPesos(domain.Pesos(domain.UnitPriceCentavos)), domain.MinLeadDays),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if o.PickupDate == "" {
				o.PickupDate = domain.MinPickupDate(now).Format(time.DateOnly)
			}
			if domain.PickupBeforeFloor(o.PickupDate, now) {
				sess.log.WarnContext(cmd.Context(), "pickup date is earlier than the usual lead time",
					slog.String("pickup_date", o.PickupDate),
					slog.Int("lead_days", domain.MinLeadDays),
				)
			}

			receipt, err := sess.adapter.SubmitOrder(cmd.Context(), o)
			if err != nil {
				return formFailure(cmd.ErrOrStderr(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %d received.\n\n%s\n\n", receipt.Order.ID, domain.OrderSummary(receipt.Order))
			fmt.Fprintf(out, "Confirm with the shop: %s\n", receipt.MessengerLink)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.FullName, "full-name", "", "full name")
	f.StringVar(&o.PhoneNumber, "phone", "", "phone number")
	f.StringVar(&o.Facebook, "facebook", "", "Facebook account name")
	f.StringVar(&o.PickupDate, "pickup-date", "", "pickup date, YYYY-MM-DD (default: earliest available)")
	f.IntVar(&o.Quantity, "quantity", 1, "number of pieces")
	return cmd
}
