package cli

import (
	"fmt"

	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/spf13/cobra"
)

type OrderCreateOptions struct {
	*RootOptions
	Email string
	Name  string
	Phone string
	Total string
}

type orderOutput struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Email     string `json:"email"`
	Total     string `json:"total"`
	TotalKobo int64  `json:"total_kobo"`
}

func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage simple orders",
	}
	cmd.AddCommand(newOrderCreateCommand(rootOpts))
	return cmd
}

func newOrderCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an unpaid simple order",
		Long: `Create an unpaid simple order that a payment can later settle.

Example:
  ledgerctl order create --email bola@example.com --name "Bola Ade" --total 7000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createOrder(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "customer email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "customer full name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&opts.Total, "total", "", "order total in naira (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("total")

	return cmd
}

func createOrder(opts *OrderCreateOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	total, err := domain.ParseNaira(opts.Total)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --total", err)
	}

	backend, err := opts.connect(cmd.Context(), f)
	if err != nil {
		return err
	}
	defer backend.Close()

	order, err := backend.Catalog.CreateOrder(cmd.Context(), services.CreateOrderCommand{
		Email:    opts.Email,
		FullName: opts.Name,
		Phone:    opts.Phone,
		Total:    total,
	})
	if err != nil {
		return reportError(f, "order create", err)
	}

	out := orderOutput{
		ID:        order.ID.String(),
		Reference: order.Reference,
		Email:     order.Email,
		Total:     order.Total.String(),
		TotalKobo: int64(order.Total),
	}
	text := fmt.Sprintf("✓ Created order %s (%s) for %s, NGN %s", out.Reference, out.ID, out.Email, out.Total)
	return f.Success(out, text)
}
