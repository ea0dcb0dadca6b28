package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/spf13/cobra"
)

// LinkCreateOptions holds flags for link create.
type LinkCreateOptions struct {
	*RootOptions
	Organization string
	Price        string
	Deadline     string
	Coupons      int
	CreatedBy    string
}

type linkOutput struct {
	ID               string   `json:"id"`
	OrganizationName string   `json:"organization_name"`
	PricePerItem     string   `json:"price_per_item"`
	PricePerItemKobo int64    `json:"price_per_item_kobo"`
	PaymentDeadline  string   `json:"payment_deadline"`
	Coupons          []string `json:"coupons"`
}

func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage bulk-order links",
	}
	cmd.AddCommand(newLinkCreateCommand(rootOpts))
	return cmd
}

func newLinkCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinkCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bulk-order link and its coupon batch",
		Long: `Create a bulk-order link for an organisation together with a batch of
single-use coupon codes.

The deadline is either RFC 3339 or a plain date, which means the end of
that day in UTC.

Example:
  ledgerctl link create --org "Lagos Tech Club" --price 15000 --deadline 2026-04-30
  ledgerctl link create --org "Unilag Alumni" --price 12500.50 --deadline 2026-04-30T18:00:00+01:00 --coupons 25`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createLink(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Organization, "org", "", "organisation name (required)")
	cmd.Flags().StringVar(&opts.Price, "price", "", "price per item in naira, e.g. 15000 or 12500.50 (required)")
	cmd.Flags().StringVar(&opts.Deadline, "deadline", "", "payment deadline (required)")
	cmd.Flags().IntVar(&opts.Coupons, "coupons", services.DefaultCouponCount, "number of coupon codes to issue")
	cmd.Flags().StringVar(&opts.CreatedBy, "created-by", "ledgerctl", "operator recorded on the link")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("deadline")

	return cmd
}

func createLink(opts *LinkCreateOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	price, err := domain.ParseNaira(opts.Price)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --price", err)
	}
	deadline, err := parseDeadline(opts.Deadline)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --deadline", err)
	}

	backend, err := opts.connect(cmd.Context(), f)
	if err != nil {
		return err
	}
	defer backend.Close()

	link, coupons, err := backend.Catalog.CreateLink(cmd.Context(), services.CreateLinkCommand{
		OrganizationName: opts.Organization,
		PricePerItem:     price,
		PaymentDeadline:  deadline,
		CreatedBy:        opts.CreatedBy,
		Coupons:          opts.Coupons,
	})
	if err != nil {
		return reportError(f, "link create", err)
	}

	out := linkOutput{
		ID:               link.ID.String(),
		OrganizationName: link.OrganizationName,
		PricePerItem:     link.PricePerItem.String(),
		PricePerItemKobo: int64(link.PricePerItem),
		PaymentDeadline:  link.PaymentDeadline.Format(time.RFC3339),
		Coupons:          make([]string, 0, len(coupons)),
	}
	for _, c := range coupons {
		out.Coupons = append(out.Coupons, c.Code)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "✓ Created link %s\n", out.ID)
	fmt.Fprintf(&text, "  Organisation: %s\n", out.OrganizationName)
	fmt.Fprintf(&text, "  Price:        NGN %s\n", out.PricePerItem)
	fmt.Fprintf(&text, "  Deadline:     %s\n", out.PaymentDeadline)
	fmt.Fprintf(&text, "  Coupons (%d):", len(out.Coupons))
	for _, code := range out.Coupons {
		fmt.Fprintf(&text, "\n    %s", code)
	}
	return f.Success(out, text.String())
}

func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return day.Add(24*time.Hour - time.Second), nil
}
