package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"pos-ledger/internal/app"
	"pos-ledger/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "simulate", "sim":
		if len(args) < 3 {
			log.Fatal("Usage: app simulate <customer-id> <amount>")
		}
		customerID := parseID(args[1])
		result, err := svc.PreviewPayment(ctx, customerID, args[2])
		if err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}
		printAllocations("PAYMENT SIMULATION", customerID, result.Allocations)

	case "pay":
		if len(args) < 3 {
			log.Fatal("Usage: app pay <customer-id> <amount>")
		}
		customerID := parseID(args[1])
		result, err := svc.RecordPayment(ctx, app.RecordPaymentRequest{
			CustomerID: customerID,
			Amount:     args[2],
		})
		if err != nil {
			log.Fatalf("Payment failed: %v", err)
		}
		fmt.Printf("Payment %d recorded: %s\n", result.Payment.ID, result.Payment.Amount.StringFixed(2))
		printAllocations("PAYMENT APPLIED", customerID, result.Allocations)

	case "debtors", "debt":
		result, err := svc.ListDebtors(ctx)
		if err != nil {
			log.Fatalf("Failed to list debtors: %v", err)
		}
		fmt.Println()
		fmt.Println(strings.Repeat("=", 62))
		fmt.Printf("  %-6s %-38s %15s\n", "ID", "CUSTOMER", "DEBT")
		fmt.Println(strings.Repeat("-", 62))
		for _, c := range result.Customers {
			fmt.Printf("  %-6d %-38s %15s\n", c.ID, c.FullName, c.CurrentDebt.StringFixed(2))
		}
		fmt.Println(strings.Repeat("=", 62))

	case "verify", "ver":
		result, err := svc.VerifyDebts(ctx)
		if err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		if len(result.Mismatches) == 0 {
			fmt.Println("All customer debts balance against their sales.")
			return
		}
		for _, m := range result.Mismatches {
			fmt.Println(m.String())
		}
		log.Fatalf("%d customer(s) out of balance", len(result.Mismatches))

	default:
		log.Fatalf("Unknown command: %s\nAvailable: simulate, pay, debtors, verify", args[0])
	}
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("Invalid id %q", s)
	}
	return id
}

func printAllocations(title string, customerID int64, allocations []core.Allocation) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  %s (customer %d)\n", title, customerID)
	fmt.Println(strings.Repeat("=", 70))
	if len(allocations) == 0 {
		fmt.Println("  (no outstanding sales touched)")
		fmt.Println(strings.Repeat("=", 70))
		return
	}
	fmt.Printf("  %-8s %-12s %12s %12s %12s\n", "SALE", "DATE", "APPLIED", "BEFORE", "AFTER")
	fmt.Println(strings.Repeat("-", 70))
	for _, a := range allocations {
		fmt.Printf("  %-8d %-12s %12s %12s %12s\n",
			a.SaleID, a.SaleDate.Format("2006-01-02"),
			a.AmountApplied.StringFixed(2), a.PreviousDebt.StringFixed(2), a.NewDebt.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 70))
}
