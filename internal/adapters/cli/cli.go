package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stock-ledger/internal/app"
	"stock-ledger/internal/core"

	"github.com/shopspring/decimal"
)

const usage = `Usage: app <command> [args]

  stock     <product-id>                        per-location stock, on hand and on order
  onorder   <product-id>                        on-order level from the ledger
  lowstock  [location]                          records below their minimum
  adjust    <product-id> <delta> [location] [reference]
  transfer  <product-id> <from> <to> <qty> [reference]
  tx        [product-id]                        recent ledger transactions
  docs      [status]                            active purchase documents
  doc       <document-id>                       one document with its items
  convert   <document-id>                       QUOTED -> PO_ISSUED
  receive   <document-id> [location]            PO_ISSUED -> RECEIVED
  close     <document-id>                       RECEIVED -> CLOSED
  preferred <product-id>                        preferred vendor
  path      <category-id>                       category path`

// ErrUsage is returned when the command line is malformed.
var ErrUsage = errors.New("usage error")

// Run executes a one-shot CLI command and writes its output to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "stock", "st":
		id, err := intArg(rest, 0, "product-id")
		if err != nil {
			return err
		}
		result, err := svc.GetProductStock(ctx, id)
		if err != nil {
			return err
		}
		printStock(out, result)

	case "onorder", "oo":
		id, err := intArg(rest, 0, "product-id")
		if err != nil {
			return err
		}
		result, err := svc.GetProductStock(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Product %d on order: %s\n", id, result.OnOrder.String())

	case "lowstock", "low":
		filter := core.LowStockFilter{}
		if len(rest) > 0 {
			filter.Location = rest[0]
		}
		result, err := svc.CheckLowStock(ctx, filter)
		if err != nil {
			return err
		}
		printLowStock(out, result)

	case "adjust", "adj":
		id, err := intArg(rest, 0, "product-id")
		if err != nil {
			return err
		}
		delta, err := decimalArg(rest, 1, "delta")
		if err != nil {
			return err
		}
		rec, err := svc.AdjustInventory(ctx, app.AdjustInventoryRequest{
			ProductID: id,
			Delta:     delta,
			Location:  optArg(rest, 2),
			Reference: optArg(rest, 3),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Product %d at %s: %s on hand\n", rec.ProductID, rec.Location, rec.Quantity.String())

	case "transfer", "xfer":
		id, err := intArg(rest, 0, "product-id")
		if err != nil {
			return err
		}
		if len(rest) < 4 {
			return fmt.Errorf("%w: transfer <product-id> <from> <to> <qty> [reference]", ErrUsage)
		}
		qty, err := decimalArg(rest, 3, "qty")
		if err != nil {
			return err
		}
		res, err := svc.TransferInventory(ctx, app.TransferRequest{
			ProductID: id,
			From:      rest[1],
			To:        rest[2],
			Quantity:  qty,
			Reference: optArg(rest, 4),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Moved %s of product %d: %s now %s, %s now %s\n",
			qty.String(), id,
			res.From.Location, res.From.Quantity.String(),
			res.To.Location, res.To.Quantity.String())

	case "tx", "transactions":
		filter := core.TransactionFilter{Limit: 50}
		if len(rest) > 0 {
			id, err := intArg(rest, 0, "product-id")
			if err != nil {
				return err
			}
			filter.ProductID = &id
		}
		result, err := svc.ListTransactions(ctx, filter)
		if err != nil {
			return err
		}
		printTransactions(out, result)

	case "docs":
		result, err := svc.ListDocuments(ctx, app.DocumentListRequest{Status: optArg(rest, 0)})
		if err != nil {
			return err
		}
		printDocuments(out, result)

	case "doc":
		id, err := intArg(rest, 0, "document-id")
		if err != nil {
			return err
		}
		result, err := svc.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		printDocument(out, result.Document)

	case "convert":
		return documentAction(out, rest, func(id int) (*app.DocumentResult, error) {
			return svc.ConvertToPO(ctx, id)
		})

	case "receive":
		return documentAction(out, rest, func(id int) (*app.DocumentResult, error) {
			return svc.MarkReceived(ctx, id, app.ReceiveRequest{Location: optArg(rest, 1)})
		})

	case "close":
		return documentAction(out, rest, func(id int) (*app.DocumentResult, error) {
			return svc.CloseDocument(ctx, id)
		})

	case "preferred", "pref":
		id, err := intArg(rest, 0, "product-id")
		if err != nil {
			return err
		}
		result, err := svc.PreferredVendor(ctx, id)
		if err != nil {
			return err
		}
		if result.Link == nil {
			fmt.Fprintf(out, "Product %d has no linked vendors.\n", id)
			return nil
		}
		l := result.Link
		fmt.Fprintf(out, "Preferred vendor for product %d: %s (account %d), price %s, lead time %s\n",
			id, l.VendorName, l.VendorID, decimalOrDash(l.LastPrice), daysOrDash(l.LeadTimeDays))

	case "path":
		id, err := intArg(rest, 0, "category-id")
		if err != nil {
			return err
		}
		result, err := svc.CategoryPath(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result.Path)

	default:
		fmt.Fprintln(out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	return nil
}

func documentAction(out io.Writer, rest []string, fn func(id int) (*app.DocumentResult, error)) error {
	id, err := intArg(rest, 0, "document-id")
	if err != nil {
		return err
	}
	result, err := fn(id)
	if err != nil {
		return err
	}
	d := result.Document
	fmt.Fprintf(out, "%s is now %s\n", d.DocumentNumber, d.Status)
	return nil
}

func intArg(args []string, i int, name string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: missing <%s>", ErrUsage, name)
	}
	v, err := strconv.Atoi(args[i])
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: <%s> must be a positive integer, got %q", ErrUsage, name, args[i])
	}
	return v, nil
}

func decimalArg(args []string, i int, name string) (decimal.Decimal, error) {
	if len(args) <= i {
		return decimal.Zero, fmt.Errorf("%w: missing <%s>", ErrUsage, name)
	}
	d, err := decimal.NewFromString(args[i])
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: <%s> must be a number, got %q", ErrUsage, name, args[i])
	}
	return d, nil
}

func optArg(args []string, i int) string {
	if len(args) <= i {
		return ""
	}
	return args[i]
}

func decimalOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func daysOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n) + "d"
}

func printStock(out io.Writer, r *app.ProductStockResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 56))
	fmt.Fprintf(out, "  PRODUCT %d STOCK\n", r.ProductID)
	fmt.Fprintln(out, strings.Repeat("=", 56))
	fmt.Fprintf(out, "  %-16s %12s %12s %12s\n", "LOCATION", "QUANTITY", "MIN", "MAX")
	fmt.Fprintln(out, strings.Repeat("-", 56))
	for _, rec := range r.Records {
		fmt.Fprintf(out, "  %-16s %12s %12s %12s\n",
			rec.Location, rec.Quantity.String(), rec.MinStock.String(), decimalOrDash(rec.MaxStock))
	}
	fmt.Fprintln(out, strings.Repeat("-", 56))
	fmt.Fprintf(out, "  On hand  : %s across %d location(s)\n", r.OnHand.String(), r.Locations)
	fmt.Fprintf(out, "  On order : %s\n", r.OnOrder.String())
	fmt.Fprintln(out, strings.Repeat("=", 56))
}

func printLowStock(out io.Writer, r *app.LowStockResult) {
	if len(r.Alerts) == 0 {
		fmt.Fprintln(out, "No low-stock records.")
		return
	}
	fmt.Fprintf(out, "%-16s %-24s %-12s %12s %12s\n", "SKU", "NAME", "LOCATION", "QUANTITY", "MIN")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for _, a := range r.Alerts {
		fmt.Fprintf(out, "%-16s %-24s %-12s %12s %12s\n",
			a.SKU, a.ProductName, a.Location, a.Quantity.String(), a.MinStock.String())
	}
}

func printTransactions(out io.Writer, r *app.TransactionListResult) {
	fmt.Fprintf(out, "%-8s %-8s %-12s %-11s %12s  %s\n", "ID", "PRODUCT", "LOCATION", "TYPE", "CHANGE", "REFERENCE")
	fmt.Fprintln(out, strings.Repeat("-", 72))
	for _, t := range r.Transactions {
		loc := "-"
		if t.Location != nil {
			loc = *t.Location
		}
		fmt.Fprintf(out, "%-8d %-8d %-12s %-11s %12s  %s\n",
			t.ID, t.ProductID, loc, t.Type, t.QuantityChange.String(), t.Reference)
	}
}

func printDocuments(out io.Writer, r *app.DocumentListResult) {
	if len(r.Documents) == 0 {
		fmt.Fprintln(out, "No purchase documents.")
		return
	}
	fmt.Fprintf(out, "%-6s %-12s %-12s %-10s %-24s\n", "ID", "NUMBER", "RFQ", "STATUS", "VENDOR")
	fmt.Fprintln(out, strings.Repeat("-", 68))
	for _, d := range r.Documents {
		fmt.Fprintf(out, "%-6d %-12s %-12s %-10s %-24s\n", d.ID, d.DocumentNumber, d.RFQNumber, d.Status, d.VendorName)
	}
}

func printDocument(out io.Writer, d *core.PurchaseDocument) {
	fmt.Fprintf(out, "%s  (%s)  vendor %s\n", d.DocumentNumber, d.Status, d.VendorName)
	if d.RFQNumber != d.DocumentNumber {
		fmt.Fprintf(out, "Requested as %s\n", d.RFQNumber)
	}
	if d.Notes != nil {
		fmt.Fprintf(out, "Notes: %s\n", *d.Notes)
	}
	fmt.Fprintf(out, "%-4s %-30s %10s %10s %12s %10s\n", "#", "DESCRIPTION", "QTY", "PRICE", "TOTAL", "RECEIVED")
	fmt.Fprintln(out, strings.Repeat("-", 82))
	for _, it := range d.Items {
		fmt.Fprintf(out, "%-4d %-30s %10s %10s %12s %10s\n",
			it.LineNumber, it.Description, it.Quantity.String(),
			decimalOrDash(it.UnitPrice), decimalOrDash(it.TotalPrice), it.ReceivedQuantity.String())
	}
}
