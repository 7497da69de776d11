package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stock-ledger/internal/app"

	"github.com/shopspring/decimal"
)

// handleNewRFQ runs an interactive RFQ creation session.
func handleNewRFQ(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, vendorArg string) {
	vendorID, err := strconv.Atoi(vendorArg)
	if err != nil || vendorID <= 0 {
		fmt.Fprintf(out, "Invalid vendor id: %s\n", vendorArg)
		return
	}

	fmt.Fprintf(out, "Creating RFQ for vendor account %d\n", vendorID)
	fmt.Fprintln(out, "Enter item lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "Format per line: <product-id|-> <quantity> [unit-price] [description...]")
	fmt.Fprintln(out, "  Example: 12 10")
	fmt.Fprintln(out, "  Example: - 5 4.50 M8 hex bolts   (free-text line, quoted price)")
	fmt.Fprintln(out, "  Example: - 5 - M8 hex bolts      (free-text line, no price yet)")

	var items []app.AddItemRequest
	lineNum := 1
	for {
		fmt.Fprintf(out, "  Line %d: ", lineNum)
		raw, readErr := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(out, "RFQ creation cancelled.")
			return
		}
		if strings.EqualFold(raw, "done") || (raw == "" && readErr != nil) {
			break
		}
		if raw == "" {
			continue
		}

		item, ok := parseItemLine(out, raw)
		if !ok {
			continue
		}
		items = append(items, item)
		lineNum++
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No lines entered. RFQ not created.")
		return
	}

	fmt.Fprint(out, "Notes (optional): ")
	notes, _ := reader.ReadString('\n')

	result, err := svc.CreateRFQ(ctx, app.CreateRFQRequest{
		VendorID: vendorID,
		Notes:    strings.TrimSpace(notes),
		Items:    items,
	})
	if err != nil {
		printError(out, err)
		return
	}

	d := result.Document
	fmt.Fprintf(out, "\n%s created (ID: %d, Status: %s, %d item(s))\n", d.DocumentNumber, d.ID, d.Status, len(d.Items))
	fmt.Fprintf(out, "Use '/doc %d' to review it.\n", d.ID)
}

func parseItemLine(out io.Writer, raw string) (app.AddItemRequest, bool) {
	parts := strings.Fields(raw)
	if len(parts) < 2 {
		fmt.Fprintln(out, "  Invalid format. Use: <product-id|-> <quantity> [unit-price] [description...]")
		return app.AddItemRequest{}, false
	}

	var item app.AddItemRequest
	if parts[0] != "-" {
		id, err := strconv.Atoi(parts[0])
		if err != nil || id <= 0 {
			fmt.Fprintln(out, "  Invalid product id.")
			return app.AddItemRequest{}, false
		}
		item.ProductID = &id
	}

	qty, err := decimal.NewFromString(parts[1])
	if err != nil || !qty.IsPositive() {
		fmt.Fprintln(out, "  Invalid quantity.")
		return app.AddItemRequest{}, false
	}
	item.Quantity = qty

	if len(parts) >= 3 && parts[2] != "-" {
		price, err := decimal.NewFromString(parts[2])
		if err != nil || price.IsNegative() {
			fmt.Fprintln(out, "  Invalid price.")
			return app.AddItemRequest{}, false
		}
		item.UnitPrice = &price
	}
	if len(parts) >= 4 {
		item.Description = strings.Join(parts[3:], " ")
	}
	if item.ProductID == nil && item.Description == "" {
		fmt.Fprintln(out, "  Free-text lines need a description.")
		return app.AddItemRequest{}, false
	}
	return item, true
}
