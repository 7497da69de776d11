package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Document number prefixes and the zero-padded width of the numeric suffix.
const (
	RFQNumberPrefix     = "RFQ-"
	PONumberPrefix      = "PO-"
	documentNumberWidth = 6
)

// allocateDocumentNumberTx returns the next number for prefix. It scans every
// purchase document, including soft-deleted ones, so numbers are never reused.
// The advisory lock is held until tx ends, which serialises concurrent
// allocations and makes the scan see every previously committed number.
func allocateDocumentNumberTx(ctx context.Context, tx pgx.Tx, prefix string) (string, error) {
	if err := advisoryXactLock(ctx, tx, documentNumberLockKey); err != nil {
		return "", err
	}

	rows, err := tx.Query(ctx, `
		SELECT document_number FROM purchase_documents WHERE document_number LIKE $1 || '%'
		UNION ALL
		SELECT rfq_number FROM purchase_documents WHERE rfq_number LIKE $1 || '%'
	`, prefix)
	if err != nil {
		return "", storageErr("scan document numbers", err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return "", storageErr("scan document number", err)
		}
		existing = append(existing, n)
	}
	if err := rows.Err(); err != nil {
		return "", storageErr("iterate document numbers", err)
	}

	return nextDocumentNumber(prefix, existing), nil
}

// nextDocumentNumber takes the highest numeric suffix among existing numbers
// that carry prefix and returns prefix + (max+1), zero-padded.
func nextDocumentNumber(prefix string, existing []string) string {
	var highest int64
	for _, n := range existing {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimPrefix(n, prefix), 10, 64)
		if err != nil || v < 0 {
			continue
		}
		if v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, documentNumberWidth, highest+1)
}
