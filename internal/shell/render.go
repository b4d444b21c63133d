package shell

import (
	"fmt"
	"io"
	"text/tabwriter"

	"powerbill/internal/core"
	"powerbill/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// writeBills prints bills with their due notice, one row per bill.
func writeBills(w io.Writer, bills []core.Bill, today core.Date) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tVendor Name\tAmount\tDue Date\tStatus\tElectricity Type\tNotice")
	for _, b := range bills {
		due := b.DueDate.String()
		if due == "" {
			due = "N/A"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Vendor, core.FormatAmount(b.Amount), due, b.Status, b.Category,
			services.DueNoticeFor(b, today))
	}
	tw.Flush()
}

func writeTransactions(w io.Writer, txs []core.Transaction) {
	tw := newTable(w)
	fmt.Fprintln(tw, "Bill ID\tVendor Name\tAmount\tKind\tDate")
	for _, t := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			t.BillID, t.Vendor, core.FormatAmount(t.Amount), t.Kind, t.Timestamp.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}
