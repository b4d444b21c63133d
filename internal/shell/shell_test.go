package shell

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"powerbill/internal/auth"
	"powerbill/internal/clock"
	"powerbill/internal/core"
	"powerbill/internal/log"
	"powerbill/internal/services"
	"powerbill/internal/storage/memory"
	"powerbill/internal/tariff"
)

const testPassword = "s3cret"

var day0 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	billing *services.BillingService
	clock   *clock.Manual
	auth    *auth.Authenticator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a, err := auth.NewAuthenticator(string(hash))
	if err != nil {
		t.Fatalf("authenticator: %v", err)
	}
	clk := clock.NewManual(day0)
	return &fixture{
		billing: services.NewBillingService(memory.New(), clk, nil),
		clock:   clk,
		auth:    a,
	}
}

func (f *fixture) run(t *testing.T, input string, opts Options) string {
	t.Helper()
	var out bytes.Buffer
	opts.In = strings.NewReader(input)
	opts.Out = &out
	if opts.Logger == nil {
		opts.Logger = log.NewText(io.Discard, 0, log.ComponentShell)
	}

	sh := New(f.billing, tariff.Default(), f.auth, opts)
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v\noutput:\n%s", err, out.String())
	}
	return out.String()
}

func (f *fixture) bills(t *testing.T) []core.Bill {
	t.Helper()
	bills, err := f.billing.ListBills(context.Background(), false)
	if err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	return bills
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\noutput:\n%s", w, out)
		}
	}
}

func TestShell_ExitAndClosedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exit", "3\n", "Exiting the program."},
		{"closed input", "", "Select your Login:"},
		{"closed inside menu", "1\n", "General User Menu"},
		{"invalid choices", "x\n9\n3\n", "Invalid choice. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			assertContains(t, f.run(t, tt.input, Options{}), tt.want)
		})
	}
}

func TestShell_CalculateDomesticBill(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "1\n1\n1\n101\n4\n3\n", Options{})
	assertContains(t, out, "Total bill = RS.585.80", "Bill #1 added, due 2026-03-11.")

	bills := f.bills(t)
	if len(bills) != 1 {
		t.Fatalf("got %d bills, want 1", len(bills))
	}
	b := bills[0]
	if b.Vendor != ElectricityVendor || b.Category != core.Domestic || b.Status != core.StatusUnpaid {
		t.Errorf("bill = %+v", b)
	}
	if !b.Amount.Equal(decimal.RequireFromString("585.80")) {
		t.Errorf("amount = %s", b.Amount)
	}
}

func TestShell_CalculateCommercialBill(t *testing.T) {
	tests := []struct {
		name  string
		units string
		rand  func(int) int
		want  []string
		total string
	}{
		{
			name:  "entered units",
			units: "3\n100 50 120\n",
			want: []string{
				"Total bill = RS.1809.00",
				"Person 1: 100 units, RS.670.00",
				"Person 3 used the most units: 120 units",
				"Person 2 used the least units: 50 units",
			},
			total: "1809.00",
		},
		{
			name:  "random demo usage",
			units: "2\n\n",
			rand:  func(n int) int { return n - 1 },
			want:  []string{"Person 2: 150 units, RS.1005.00", "Total bill = RS.2010.00"},
			total: "2010.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			out := f.run(t, "1\n1\n2\n"+tt.units+"4\n3\n", Options{RandUnits: tt.rand})
			assertContains(t, out, tt.want...)

			bills := f.bills(t)
			if len(bills) != 1 || bills[0].Category != core.Commercial {
				t.Fatalf("bills = %+v", bills)
			}
			if got := core.FormatAmount(bills[0].Amount); got != tt.total {
				t.Errorf("amount = %s, want %s", got, tt.total)
			}
		})
	}
}

func TestShell_CommercialRosterMismatch(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "1\n1\n2\n3\n10 20\n4\n3\n", Options{})
	assertContains(t, out, "Invalid input. Please try again.")
	if n := len(f.bills(t)); n != 0 {
		t.Errorf("created %d bills", n)
	}
}

func TestShell_Deposit(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "1\n2\n2\n500\n2\n1\n0\n4\n3\n", Options{})
	assertContains(t, out,
		"Unpaid Bills:",
		"No bills found.",
		"Deposit of RS.500.00 successful.",
		"Deposit amount must be greater than zero.",
	)

	bills := f.bills(t)
	if len(bills) != 1 {
		t.Fatalf("got %d bills, want 1", len(bills))
	}
	if b := bills[0]; !b.IsDeposit() || b.Status != core.StatusPaid || b.Category != core.Commercial || !b.DueDate.IsEmpty() {
		t.Errorf("deposit = %+v", b)
	}
}

func TestShell_Notifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.billing.CreateBill(ctx, "Acme", decimal.NewFromInt(1000), core.StatusUnpaid, core.Domestic); err != nil {
		t.Fatal(err)
	}
	if _, err := f.billing.CreateBill(ctx, "Water", decimal.NewFromInt(80), core.StatusPaid, core.Domestic); err != nil {
		t.Fatal(err)
	}
	f.clock.AdvanceDays(12)

	out := f.run(t, "1\n3\n4\n3\n", Options{})
	assertContains(t, out, "Notifications", "Acme", "Overdue by 2 days")
	if strings.Contains(out, "Water") {
		t.Errorf("paid bill listed in notifications:\n%s", out)
	}
}

func TestShell_AdminLoginRejected(t *testing.T) {
	f := newFixture(t)
	calls := 0
	read := func() (string, error) {
		calls++
		return "wrong", nil
	}

	out := f.run(t, "2\n3\n", Options{ReadPassword: read})
	assertContains(t, out, "Incorrect password. Exiting Admin Login.")
	if strings.Contains(out, "Admin Menu") {
		t.Error("admin menu shown after wrong password")
	}
	if calls != 1 {
		t.Errorf("password read %d times, want 1", calls)
	}
}

func TestShell_SessionsCarryRole(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	opts := Options{Logger: log.NewText(&logs, 0, log.ComponentShell)}

	f.run(t, "1\n4\n2\n"+testPassword+"\n5\n3\n", opts)

	var started []string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Session started") {
			started = append(started, line)
		}
	}
	if len(started) != 2 {
		t.Fatalf("got %d session records, want 2\nlogs:\n%s", len(started), logs.String())
	}
	for i, want := range []auth.Role{auth.RoleGeneral, auth.RoleAdmin} {
		if !strings.Contains(started[i], "role="+string(want)) {
			t.Errorf("session %d record = %q, want role=%s", i, started[i], want)
		}
	}
	if strings.Count(logs.String(), "Session ended") != 2 {
		t.Errorf("sessions not closed\nlogs:\n%s", logs.String())
	}
}

func TestShell_AdminSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.billing.CreateBill(ctx, "Acme", decimal.NewFromInt(1000), core.StatusUnpaid, core.Domestic); err != nil {
		t.Fatal(err)
	}
	f.clock.AdvanceDays(15)

	input := strings.Join([]string{
		"2", testPassword,
		// settle Acme, settle it again, then an unknown id
		"4", "1",
		"4", "1",
		"4", "9",
		// add a commercial bill, then one without a vendor
		"1", "Water Co", "80", "2",
		"1", "", "10", "1",
		"2", "3", "5", "3",
	}, "\n") + "\n"

	out := f.run(t, input, Options{})
	assertContains(t, out,
		"Admin Menu",
		"Fine applied for late payment: RS.100.00 (5 days late)",
		"Bill marked as paid.",
		"Bill is already paid.",
		"Bill not found.",
		"Bill added successfully.",
		"Vendor name must not be empty.",
		"Water Co",
		"1100.00",
		"fine",
		"Exiting Admin Menu.",
	)

	bills := f.bills(t)
	if len(bills) != 2 {
		t.Fatalf("got %d bills, want 2", len(bills))
	}
	if bills[1].Category != core.Commercial || bills[1].Status != core.StatusUnpaid {
		t.Errorf("added bill = %+v", bills[1])
	}
}
