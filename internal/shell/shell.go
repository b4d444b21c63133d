// Package shell is the interactive menu front end of the billing engine.
//
// General users calculate electricity bills, record deposits and read due
// notices. Administrators log in with the admin password to add bills, view
// the ledger and settle bills.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"powerbill/internal/auth"
	"powerbill/internal/core"
	"powerbill/internal/log"
	"powerbill/internal/services"
	"powerbill/internal/tariff"
)

const (
	// DemoMinUnits and DemoMaxUnits bound the random per-person usage of the
	// commercial demo option.
	DemoMinUnits = 50
	DemoMaxUnits = 150

	// ElectricityVendor names bills created by the bill calculator.
	ElectricityVendor = "Electricity"

	rule = "--------------------------------------------"
)

// PasswordReader reads the admin password without echoing it.
type PasswordReader func() (string, error)

// Options configures a Shell. Zero values fall back to defaults.
type Options struct {
	In  io.Reader
	Out io.Writer

	// ReadPassword reads the admin password. Nil reads a plain line from In.
	ReadPassword PasswordReader

	// RandUnits returns a value in [0, n). Nil uses math/rand/v2.
	RandUnits func(n int) int

	Logger *log.Logger
}

// Shell runs the login, general and admin menus against a billing engine.
type Shell struct {
	billing *services.BillingService
	tariff  tariff.Schedule
	auth    *auth.Authenticator

	in           *bufio.Scanner
	out          io.Writer
	readPassword PasswordReader
	randUnits    func(n int) int
	logger       *log.Logger
}

var errQuit = errors.New("input closed")

func New(billing *services.BillingService, schedule tariff.Schedule, authenticator *auth.Authenticator, opts Options) *Shell {
	s := &Shell{
		billing:      billing,
		tariff:       schedule,
		auth:         authenticator,
		in:           bufio.NewScanner(opts.In),
		out:          opts.Out,
		readPassword: opts.ReadPassword,
		randUnits:    opts.RandUnits,
		logger:       opts.Logger,
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.readPassword == nil {
		s.readPassword = func() (string, error) { return s.readLine() }
	}
	if s.randUnits == nil {
		s.randUnits = rand.IntN
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentShell)
	return s
}

// Run shows the login menu until the user exits, the input ends or ctx is
// cancelled. Closed input is a normal exit.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.printf("+-----------------------------------------------+\n")
		s.printf("|    \"Efficient Power Management and            |\n")
		s.printf("|    Integrated Billing System\"                 |\n")
		s.printf("+-----------------------------------------------+\n")
		s.printf("1. General Login\n2. Admin Login\n3. Exit\n")

		choice, err := s.promptInt("Select your Login: ")
		if err != nil {
			if err := s.invalidChoice(err); err != nil {
				return quitIsExit(err)
			}
			continue
		}

		switch choice {
		case 1:
			err = s.generalMenu(ctx)
		case 2:
			err = s.adminLogin(ctx)
		case 3:
			s.printf("Exiting the program.\n")
			return nil
		default:
			s.printf("Invalid choice. Please try again.\n")
		}
		if err != nil {
			return quitIsExit(err)
		}
	}
}

// session tags the shell's log records with role until the returned func runs.
func (s *Shell) session(ctx context.Context, role auth.Role) func() {
	base := s.logger
	s.logger = base.With(log.FieldRole, string(role))
	s.logger.InfoContext(ctx, "Session started")
	return func() {
		s.logger.InfoContext(ctx, "Session ended")
		s.logger = base
	}
}

func (s *Shell) generalMenu(ctx context.Context) error {
	defer s.session(ctx, auth.RoleGeneral)()
	for {
		s.printf("\nGeneral User Menu\n")
		s.printf("1. Calculate Electricity Bill\n2. Deposit Money\n3. Notifications\n4. Logout\n")

		choice, err := s.promptInt("Select your Options: ")
		if err != nil {
			if err := s.invalidChoice(err); err != nil {
				return err
			}
			continue
		}

		switch choice {
		case 1:
			err = s.calculateBill(ctx)
		case 2:
			err = s.deposit(ctx)
		case 3:
			err = s.notifications(ctx)
		case 4:
			s.printf("Exiting User Menu.\n")
			return nil
		default:
			s.printf("Invalid choice. Please try again.\n")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) adminLogin(ctx context.Context) error {
	s.printf("Enter Admin password: ")
	password, err := s.readPassword()
	s.printf("\n")
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, errQuit) {
			return errQuit
		}
		return fmt.Errorf("read admin password: %w", err)
	}

	if err := s.auth.VerifyAdmin(password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.ErrorContext(ctx, "Admin password check failed", log.FieldError, err)
		} else {
			s.logger.WarnContext(ctx, "Admin login rejected")
		}
		s.printf("Incorrect password. Exiting Admin Login.\n\n")
		return nil
	}

	return s.adminMenu(ctx)
}

func (s *Shell) adminMenu(ctx context.Context) error {
	defer s.session(ctx, auth.RoleAdmin)()
	for {
		s.printf("\nAdmin Menu\n")
		s.printf("1. Add Bill\n2. View Bills\n3. View Transaction History\n4. Mark as Paid\n5. Logout\n")

		choice, err := s.promptInt("Select your Options: ")
		if err != nil {
			if err := s.invalidChoice(err); err != nil {
				return err
			}
			continue
		}

		switch choice {
		case 1:
			err = s.addBill(ctx)
		case 2:
			err = s.viewBills(ctx, false)
		case 3:
			err = s.viewTransactions(ctx)
		case 4:
			err = s.markPaid(ctx)
		case 5:
			s.printf("Exiting Admin Menu.\n")
			return nil
		default:
			s.printf("Invalid choice. Please try again.\n")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) calculateBill(ctx context.Context) error {
	kind, err := s.promptInt("Choose electricity type (1 for Domestic, 2 for Commercial): ")
	if err != nil {
		return s.invalidInput(err)
	}

	switch kind {
	case 1:
		units, err := s.promptInt("Total Number of Units used: ")
		if err != nil {
			return s.invalidInput(err)
		}
		charge, err := s.tariff.DomesticCharge(units)
		if err != nil {
			s.printf("Units must not be negative.\n")
			return nil
		}
		s.printf("%s\nTotal bill = %s\n%s\n", rule, core.FormatRupees(charge), rule)
		return s.createElectricityBill(ctx, charge, core.Domestic)

	case 2:
		units, err := s.readRoster()
		if err != nil {
			return s.invalidInput(err)
		}
		roster, err := s.tariff.CommercialCharge(units)
		if err != nil {
			s.printf("At least one person with non-negative units is required.\n")
			return nil
		}
		s.printRoster(roster)
		return s.createElectricityBill(ctx, roster.Total, core.Commercial)

	default:
		s.printf("Invalid choice for electricity type.\n")
		return nil
	}
}

// readRoster asks for the head count and then each person's units. A blank
// units line generates random demo usage for everyone.
func (s *Shell) readRoster() ([]int, error) {
	n, err := s.promptInt("Total Number of Persons: ")
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, nil
	}

	s.printf("Units per person, separated by spaces (blank for random demo usage): ")
	line, err := s.readLine()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		units := make([]int, n)
		for i := range units {
			units[i] = DemoMinUnits + s.randUnits(DemoMaxUnits-DemoMinUnits+1)
		}
		return units, nil
	}
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d unit counts, got %d: %w", n, len(fields), strconv.ErrSyntax)
	}

	units := make([]int, 0, n)
	for _, f := range fields {
		u, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func (s *Shell) createElectricityBill(ctx context.Context, amount decimal.Decimal, category core.Category) error {
	b, err := s.billing.CreateBill(ctx, ElectricityVendor, amount, core.StatusUnpaid, category)
	if err != nil {
		return s.engineError(ctx, "create electricity bill", err)
	}
	s.printf("Bill #%d added, due %s.\n", b.ID, b.DueDate)
	return nil
}

func (s *Shell) deposit(ctx context.Context) error {
	s.printf("\nUnpaid Bills:\n")
	if err := s.viewBills(ctx, true); err != nil {
		return err
	}

	choice, err := s.promptInt("Choose electricity type for deposit (1 for Domestic, 2 for Commercial): ")
	if err != nil {
		return s.invalidInput(err)
	}
	amount, err := s.promptAmount("Enter deposit amount: RS.")
	if err != nil {
		return s.invalidInput(err)
	}

	b, err := s.billing.RecordDeposit(ctx, amount, core.ClassifyCategory(choice))
	if errors.Is(err, core.ErrInvalidAmount) {
		s.printf("Deposit amount must be greater than zero.\n")
		return nil
	}
	if err != nil {
		return s.engineError(ctx, "record deposit", err)
	}
	s.printf("Deposit of %s successful.\n", core.FormatRupees(b.Amount))
	return nil
}

func (s *Shell) notifications(ctx context.Context) error {
	s.printf("\nNotifications\n%s%s\n", rule, rule)
	if err := s.viewBills(ctx, true); err != nil {
		return err
	}
	s.printf("%s%s\n", rule, rule)
	return nil
}

func (s *Shell) addBill(ctx context.Context) error {
	s.printf("Enter Vendor Name: ")
	vendor, err := s.readLine()
	if err != nil {
		return err
	}
	amount, err := s.promptAmount("Enter Amount: ")
	if err != nil {
		return s.invalidInput(err)
	}
	choice, err := s.promptInt("Choose electricity type (1 for Domestic, 2 for Commercial): ")
	if err != nil {
		return s.invalidInput(err)
	}

	_, err = s.billing.CreateBill(ctx, vendor, amount, core.StatusUnpaid, core.ClassifyCategory(choice))
	switch {
	case errors.Is(err, core.ErrEmptyVendor):
		s.printf("Vendor name must not be empty.\n")
		return nil
	case err != nil:
		return s.engineError(ctx, "create bill", err)
	}
	s.printf("Bill added successfully.\n")
	return nil
}

func (s *Shell) viewBills(ctx context.Context, unpaidOnly bool) error {
	bills, err := s.billing.ListBills(ctx, unpaidOnly)
	if err != nil {
		return s.engineError(ctx, "list bills", err)
	}
	if len(bills) == 0 {
		s.printf("No bills found.\n")
		return nil
	}
	writeBills(s.out, bills, s.billing.Today())
	return nil
}

func (s *Shell) viewTransactions(ctx context.Context) error {
	txs, err := s.billing.ListTransactions(ctx)
	if err != nil {
		return s.engineError(ctx, "list transactions", err)
	}
	if len(txs) == 0 {
		s.printf("No transaction history available.\n")
		return nil
	}
	writeTransactions(s.out, txs)
	return nil
}

func (s *Shell) markPaid(ctx context.Context) error {
	id, err := s.promptInt("Enter the ID of the bill to mark as paid: ")
	if err != nil {
		return s.invalidInput(err)
	}

	p, err := s.billing.MarkPaid(ctx, int64(id))
	switch {
	case errors.Is(err, core.ErrBillNotFound):
		s.printf("Bill not found.\n")
		return nil
	case err != nil:
		return s.engineError(ctx, "mark bill paid", err)
	}

	if p.AlreadyPaid {
		s.printf("Bill is already paid.\n")
		return nil
	}
	if p.FineApplied {
		s.printf("Fine applied for late payment: %s (%d days late)\n", core.FormatRupees(p.Fine), p.DaysLate)
	}
	s.printf("Bill marked as paid.\n")
	return nil
}

func (s *Shell) printRoster(r tariff.Roster) {
	s.printf("%s\nTotal bill = %s\n%s\n", rule, core.FormatRupees(r.Total), rule)
	s.printf("Bill Per Each Person:\n")
	for _, p := range r.People {
		s.printf("Person %d: %d units, %s\n", p.Person, p.Units, core.FormatRupees(p.Charge))
	}
	s.printf("%s\n", rule)
	s.printf("Person %d used the most units: %d units\n", r.Heaviest.Person, r.Heaviest.Units)
	s.printf("Person %d used the least units: %d units\n", r.Lightest.Person, r.Lightest.Units)
}

// invalidInput reports a malformed answer and returns to the current menu.
// Other errors, including closed input, pass through.
func (s *Shell) invalidInput(err error) error {
	if !isMalformed(err) {
		return err
	}
	s.printf("Invalid input. Please try again.\n")
	return nil
}

func (s *Shell) invalidChoice(err error) error {
	if !isMalformed(err) {
		return err
	}
	s.printf("Invalid choice. Please try again.\n")
	return nil
}

func isMalformed(err error) bool {
	return errors.Is(err, strconv.ErrSyntax) ||
		errors.Is(err, strconv.ErrRange) ||
		errors.Is(err, core.ErrInvalidAmount)
}

func quitIsExit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// engineError logs an unexpected engine failure. The shell keeps running.
func (s *Shell) engineError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "Shell operation failed", log.FieldOperation, op, log.FieldError, err)
	s.printf("Something went wrong: %v\n", err)
	return nil
}

func (s *Shell) readLine() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errQuit
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) promptInt(prompt string) (int, error) {
	s.printf("%s", prompt)
	line, err := s.readLine()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(line)
}

func (s *Shell) promptAmount(prompt string) (decimal.Decimal, error) {
	s.printf("%s", prompt)
	line, err := s.readLine()
	if err != nil {
		return decimal.Zero, err
	}
	return core.ParseAmount(line)
}

func (s *Shell) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		slog.Debug("Shell write failed", "error", err)
	}
}
