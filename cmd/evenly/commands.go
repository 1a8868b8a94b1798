package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmynk/evenly/internal/calculator"
	"github.com/mmynk/evenly/internal/models"
	"github.com/mmynk/evenly/internal/service"
)

const dateLayout = "2006-01-02"

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("evenly "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// secret returns value, or the environment variable env, or a line read
// from the app's input after printing prompt.
func (a *app) secret(value, env, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

// names caches users and resolves ids to display names. Lookup failures
// degrade to the raw ids.
func (a *app) names(ctx context.Context, users []models.User, ids []string) map[string]string {
	if len(users) > 0 {
		if err := a.directory.Remember(ctx, users...); err != nil {
			a.logger.Warn("Failed to cache contacts", "error", err)
		}
	}
	names, err := a.directory.Names(ctx, ids)
	if err != nil {
		a.logger.Warn("Contact lookup failed", "error", err)
		names = make(map[string]string, len(ids))
		for _, id := range ids {
			names[id] = id
		}
	}
	return names
}

func runSignIn(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("signin")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or EVENLY_PASSWORD)")
	token := fs.String("token", "", "session token from the Google sign-in redirect")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		user *models.User
		err  error
	)
	if *token != "" {
		user, err = a.auth.SignInWithToken(ctx, strings.TrimSpace(*token))
	} else {
		var pw string
		if pw, err = a.secret(*password, "EVENLY_PASSWORD", "Password: "); err != nil {
			return err
		}
		user, err = a.auth.SignIn(ctx, *email, pw)
	}
	if err != nil {
		return err
	}
	a.refreshContacts(ctx)
	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runSignUp(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("signup")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or EVENLY_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := a.secret(*password, "EVENLY_PASSWORD", "Password: ")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password strength: %s\n", a.auth.PasswordStrength(pw))

	user, err := a.auth.SignUp(ctx, *name, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! You are signed in.\n", user.Name)
	return nil
}

func runSignOut(ctx context.Context, a *app, _ []string) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func runWhoAmI(_ context.Context, a *app, _ []string) error {
	user, _ := a.session.User()
	fmt.Fprintf(a.out, "%s <%s>\nid: %s\n", user.Name, user.Email, user.ID)
	return nil
}

func runChangePassword(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("passwd")
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cur, err := a.secret(*current, "EVENLY_PASSWORD", "Current password: ")
	if err != nil {
		return err
	}
	nxt, err := a.secret(*next, "EVENLY_NEW_PASSWORD", "New password: ")
	if err != nil {
		return err
	}
	if err := a.auth.ChangePassword(ctx, cur, nxt); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func runDashboard(ctx context.Context, a *app, _ []string) error {
	d, err := a.dashboard.Load(ctx)
	if err != nil {
		return err
	}

	writeSummary(a, d.Summary)
	fmt.Fprintf(a.out, "Total spent:  %s\n", calculator.FormatMoney(d.TotalSpent))

	if len(d.Groups) > 0 {
		fmt.Fprintln(a.out, "\nGroups:")
		for _, g := range d.Groups {
			fmt.Fprintf(a.out, "  %s (%d members)\n", g.Name, len(g.Members))
		}
	}

	if len(d.MonthlySpending) > 0 {
		fmt.Fprintln(a.out, "\nMonthly spending:")
		tw := a.table()
		for _, m := range d.MonthlySpending {
			fmt.Fprintf(tw, "  %s\t%s\n", monthName(m.Month), calculator.FormatMoney(m.Total))
		}
		return tw.Flush()
	}
	return nil
}

func runBalances(ctx context.Context, a *app, _ []string) error {
	b, summary, err := a.dashboard.Balances(ctx)
	if err != nil {
		return err
	}

	writeSummary(a, summary)
	tw := a.table()
	if len(b.OweDetails.YouAreOwedBy) > 0 {
		fmt.Fprintln(tw, "\nOWES YOU\tAMOUNT")
		for _, c := range b.OweDetails.YouAreOwedBy {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, calculator.FormatMoney(c.Amount))
		}
	}
	if len(b.OweDetails.YouOwe) > 0 {
		fmt.Fprintln(tw, "\nYOU OWE\tAMOUNT")
		for _, c := range b.OweDetails.YouOwe {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, calculator.FormatMoney(c.Amount))
		}
	}
	return tw.Flush()
}

func writeSummary(a *app, s calculator.BalanceSummary) {
	fmt.Fprintf(a.out, "%s\n", s.Status)
	fmt.Fprintf(a.out, "Net balance:  %s\n", calculator.FormatMoney(s.Net))
	fmt.Fprintf(a.out, "You are owed: %s\n", calculator.FormatMoney(s.YouAreOwed))
	fmt.Fprintf(a.out, "You owe:      %s\n", calculator.FormatMoney(s.YouOwe))
}

func monthName(m int) string {
	if m >= 1 && m <= 12 {
		return time.Month(m).String()
	}
	return fmt.Sprintf("month %d", m)
}

func runGroups(ctx context.Context, a *app, _ []string) error {
	groups, err := a.groups.List(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "No groups yet")
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tMEMBERS")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", g.ID, g.Name, len(g.Members))
	}
	return tw.Flush()
}

func runGroup(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: evenly group <id>")
	}
	d, err := a.groups.Details(ctx, args[0])
	if err != nil {
		return err
	}

	users := append([]models.User(nil), d.Members...)
	for _, u := range d.UserLookup {
		users = append(users, u)
	}
	ids := make([]string, 0, len(d.Members)+len(d.Expenses))
	for _, m := range d.Members {
		ids = append(ids, m.ID)
	}
	for _, e := range d.Expenses {
		ids = append(ids, e.PaidByUserID)
	}
	for _, b := range d.Balances {
		ids = append(ids, b.UserID)
	}
	names := a.names(ctx, users, ids)

	fmt.Fprintf(a.out, "%s\n", d.Group.Name)
	if d.Group.Description != "" {
		fmt.Fprintf(a.out, "%s\n", d.Group.Description)
	}

	tw := a.table()
	fmt.Fprintln(tw, "\nMEMBER\tBALANCE")
	for _, b := range d.Balances {
		fmt.Fprintf(tw, "%s\t%s\n", names[b.UserID], calculator.FormatMoney(b.NetBalance))
	}
	if len(d.Expenses) > 0 {
		fmt.Fprintln(tw, "\nDATE\tDESCRIPTION\tAMOUNT\tPAID BY")
		for _, e := range d.Expenses {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Date.Format(dateLayout), e.Description, calculator.FormatMoney(e.Amount), names[e.PaidByUserID])
		}
	}
	return tw.Flush()
}

func runCreateGroup(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("create-group")
	name := fs.String("name", "", "group name")
	description := fs.String("description", "", "group description")
	members := fs.String("members", "", "comma separated member ids")
	contacts := fs.Bool("contacts", false, "create through the contacts endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids := splitList(*members)
	var (
		g   *models.Group
		err error
	)
	if *contacts {
		g, err = a.groups.CreateFromContacts(ctx, *name, *description, ids)
	} else {
		g, err = a.groups.Create(ctx, models.GroupInput{Name: *name, Description: *description, Members: ids})
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created group %s (%s)\n", g.Name, g.ID)
	return nil
}

func runSettleUp(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: evenly settle-up <group-id>")
	}
	edges, err := a.groups.SettleUp(ctx, args[0])
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		fmt.Fprintln(a.out, calculator.StatusSettled)
		return nil
	}

	ids := make([]string, 0, 2*len(edges))
	for _, e := range edges {
		ids = append(ids, e.From, e.To)
	}
	names := a.names(ctx, nil, ids)

	tw := a.table()
	fmt.Fprintln(tw, "FROM\tTO\tAMOUNT")
	for _, e := range edges {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", names[e.From], names[e.To], calculator.FormatMoney(e.Amount))
	}
	return tw.Flush()
}

func runExpenses(ctx context.Context, a *app, _ []string) error {
	expenses, err := a.expenses.List(ctx)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Fprintln(a.out, "No expenses yet")
		return nil
	}

	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.PaidByUserID
	}
	names := a.names(ctx, nil, ids)
	self := a.session.UserID()

	tw := a.table()
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tPAID BY\tYOU\t")
	for _, e := range expenses {
		share := calculator.ExpenseShareFor(e, self)
		position := "not involved"
		switch {
		case share.Paid:
			position = "lent " + calculator.FormatMoney(share.Lent)
		case share.Involved:
			position = "borrowed " + calculator.FormatMoney(share.Borrowed)
		}
		deletable := ""
		if a.expenses.CanDelete(e) {
			deletable = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date.Format(dateLayout), e.Description,
			calculator.FormatMoney(e.Amount), names[e.PaidByUserID], position, deletable)
	}
	return tw.Flush()
}

func runSplit(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("split")
	total := fs.String("total", "", "amount to split")
	strategy := fs.String("strategy", string(calculator.StrategyEqual), "equal, percentage or exact")
	participants := fs.String("participants", "", "comma separated participant ids")
	payer := fs.String("payer", "", "participant who paid")
	var edits assignments
	fs.Var(&edits, "set", "id=value line edit; repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := calculator.ParseStrategy(*strategy)
	if err != nil {
		return err
	}
	ids := splitList(*participants)
	people := make([]calculator.Participant, len(ids))
	for i, id := range ids {
		people[i] = calculator.Participant{ID: id, Name: id}
	}

	state, err := previewSplit(*total, s, people, *payer, edits)
	if err != nil {
		return err
	}
	return writeAllocation(a.out, state.Allocation)
}

func runAddExpense(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add-expense")
	description := fs.String("description", "", "what the expense was for")
	amount := fs.String("amount", "", "total amount")
	category := fs.String("category", "", "category id (default other)")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	groupID := fs.String("group", "", "group id for a group expense")
	with := fs.String("with", "", "comma separated contact ids for an individual expense")
	payer := fs.String("payer", "", "participant who paid (default you)")
	strategy := fs.String("strategy", string(calculator.StrategyEqual), "equal, percentage or exact")
	dryRun := fs.Bool("dry-run", false, "preview the split without submitting")
	var edits assignments
	fs.Var(&edits, "set", "id=value line edit; repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, _ := a.session.User()
	kind := service.KindIndividual
	if *groupID != "" {
		kind = service.KindGroup
	}
	form := service.NewExpenseForm(kind, &user)
	form.Description = *description
	form.Category = *category
	if *date != "" {
		d, err := time.Parse(dateLayout, *date)
		if err != nil {
			return fmt.Errorf("invalid -date %q: want YYYY-MM-DD", *date)
		}
		form.Date = d
	}

	if kind == service.KindGroup {
		g, err := a.groups.Get(ctx, *groupID)
		if err != nil {
			return err
		}
		form.SetGroup(*g)
		if err := a.directory.Remember(ctx, g.Members...); err != nil {
			a.logger.Warn("Failed to cache group members", "error", err)
		}
	} else {
		contacts, err := a.contacts(ctx, splitList(*with))
		if err != nil {
			return err
		}
		for _, c := range contacts {
			form.AddParticipant(c)
		}
	}

	form.SetAmount(*amount)
	s, err := calculator.ParseStrategy(*strategy)
	if err != nil {
		return err
	}
	form.SetSplitType(models.SplitType(s))
	if *payer != "" {
		form.SetPayer(*payer)
	}
	for _, e := range edits {
		form.EditSplit(e.UserID, e.Value)
	}

	if alloc, ok := form.Allocation(); ok {
		if err := writeAllocation(a.out, alloc); err != nil {
			return err
		}
	}
	if *dryRun {
		return form.Validate()
	}

	expense, err := a.expenses.Submit(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added expense %s (%s)\n", expense.Description, expense.ID)
	return nil
}

// contacts resolves ids from the contact cache, refreshing it once when
// some are missing.
func (a *app) contacts(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	known, err := a.store.GetContactsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(known) < len(ids) {
		if err := a.directory.Refresh(ctx); err != nil {
			return nil, err
		}
		if known, err = a.store.GetContactsByIDs(ctx, ids); err != nil {
			return nil, err
		}
	}

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := known[id]
		if !ok {
			return nil, fmt.Errorf("unknown contact %s", id)
		}
		users = append(users, u)
	}
	return users, nil
}

// refreshContacts warms the contact cache after sign-in.
func (a *app) refreshContacts(ctx context.Context) {
	if err := a.directory.Refresh(ctx); err != nil {
		a.logger.Warn("Failed to refresh contacts", "error", err)
	}
}

func runDeleteExpense(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: evenly delete-expense <id>")
	}
	expense, err := a.expenses.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.expenses.Delete(ctx, *expense); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted expense %s\n", expense.Description)
	return nil
}

func runSettlements(ctx context.Context, a *app, _ []string) error {
	settlements, err := a.settlements.List(ctx)
	if err != nil {
		return err
	}
	if len(settlements) == 0 {
		fmt.Fprintln(a.out, "No settlements yet")
		return nil
	}

	ids := make([]string, 0, 2*len(settlements))
	for _, s := range settlements {
		ids = append(ids, s.PaidByUserID, s.ReceivedByUserID)
	}
	names := a.names(ctx, nil, ids)

	tw := a.table()
	fmt.Fprintln(tw, "DATE\tFROM\tTO\tAMOUNT\tNOTE")
	for _, s := range settlements {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Date.Format(dateLayout), names[s.PaidByUserID],
			names[s.ReceivedByUserID], calculator.FormatMoney(s.Amount), s.Note)
	}
	return tw.Flush()
}

func runSettle(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("settle")
	to := fs.String("to", "", "user id receiving the payment")
	amount := fs.String("amount", "", "amount paid")
	groupID := fs.String("group", "", "group the payment belongs to")
	note := fs.String("note", "", "optional note")
	if err := fs.Parse(args); err != nil {
		return err
	}

	value, err := calculator.ParseAmount(*amount)
	if err != nil {
		return err
	}
	s, err := a.settlements.Create(ctx, models.SettlementInput{
		Amount:           value,
		Note:             strings.TrimSpace(*note),
		PaidByUserID:     a.session.UserID(),
		ReceivedByUserID: strings.TrimSpace(*to),
		GroupID:          strings.TrimSpace(*groupID),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded payment of %s to %s\n", calculator.FormatMoney(s.Amount), a.directory.Name(ctx, s.ReceivedByUserID))
	return nil
}

func runSearch(ctx context.Context, a *app, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("usage: evenly search <query>")
	}
	users, err := a.client.SearchUsers(ctx, query)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found")
		return nil
	}
	if err := a.directory.Remember(ctx, users...); err != nil {
		a.logger.Warn("Failed to cache contacts", "error", err)
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	return tw.Flush()
}

func runAIConsent(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return errors.New("usage: evenly ai-consent on|off")
	}
	if err := a.client.UpdateAIConsent(ctx, args[0] == "on"); err != nil {
		return err
	}
	user, err := a.auth.ReloadUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Insight emails: %v\n", user.AIConsent)
	return nil
}

func runSendInsights(ctx context.Context, a *app, _ []string) error {
	if user, _ := a.session.User(); !user.AIConsent {
		return errors.New("insight emails are off; run `evenly ai-consent on` first")
	}
	if err := a.client.SendInsightsNow(ctx); err != nil {
		return fmt.Errorf("failed to send insights email: %w", err)
	}
	fmt.Fprintln(a.out, "Insights email sent!")
	return nil
}

func runSendReminders(ctx context.Context, a *app, _ []string) error {
	if err := a.client.SendRemindersNow(ctx); err != nil {
		return fmt.Errorf("failed to send reminders email: %w", err)
	}
	fmt.Fprintln(a.out, "Reminders email sent!")
	return nil
}

func runAvatar(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: evenly avatar <image-file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	imageURL, err := a.client.UploadProfilePic(ctx, f.Name(), f)
	if err != nil {
		return err
	}
	if _, err := a.auth.ReloadUser(ctx); err != nil {
		a.logger.Warn("Failed to reload user", "error", err)
	}
	fmt.Fprintf(a.out, "Profile picture updated: %s\n", imageURL)
	return nil
}
