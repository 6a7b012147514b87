package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/workboard/internal/client/client"
	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/netx"
)

const itemsPageSize = 10

var workItemStatuses = []string{"New", "InProgress", "Completed", "Cancelled"}

// report prints err in a user-facing form and returns it unchanged.
func (a *App) report(err error) error {
	var se *netx.StatusError
	switch {
	case err == nil:
	case errors.As(err, &se):
		fmt.Fprintf(a.out, "Error: %s\n", se.Message)
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "Please login first.")
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Session expired, please login again.")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}

func (a *App) readCredentials() (string, []byte, error) {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return username, password, nil
}

func (a *App) Register(ctx context.Context) error {
	username, password, err := a.readCredentials()
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return a.report(err)
	}
	role, err := GetChoice(a.reader, "Role", []string{"User", common.RoleAdmin}, "User", a.out)
	if err != nil {
		return a.report(err)
	}

	u, err := a.api.Register(ctx, client.RegisterRequest{Username: username, Password: string(password), Email: email, Role: role})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Registered %s (%s), id %s\n", u.Username, u.Role, u.ID)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, password, err := a.readCredentials()
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Login(ctx, username, string(password))
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", s.Username, s.Role)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	msg, admin, err := a.api.Whoami(ctx)
	if err != nil {
		return a.report(err)
	}
	s := a.api.Session()
	fmt.Fprintf(a.out, "%s: %s (id %s, role %s)\n", msg, s.Username, s.UserID, s.Role)
	if admin {
		fmt.Fprintln(a.out, "You are an admin")
	}
	return nil
}

// Items lists one page of work items; the optional argument is the page
// number.
func (a *App) Items(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return a.report(fmt.Errorf("invalid page %q", args[0]))
		}
		page = n
	}

	res, err := a.api.ListWorkItems(ctx, client.ListOptions{PageNumber: page, PageSize: itemsPageSize})
	if err != nil {
		return a.report(err)
	}
	if len(res.Items) == 0 {
		fmt.Fprintln(a.out, "No work items.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tOWNER\tCREATED")
	for _, it := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Title, it.Status, it.CreatedByUsername, it.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Page %d of %d, %d item(s) in total\n", res.Page.CurrentPage, res.Page.TotalPages, res.Page.TotalCount)
	return nil
}

func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.report(client.ErrNotLoggedIn)
	}

	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return a.report(err)
	}
	description, err := GetMultiline(a.reader, "Description", a.out)
	if err != nil {
		return a.report(err)
	}
	status, err := GetChoice(a.reader, "Status", workItemStatuses, "New", a.out)
	if err != nil {
		return a.report(err)
	}

	in := client.NewWorkItem{Title: title, Description: description, Status: status}
	if s := a.api.Session(); s != nil && s.Role == common.RoleAdmin {
		assignee, err := GetSimpleText(a.reader, "Assign to user id (empty for yourself)", a.out)
		if err != nil {
			return a.report(err)
		}
		if assignee = strings.TrimSpace(assignee); assignee != "" {
			in.AssignToUserID = &assignee
		}
	}

	item, err := a.api.CreateWorkItem(ctx, in)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Created work item %s\n", item.ID)
	return nil
}

func (a *App) Logout(context.Context) error {
	a.api.Logout()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
