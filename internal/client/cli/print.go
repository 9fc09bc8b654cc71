package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	gs "github.com/dmitrijs2005/microblog/internal/server/grpc"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) printUsers(users []gs.User) {
	if len(users) == 0 {
		fmt.Fprintln(a.out, "(none)")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	_ = w.Flush()
}

func (a *App) printPosts(posts []gs.Micropost) {
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "(none)")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAUTHOR\tPOSTED\tCONTENT")
	for _, p := range posts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.UserID, p.CreatedAt.Local().Format(timeLayout), p.Content)
	}
	_ = w.Flush()
}

func (a *App) printProfile(p *gs.UserResponse) {
	fmt.Fprintf(a.out, "%s <%s>\n", p.User.Name, p.User.Email)
	fmt.Fprintf(a.out, "id: %s\n", p.User.ID)
	if p.User.Admin {
		fmt.Fprintln(a.out, "admin")
	}
	fmt.Fprintf(a.out, "joined: %s\n", p.User.CreatedAt.Local().Format(time.DateOnly))
	fmt.Fprintf(a.out, "%d microposts, %d following, %d followers\n", p.Microposts, p.Following, p.Followers)
}
