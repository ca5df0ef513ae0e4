// mktoken mints a bearer token for the API. There is no login endpoint; the
// identity provider lives outside this service, so operators and tests sign
// tokens directly with the shared secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/subosito/gotenv"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	httpapi "github.com/hypervisual/finance-workflow/internal/interfaces/http"
)

func main() {
	_ = gotenv.Load()

	var (
		id          = flag.String("id", "", "subject user ID (required)")
		name        = flag.String("name", "", "display name")
		role        = flag.String("role", entity.RoleEmployee, "role: employee, finance_manager, superadmin")
		permissions = flag.String("permissions", "", "comma-separated permissions, e.g. finance.validate")
		ttl         = flag.Duration("ttl", 12*time.Hour, "token lifetime")
		secret      = flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to JWT_SECRET)")
	)
	flag.Parse()

	if *id == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: mktoken -id <user> [-role superadmin] [-permissions finance.validate] (JWT_SECRET must be set)")
		os.Exit(2)
	}

	identity := entity.Identity{ID: *id, Name: *name, Role: *role}
	if *permissions != "" {
		identity.Permissions = strings.Split(*permissions, ",")
	}

	token, err := httpapi.NewTokenManager(*secret, *ttl).IssueToken(identity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
