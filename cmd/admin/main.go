// Command admin applies moderation actions to the persisted marketplace and
// exports the platform report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"skillswap/internal/bootstrap"
	"skillswap/internal/config"
	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/query"
	"skillswap/internal/store"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id|email>  - Grant admin rights")
	fmt.Println("  go run ./cmd/admin demote <user_id|email>   - Revoke admin rights")
	fmt.Println("  go run ./cmd/admin ban <user_id|email>      - Ban a member and cancel their pending swaps")
	fmt.Println("  go run ./cmd/admin unban <user_id|email>    - Lift a ban")
	fmt.Println("  go run ./cmd/admin list-admins              - List all admins")
	fmt.Println("  go run ./cmd/admin report [file]            - Write the platform report (default: stdout)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipWatchdog: true})
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rt.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to flush storage: %v", err)
		}
	}()

	command := os.Args[1]
	arg := ""
	if len(os.Args) > 2 {
		arg = os.Args[2]
	}

	switch command {
	case "promote", "demote", "ban", "unban":
		if arg == "" {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id|email>\n", command)
			os.Exit(1)
		}
		if err := moderate(ctx, rt.Store, command, arg); err != nil {
			log.Printf("%s failed: %v", command, err)
			os.Exit(1)
		}
	case "list-admins":
		listAdmins(rt.Store.Snapshot())
	case "report":
		if err := writeReport(rt.Store.Snapshot(), arg); err != nil {
			log.Printf("report failed: %v", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func findUser(s engine.State, ref string) (models.User, bool) {
	if u, ok := s.FindUser(ref); ok {
		return u, true
	}
	return s.FindUserByEmail(ref)
}

// moderate dispatches directly on the store. The operator is trusted, so the
// self-moderation guard does not apply, but the last admin is still kept.
func moderate(ctx context.Context, st *store.Store, command, ref string) error {
	state := st.Snapshot()
	user, ok := findUser(state, ref)
	if !ok {
		return fmt.Errorf("user %q not found", ref)
	}

	var intent engine.Intent
	switch command {
	case "promote":
		if user.IsAdmin {
			fmt.Printf("%s (%s) is already an admin\n", user.Name, user.ID)
			return nil
		}
		if user.IsBanned {
			return fmt.Errorf("%s is banned; unban them first", user.Name)
		}
		intent = engine.MakeAdmin{UserID: user.ID}
	case "demote":
		if !user.IsAdmin {
			fmt.Printf("%s (%s) is not an admin\n", user.Name, user.ID)
			return nil
		}
		if query.ActiveAdmins(state) <= 1 {
			return fmt.Errorf("%s is the last active admin", user.Name)
		}
		intent = engine.RemoveAdmin{UserID: user.ID}
	case "ban":
		if user.IsBanned {
			fmt.Printf("%s (%s) is already banned\n", user.Name, user.ID)
			return nil
		}
		intent = engine.Ban(user.ID)
	case "unban":
		if !user.IsBanned {
			fmt.Printf("%s (%s) is not banned\n", user.Name, user.ID)
			return nil
		}
		intent = engine.UnbanUser{UserID: user.ID}
	}

	if _, changed := st.Dispatch(ctx, intent); !changed {
		return fmt.Errorf("%s was refused for %s", command, user.Name)
	}
	fmt.Printf("Applied %s to %s (%s)\n", command, user.Name, user.ID)
	return nil
}

func listAdmins(s engine.State) {
	var admins []models.User
	for _, u := range s.Users {
		if u.IsAdmin {
			admins = append(admins, u)
		}
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}

	fmt.Println("Current admins:")
	for _, a := range admins {
		fmt.Printf("ID: %s | Name: %s | Email: %s\n", a.ID, a.Name, a.Email)
	}
}

func writeReport(s engine.State, path string) error {
	report := query.BuildReport(s, "cli", models.Now())
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if path != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	}
	return nil
}
