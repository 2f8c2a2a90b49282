package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"cleantrack/backend/internal/analysis"
	"cleantrack/backend/internal/complaint"
	"cleantrack/backend/internal/config"
	"cleantrack/backend/internal/filter"
	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/storage"

	"github.com/joho/godotenv"
)

const usage = `Usage: admin <command> [args]

Commands:
  list [status]                                  list complaints, optionally by status
  set-role <email> <citizen|official>            change the role of an account
  set-status <complaint_id> <status> <note...>   move a complaint as the system official
  leaderboard                                    print the citizen leaderboard`

// adminIdentity signs status changes made from the command line.
var adminIdentity = &models.Identity{ID: "admin-cli", Name: "Administrator", Role: models.RoleOfficial}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Error loading .env file")
	}
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	db, err := storage.Connect(cfg.DatabaseURL, "error")
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "list":
		var status string
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		if err := listComplaints(ctx, storageSvc, status); err != nil {
			log.Fatalf("Error listing complaints: %v", err)
		}
	case "set-role":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin set-role <email> <citizen|official>")
			os.Exit(1)
		}
		if err := setRole(ctx, storageSvc, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error changing role: %v", err)
		}
		fmt.Printf("User %s is now %s.\n", os.Args[2], os.Args[3])
	case "set-status":
		if len(os.Args) < 5 {
			fmt.Println("Usage: admin set-status <complaint_id> <status> <note...>")
			os.Exit(1)
		}
		svc := complaint.NewService(storageSvc, nil)
		svc.AllowRejected = cfg.AllowRejectedStatus
		note := strings.Join(os.Args[4:], " ")
		updated, err := svc.ApplyStatusUpdate(ctx, os.Args[2], os.Args[3], note, adminIdentity, 0)
		if err != nil {
			log.Fatalf("Error updating complaint: %v", err)
		}
		fmt.Printf("Complaint %s is now %s.\n", updated.ID, updated.Status.Label())
	case "leaderboard":
		if err := printLeaderboard(ctx, storageSvc); err != nil {
			log.Fatalf("Error building leaderboard: %v", err)
		}
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func listComplaints(ctx context.Context, s storage.Storage, status string) error {
	all, err := s.List(ctx)
	if err != nil {
		return err
	}
	criteria := filter.Criteria{Sort: filter.Newest}
	if status != "" && status != filter.All {
		st, ok := models.ParseStatus(status)
		if !ok {
			return fmt.Errorf("unknown status %q", status)
		}
		criteria.Status = string(st)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBMITTED\tSTATUS\tPRIORITY\tTITLE\tLOCATION")
	for _, c := range filter.Apply(all, criteria) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.SubmittedAt.Format("2006-01-02"), c.Status, c.Priority, c.Title, c.Location)
	}
	return w.Flush()
}

func setRole(ctx context.Context, s storage.Storage, email, rawRole string) error {
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return fmt.Errorf("unknown role %q", rawRole)
	}
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	user.Role = role
	return s.UpdateUser(ctx, user)
}

func printLeaderboard(ctx context.Context, s storage.Storage) error {
	all, err := s.List(ctx)
	if err != nil {
		return err
	}
	citizens, err := s.ListUsers(ctx, models.RoleCitizen)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tPOINTS\tLEVEL\tSUBMITTED\tRESOLVED")
	for _, e := range analysis.Leaderboard(citizens, all) {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%d\n", e.Rank, e.Name, e.Points, e.Level, e.Submitted, e.Resolved)
	}
	return w.Flush()
}
