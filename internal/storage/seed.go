package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"cleantrack/backend/internal/models"

	"github.com/lib/pq"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type seedNote struct {
	text   string
	status models.Status
	at     string
}

type seedComplaint struct {
	id, title, location, description, category string
	reporter                                   string
	priority                                   models.Priority
	submitted                                  string
	notes                                      []seedNote
}

var demoUsers = []models.User{
	{ID: "demo-citizen-john", Name: "John Citizen", Email: "john@example.com", Role: models.RoleCitizen, Phone: "+1 (555) 123-4567", Address: "123 Main Street, Anytown"},
	{ID: "demo-citizen-sarah", Name: "Sarah Johnson", Email: "sarah.j@example.com", Role: models.RoleCitizen},
	{ID: "demo-official-johnson", Name: "Officer Johnson", Email: "officer@city.gov", Role: models.RoleOfficial, Phone: "+1 (555) 987-6543"},
}

var demoComplaints = []seedComplaint{
	{
		id: "c1", title: "Garbage Pile Near Bus Stop", location: "Main Street, Bus Stop #5", category: "garbage",
		description: "Large pile of garbage accumulating near the bus stop. It's been there for at least 3 days.",
		reporter:    "demo-citizen-john", priority: models.PriorityHigh, submitted: "2023-04-05",
		notes: []seedNote{{"Cleanup crew scheduled for tomorrow morning.", models.StatusInProgress, "2023-04-06"}},
	},
	{
		id: "c2", title: "Broken Street Light", location: "Park Avenue, Near City Mall", category: "lighting",
		description: "Street light is broken causing darkness in the area at night. Creating safety issues.",
		reporter:    "demo-citizen-john", priority: models.PriorityMedium, submitted: "2023-04-03",
	},
	{
		id: "c3", title: "Pothole in Road", location: "Oak Street, Near School", category: "roads",
		description: "Large pothole in the middle of the road causing traffic problems and potential vehicle damage.",
		reporter:    "demo-citizen-john", priority: models.PriorityHigh, submitted: "2023-03-28",
		notes: []seedNote{
			{"Crew dispatched to assess the damage.", models.StatusInProgress, "2023-03-29"},
			{"Pothole has been filled and road surface repaired.", models.StatusResolved, "2023-04-01"},
		},
	},
	{
		id: "c4", title: "Graffiti on Public Wall", location: "River Walk, Near Bridge", category: "graffiti",
		description: "Inappropriate graffiti on the public wall. Needs to be cleaned.",
		reporter:    "demo-citizen-john", priority: models.PriorityLow, submitted: "2023-03-25",
		notes: []seedNote{{"Cleanup crew has been notified.", models.StatusInProgress, "2023-03-26"}},
	},
	{
		id: "c5", title: "Overgrown Vegetation Blocking Sidewalk", location: "Maple Street, Near Park", category: "vegetation",
		description: "Vegetation from empty lot has overgrown and is blocking the sidewalk.",
		reporter:    "demo-citizen-john", submitted: "2023-03-15",
		notes: []seedNote{{"Area has been cleared and vegetation trimmed back.", models.StatusResolved, "2023-03-20"}},
	},
	{
		id: "c6", title: "Broken Public Bench", location: "Central Park, East Entrance", category: "parks",
		description: "Wooden slats on public bench are broken, creating a safety hazard.",
		reporter:    "demo-citizen-sarah", submitted: "2023-03-10",
		notes: []seedNote{{"Bench slats replaced.", models.StatusResolved, "2023-03-14"}},
	},
	{
		id: "c7", title: "Damaged Road Sign", location: "Pine Avenue, Corner of 5th", category: "roads",
		description: "Stop sign is bent and difficult to see from approaching vehicles.",
		reporter:    "demo-citizen-sarah", priority: models.PriorityMedium, submitted: "2023-04-01",
	},
}

func seedDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.Add(9 * time.Hour)
}

// SeedDemo loads the demo accounts and complaints. Records that already exist
// are left alone, so it is safe to call on every start. Non-pending statuses
// are reached through AppendNote, which keeps status and notes consistent.
func SeedDemo(ctx context.Context, s Storage, passwordHash string) error {
	names := make(map[string]string, len(demoUsers))
	var officialID, officialName string

	for _, u := range demoUsers {
		user := u
		user.PasswordHash = passwordHash
		names[user.ID] = user.Name
		if user.Role == models.RoleOfficial {
			officialID, officialName = user.ID, user.Name
		}

		err := s.CreateUser(ctx, &user)
		if errors.Is(err, ErrDuplicateEmail) {
			continue
		}
		if err != nil {
			return err
		}
	}

	created := 0
	for _, sc := range demoComplaints {
		if _, err := s.Get(ctx, sc.id); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		c := &models.Complaint{
			ID:           sc.id,
			Title:        sc.title,
			Description:  sc.description,
			Location:     sc.location,
			Category:     sc.category,
			Images:       pq.StringArray{"/placeholder.svg"},
			Status:       models.StatusPending,
			Priority:     sc.priority,
			SubmittedAt:  seedDate(sc.submitted),
			ReportedByID: sc.reporter,
			ReporterName: names[sc.reporter],
		}
		if _, err := s.Create(ctx, c); err != nil {
			return err
		}
		for _, n := range sc.notes {
			note := models.Note{
				Text:            n.text,
				Timestamp:       seedDate(n.at),
				AuthorID:        officialID,
				AuthorName:      officialName,
				ResultingStatus: n.status,
			}
			if _, err := s.AppendNote(ctx, sc.id, note, 0); err != nil {
				return err
			}
		}
		created++
	}

	if created > 0 {
		log.Printf("INFO: Seeded %d demo complaints.", created)
	}
	return nil
}
