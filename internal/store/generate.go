package store

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// DefaultTicketCount is the size of the generated demo set.
const DefaultTicketCount = 50

var (
	demoAssignees  = []string{"Alice Johnson", "Bob Smith", "Carol Davis", "David Wilson", "Emma Brown"}
	demoCategories = []string{"Network", "Security", "Hardware", "Software", "Database"}
)

// generationSpan is how far back generated tickets may be created.
const generationSpan = 7 * 24 * time.Hour

// escalationRate is the probability a generated ticket is flagged escalated.
const escalationRate = 0.2

// Generate builds n demo tickets created within the week before now.
// Tickets generated as Resolved get a ResolvedAt within their SLA target;
// no other ticket has one.
func Generate(rng *rand.Rand, now time.Time, n int) []models.Ticket {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	tickets := make([]models.Ticket, 0, n)
	for i := range n {
		priority := models.Priorities[rng.IntN(len(models.Priorities))]
		status := models.Statuses[rng.IntN(len(models.Statuses))]
		createdAt := now.Add(-time.Duration(rng.Float64() * float64(generationSpan)))

		// The title and category draw independently, as in the demo data
		// the dashboard was designed around.
		t := models.NewTicket(
			fmt.Sprintf("INCIDENT-%04d", i+1),
			fmt.Sprintf("System %s Issue #%d", pick(rng, demoCategories), i+1),
			priority,
			status,
			createdAt,
		)
		t.Assignee = pick(rng, demoAssignees)

		if status == models.StatusResolved {
			target := time.Duration(t.SLATargetHours * float64(time.Hour))
			resolvedAt := createdAt.Add(time.Duration(rng.Float64() * float64(target)))
			t.ResolvedAt = &resolvedAt
		}

		t.Escalated = rng.Float64() < escalationRate
		t.Category = pick(rng, demoCategories)

		tickets = append(tickets, t)
	}
	return tickets
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
