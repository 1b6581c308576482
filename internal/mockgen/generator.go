// Package mockgen generates realistic PostHog import CSV files.
//
// Users move through a small product lifecycle: they log in, upload files
// against a quota, hit the quota and pay to upgrade. Some events derive
// follow-up events (quota warnings, plan upgrades) a few seconds later.
package mockgen

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Header is the column layout written by Write.
var Header = []string{"event", "distinct_id", "timestamp", "properties", "uuid"}

// eventWeights is the relative frequency of each generated event.
var eventWeights = []struct {
	name   string
	weight float32
}{
	{"register", 3},
	{"login_success", 18},
	{"login_failed", 2},
	{"logout", 10},
	{"upload_attempt", 10},
	{"upload_success", 16},
	{"upload_failed", 4},
	{"quota_near_limit", 5},
	{"quota_reached", 2},
	{"payment_succeeded", 5},
	{"payment_failed", 2},
	{"plan_upgraded", 3},
	{"plan_downgraded", 1},
	{"usage_reset", 2},
	{"retention_over_2min", 6},
}

const (
	freePlan     = "Free"
	premiumPlan  = "Premium"
	freeQuota    = 10
	premiumQuota = 200
	paymentCents = 200
)

// Options configures a generation run.
type Options struct {
	Events int           // rows to emit (default 500)
	Users  int           // distinct users (default 60)
	Start  time.Time     // first event time (default 30 days ago)
	Step   time.Duration // spacing between primary events (default 90m)
	Seed   int64         // 0 picks a random seed
}

func (o Options) withDefaults() Options {
	if o.Events <= 0 {
		o.Events = 500
	}
	if o.Users <= 0 {
		o.Users = 60
	}
	if o.Start.IsZero() {
		o.Start = time.Now().UTC().Add(-30 * 24 * time.Hour)
	}
	if o.Step <= 0 {
		o.Step = 90 * time.Minute
	}
	return o
}

// Row is one generated CSV row.
type Row struct {
	Event      string
	DistinctID string
	Timestamp  time.Time
	Properties map[string]any
	UUID       string
}

// Record renders the row in Header order.
func (r Row) Record() ([]string, error) {
	props := r.Properties
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	return []string{
		r.Event,
		r.DistinctID,
		r.Timestamp.UTC().Format(time.RFC3339),
		string(b),
		r.UUID,
	}, nil
}

type userState struct {
	plan    string
	uploads int
	quota   int
}

// Generator produces rows from a seeded faker.
type Generator struct {
	opts   Options
	faker  *gofakeit.Faker
	users  []string
	state  map[string]*userState
	names  []any
	weight []float32
}

// New creates a generator.
func New(opts Options) *Generator {
	opts = opts.withDefaults()

	g := &Generator{
		opts:  opts,
		faker: gofakeit.New(opts.Seed),
		state: make(map[string]*userState, opts.Users),
	}
	for i := 0; i < opts.Users; i++ {
		u := fmt.Sprintf("u-%d", 1000+i)
		g.users = append(g.users, u)
		g.state[u] = &userState{plan: freePlan, quota: freeQuota}
	}
	for _, ew := range eventWeights {
		g.names = append(g.names, ew.name)
		g.weight = append(g.weight, ew.weight)
	}
	return g
}

// Generate returns exactly opts.Events rows. Derived events count towards
// the total, so the tail of the primary sequence is cut when they overflow.
func (g *Generator) Generate() ([]Row, error) {
	rows := make([]Row, 0, g.opts.Events+g.opts.Events/4)

	for i := 0; i < g.opts.Events; i++ {
		user := g.users[g.faker.Number(0, len(g.users)-1)]
		picked, err := g.faker.Weighted(g.names, g.weight)
		if err != nil {
			return nil, fmt.Errorf("pick event: %w", err)
		}
		ev := picked.(string)

		props, derived := g.apply(i, user, ev)
		rows = append(rows, derived...)
		rows = append(rows, Row{
			Event:      ev,
			DistinctID: user,
			Timestamp:  g.timestamp(i),
			Properties: props,
			UUID:       g.faker.UUID(),
		})
	}

	if len(rows) > g.opts.Events {
		rows = rows[:g.opts.Events]
	}
	return rows, nil
}

// apply updates the user's state for ev and returns its properties plus any
// events derived from it.
func (g *Generator) apply(i int, user, ev string) (map[string]any, []Row) {
	s := g.state[user]
	var derived []Row

	switch ev {
	case "register", "login_success":
		return map[string]any{"plan": s.plan}, nil

	case "login_failed":
		return map[string]any{"reason": g.faker.RandomString([]string{"bad password", "rate_limit", "captcha_failed"})}, nil

	case "upload_failed":
		return map[string]any{"reason": g.faker.RandomString([]string{"timeout", "file_too_large", "network_error"})}, nil

	case "upload_success":
		if s.uploads < s.quota {
			s.uploads++
		}
		pct := quotaPct(s)
		if pct >= 0.8 && pct < 1 && g.faker.Float64() < 0.5 {
			derived = append(derived, g.derive(i, user, "quota_near_limit", 5*time.Second, usage(s, pct)))
		}
		if pct >= 1 && g.faker.Float64() < 0.6 {
			derived = append(derived, g.derive(i, user, "quota_reached", 8*time.Second, usage(s, 1)))
		}
		return usage(s, pct), derived

	case "quota_near_limit":
		s.uploads = min(max(s.uploads, int(0.8*float64(s.quota))), s.quota-1)
		return usage(s, quotaPct(s)), nil

	case "quota_reached":
		s.uploads = s.quota
		return usage(s, 1), nil

	case "payment_succeeded":
		s.plan, s.quota = premiumPlan, premiumQuota
		derived = append(derived, g.derive(i, user, "plan_upgraded", 6*time.Second, map[string]any{"quota": s.quota}))
		return map[string]any{"provider": "stripe", "amount": paymentCents}, derived

	case "payment_failed":
		return map[string]any{"provider": "stripe", "amount": paymentCents}, nil

	case "plan_upgraded":
		s.plan, s.quota = premiumPlan, premiumQuota
		return map[string]any{"quota": s.quota}, nil

	case "plan_downgraded":
		s.plan, s.quota = freePlan, freeQuota
		s.uploads = min(s.uploads, s.quota)
		return map[string]any{"quota": s.quota}, nil

	case "usage_reset":
		s.uploads = 0
		return map[string]any{"plan": s.plan}, nil
	}

	// logout, upload_attempt, retention_over_2min
	return map[string]any{}, nil
}

func (g *Generator) derive(i int, user, ev string, after time.Duration, props map[string]any) Row {
	return Row{
		Event:      ev,
		DistinctID: user,
		Timestamp:  g.timestamp(i).Add(after),
		Properties: props,
		UUID:       g.faker.UUID(),
	}
}

// timestamp spaces primary events evenly with up to 79s of jitter.
func (g *Generator) timestamp(i int) time.Time {
	jitter := time.Duration(g.faker.Number(0, 79)) * time.Second
	return g.opts.Start.Add(time.Duration(i)*g.opts.Step + jitter).Truncate(time.Second)
}

func quotaPct(s *userState) float64 {
	return math.Round(float64(s.uploads)/float64(s.quota)*1000) / 1000
}

func usage(s *userState, pct float64) map[string]any {
	return map[string]any{"uploads": s.uploads, "quota": s.quota, "quotaPct": pct}
}

// Write emits the header and rows as CSV.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec, err := r.Record()
		if err != nil {
			return err
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
