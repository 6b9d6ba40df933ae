package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/5w1tchy/library-api/internal/circulation"
	"github.com/5w1tchy/library-api/internal/models"
)

// PastDueLister is the engine query the sweep reads.
type PastDueLister interface {
	PastDue(ctx context.Context, today models.Date) ([]models.Book, error)
}

// Locker is the Redis SET NX primitive. *redis.Client satisfies it.
type Locker interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// ReportSink stores the JSON report. *s3.S3Client satisfies it.
type ReportSink interface {
	PutObject(ctx context.Context, objectKey, contentType string, body []byte) error
}

type PastDueEntry struct {
	BookID    int64       `json:"book_id"`
	Title     string      `json:"title"`
	ReaderID  int64       `json:"reader_id"`
	TakenDate models.Date `json:"taken_date"`
	DueDate   models.Date `json:"due_date"`
	DaysLate  int         `json:"days_late"`
}

type Report struct {
	Date  models.Date    `json:"date"`
	Count int            `json:"count"`
	Books []PastDueEntry `json:"books"`
}

// PastDueSweep lists the loans that ran past their due date. One instance
// per day does the work; the others find the lock taken and skip.
type PastDueSweep struct {
	books   PastDueLister
	lock    Locker
	sink    ReportSink
	clock   circulation.Clock
	lockTTL time.Duration
	timeout time.Duration
}

type Option func(*PastDueSweep)

// WithLock enables the Redis SET NX guard.
func WithLock(l Locker) Option { return func(s *PastDueSweep) { s.lock = l } }

// WithReportSink uploads every report.
func WithReportSink(sink ReportSink) Option { return func(s *PastDueSweep) { s.sink = sink } }

func WithClock(c circulation.Clock) Option { return func(s *PastDueSweep) { s.clock = c } }

func NewPastDueSweep(books PastDueLister, opts ...Option) *PastDueSweep {
	s := &PastDueSweep{
		books:   books,
		clock:   circulation.SystemClock(time.UTC),
		lockTTL: 10 * time.Minute,
		timeout: 2 * time.Minute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ReportKey is the object key of the report for day.
func ReportKey(day models.Date) string {
	return "reports/past-due/" + day.String() + ".json"
}

// RunOnce performs one sweep. ran is false when another instance holds the
// lock for today.
func (s *PastDueSweep) RunOnce(ctx context.Context) (rep Report, ran bool, err error) {
	today := models.DateOf(s.clock.Now())

	if s.lock != nil {
		ok, err := s.lock.SetNX(ctx, "lock:sweep:past-due:"+today.String(), "1", s.lockTTL).Result()
		if err != nil {
			return Report{}, false, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			log.Printf("[sweep] %s already swept by another instance", today)
			return Report{}, false, nil
		}
	}

	books, err := s.books.PastDue(ctx, today)
	if err != nil {
		return Report{}, true, fmt.Errorf("list past-due books: %w", err)
	}
	rep = buildReport(today, books)
	log.Printf("[sweep] %s: %d book(s) past due", today, rep.Count)

	if s.sink != nil {
		body, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return rep, true, err
		}
		if err := s.sink.PutObject(ctx, ReportKey(today), "application/json", body); err != nil {
			return rep, true, err
		}
		log.Printf("[sweep] report uploaded to %s", ReportKey(today))
		if p, ok := s.sink.(interface {
			PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
		}); ok {
			if url, err := p.PresignGet(ctx, ReportKey(today), 24*time.Hour); err == nil {
				log.Printf("[sweep] report link (24h): %s", url)
			}
		}
	}
	return rep, true, nil
}

func buildReport(today models.Date, books []models.Book) Report {
	rep := Report{Date: today, Books: make([]PastDueEntry, 0, len(books))}
	for _, b := range books {
		due, ok := b.DueDate()
		if !ok || b.ReaderID == nil {
			continue
		}
		rep.Books = append(rep.Books, PastDueEntry{
			BookID:    b.ID,
			Title:     b.Title,
			ReaderID:  *b.ReaderID,
			TakenDate: *b.TakenDate,
			DueDate:   due,
			DaysLate:  today.DaysSince(due),
		})
	}
	rep.Count = len(rep.Books)
	return rep
}

// Start schedules the sweep with a standard five-field cron spec in loc and
// stops it when ctx is done. Failures are logged, never fatal.
func (s *PastDueSweep) Start(ctx context.Context, spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if _, _, err := s.RunOnce(runCtx); err != nil {
			log.Printf("[sweep] run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	log.Printf("[sweep] scheduled %q (%s)", spec, loc)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
