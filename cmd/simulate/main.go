package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/apiclient"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/doctor"
	"github.com/hackgods/clinic-booking/internal/logging"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	AutoRatio   float64
	BackRatio   float64
	HistoryRead float64
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, err error) {
	atomic.AddInt64(&om.Total, 1)
	var apiErr *apiclient.APIError
	switch {
	case err == nil:
		atomic.AddInt64(&om.Success, 1)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Walkthrough OperationMetrics
	Confirm     OperationMetrics
	Receipt     OperationMetrics
	History     OperationMetrics
}

type Simulator struct {
	config  SimConfig
	doctors []doctor.Doctor
	metrics Metrics
	logger  zerolog.Logger
}

func main() {
	logger := logging.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info")).With().Str("service", "simulate").Logger()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("auto_ratio", cfg.AutoRatio).
		Float64("back_ratio", cfg.BackRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	catalog := apiclient.New(cfg.APIBaseURL, nil)
	doctors, err := catalog.Doctors(ctx, doctor.Criteria{})
	if err != nil {
		logger.Fatal().Err(err).Msg("load doctors")
	}
	if len(doctors) == 0 {
		logger.Fatal().Msg("no doctors found, run cmd/seed first")
	}
	logger.Info().Int("doctors", len(doctors)).Msg("catalog loaded")

	sim := &Simulator{config: cfg, doctors: doctors, logger: logger}
	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		AutoRatio:   getFloat("SIM_AUTO_RATIO", 0.5),
		BackRatio:   getFloat("SIM_BACK_RATIO", 0.2),
		HistoryRead: getFloat("SIM_HISTORY_RATIO", 0.3),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

// worker registers its own patient account and books until ctx ends.
func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	faker := gofakeit.New(uint64(time.Now().UnixNano()) + uint64(workerID))

	client := apiclient.New(s.config.APIBaseURL, &http.Client{Timeout: 10 * time.Second})
	email := fmt.Sprintf("sim-%d-%d@clinic.local", workerID, time.Now().UnixNano())
	if _, err := client.Register(ctx, auth.RegisterInput{Email: email, Password: "simulate", Name: faker.Name()}); err != nil {
		s.logger.Error().Err(err).Int("worker", workerID).Msg("register failed")
		return
	}

	for ctx.Err() == nil {
		if rng.Float64() < s.config.HistoryRead {
			start := time.Now()
			_, err := client.History(ctx)
			s.metrics.History.Record(time.Since(start), err)
			continue
		}
		s.walkthrough(ctx, client, rng, faker)
	}
}

// pick finds a doctor with an open slot this week, narrowing the catalog the
// way the doctor list page does.
func (s *Simulator) pick(ctx context.Context, client *apiclient.Client, rng *rand.Rand) (doctor.Doctor, string, string, bool) {
	var filters doctor.FilterSet
	filters.Stage(doctor.Criteria{Department: s.doctors[rng.Intn(len(s.doctors))].Department})
	filters.Apply()
	candidates := filters.Result(s.doctors)
	if len(candidates) == 0 {
		return doctor.Doctor{}, "", "", false
	}

	d := candidates[rng.Intn(len(candidates))]
	days, err := client.Availability(ctx, d.ID, time.Now().AddDate(0, 0, 1))
	if err != nil {
		return doctor.Doctor{}, "", "", false
	}
	for _, day := range days {
		for _, slot := range day.Slots {
			if slot.Available {
				return d, day.Date, slot.Time, true
			}
		}
	}
	return doctor.Doctor{}, "", "", false
}

func (s *Simulator) walkthrough(ctx context.Context, client *apiclient.Client, rng *rand.Rand, faker *gofakeit.Faker) {
	d, date, slot, ok := s.pick(ctx, client, rng)
	if !ok {
		return
	}

	start := time.Now()
	err := func() error {
		sess, err := client.StartBooking(ctx)
		if err != nil {
			return err
		}

		selection := booking.SelectionManual
		doctorName := d.Name
		if rng.Float64() < s.config.AutoRatio {
			selection = booking.SelectionAuto
			doctorName = ""
		}

		if _, err := sess.ChooseDepartment(ctx, booking.DepartmentInput{Department: d.Department, SelectionType: selection}); err != nil {
			return err
		}
		schedule := booking.ScheduleInput{DoctorName: doctorName, Date: date, Time: slot, Illness: faker.RandomString(complaints)}
		if _, err := sess.ChooseSchedule(ctx, schedule); err != nil {
			return err
		}
		if rng.Float64() < s.config.BackRatio {
			if _, err := sess.Back(ctx); err != nil {
				return err
			}
			if _, err := sess.ChooseSchedule(ctx, schedule); err != nil {
				return err
			}
		}
		if _, err := sess.SubmitPatient(ctx, fakePatient(faker)); err != nil {
			return err
		}

		confirmStart := time.Now()
		conf, err := sess.Confirm(ctx)
		s.metrics.Confirm.Record(time.Since(confirmStart), err)
		if err != nil {
			return err
		}

		receiptStart := time.Now()
		_, err = sess.Receipt(ctx)
		s.metrics.Receipt.Record(time.Since(receiptStart), err)
		if err != nil {
			return err
		}

		_, err = sess.Finish(ctx)
		s.logger.Debug().Str("queue_number", conf.QueueNumber).Str("date", date).Msg("booking finished")
		return err
	}()

	if ctx.Err() != nil {
		return
	}
	s.metrics.Walkthrough.Record(time.Since(start), err)
}

var complaints = []string{
	"persistent cough for two weeks",
	"lower back pain",
	"skin rash on both arms",
	"follow-up on blood pressure",
	"headache and blurred vision",
	"annual check-up",
}

func fakePatient(faker *gofakeit.Faker) booking.PatientRecord {
	gender := faker.RandomString([]string{"male", "female"})
	prefix := "Mr."
	if gender == "female" {
		prefix = "Ms."
	}
	return booking.PatientRecord{
		Prefix:      prefix,
		FirstName:   faker.FirstName(),
		LastName:    faker.LastName(),
		Gender:      gender,
		DateOfBirth: faker.DateRange(time.Now().AddDate(-80, 0, 0), time.Now().AddDate(-18, 0, 0)).Format(availability.DateLayout),
		Nationality: "Thai",
		CitizenID:   faker.Numerify("#############"),
		Phone:       "0" + faker.Numerify("#########"),
		Email:       faker.Email(),
		Consent:     true,
	}
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking walkthrough", &s.metrics.Walkthrough)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Receipt download", &s.metrics.Receipt)
	printOperationReport("History", &s.metrics.History)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
