package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/logging"
)

type demoDoctor struct {
	Name       string
	Department string
	Gender     string
	Education  string
	Languages  []string
	TimeSlots  []string
}

var specialties = []struct {
	Name        string
	Description string
}{
	{"กระดูกและข้อ", "Orthopedics"},
	{"อายุรกรรม", "Internal medicine"},
	{"หัวใจ", "Cardiology"},
	{"กุมารเวช", "Pediatrics"},
	{"ผิวหนัง", "Dermatology"},
	{"จักษุ", "Ophthalmology"},
}

// The first four rows get ids 1-4 on an empty table, which are the ids the
// availability catalog carries hand-made templates for.
var demoDoctors = []demoDoctor{
	{"นพ. สมชาย ใจดี", "กระดูกและข้อ", "male", "Mahidol University", []string{"Thai", "English"}, []string{"9:00-10:00", "10:00-11:00", "13:00-14:00"}},
	{"พญ. สมศรี รักษา", "อายุรกรรม", "female", "Chulalongkorn University", []string{"Thai"}, []string{"9:00-10:00", "10:00-11:00", "13:00-14:00"}},
	{"นพ. วิชัย หัวใจดี", "หัวใจ", "male", "Chiang Mai University", []string{"Thai", "English", "Chinese"}, []string{"16:00-17:00", "17:00-18:00"}},
	{"พญ. นภา เด็กดี", "กุมารเวช", "female", "Khon Kaen University", []string{"Thai", "English"}, []string{"8:00-9:00", "9:00-10:00"}},
}

var defaultSlots = []string{"9:00-10:00", "10:00-11:00", "11:00-12:00"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("dev", "info")
		bootLog.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel).With().Str("service", "seed").Logger()
	logger.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PoolOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	if err := seedSpecialties(ctx, pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed specialties")
	}
	if err := seedDoctors(ctx, pool, faker, getEnvInt("SEED_EXTRA_DOCTORS", 20), logger); err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedUsers(ctx, pool, faker, getEnvInt("SEED_PATIENTS", 50), logger); err != nil {
		logger.Fatal().Err(err).Msg("seed users")
	}

	logger.Info().Msg("seed complete")
}

func seedSpecialties(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	for _, s := range specialties {
		_, err := pool.Exec(ctx, `
			INSERT INTO specialties (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, s.Name, s.Description)
		if err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(specialties)).Msg("specialties seeded")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, extra int, logger zerolog.Logger) error {
	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM doctors`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		logger.Info().Int("existing", existing).Msg("doctors already present, skipping")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	all := append([]demoDoctor{}, demoDoctors...)
	for i := 0; i < extra; i++ {
		gender := faker.RandomString([]string{"male", "female"})
		prefix := "นพ."
		if gender == "female" {
			prefix = "พญ."
		}
		all = append(all, demoDoctor{
			Name:       fmt.Sprintf("%s %s %s", prefix, faker.FirstName(), faker.LastName()),
			Department: specialties[faker.Number(0, len(specialties)-1)].Name,
			Gender:     gender,
			Education:  faker.City() + " University",
			Languages:  []string{"Thai", faker.Language()},
			TimeSlots:  defaultSlots,
		})
	}

	for _, d := range all {
		description := fmt.Sprintf("%s specialist with %d years of practice in %s.", d.Department, faker.Number(3, 30), faker.City())
		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (name, specialty_id, department, gender, education, languages, description, time_slots)
			VALUES ($1, (SELECT id FROM specialties WHERE name = $2), $2, $3, $4, $5, $6, $7)
		`, d.Name, d.Department, d.Gender, d.Education, d.Languages, description, d.TimeSlots)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info().Int("count", len(all)).Msg("doctors seeded")
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, patients int, logger zerolog.Logger) error {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	insert := `
		INSERT INTO users (email, name, role, password_hash, doctor_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`

	batch.Queue(insert, "admin@clinic.local", "Clinic Admin", string(auth.RoleAdmin), hash, nil)
	for i, d := range demoDoctors {
		batch.Queue(insert, fmt.Sprintf("doctor%d@clinic.local", i+1), d.Name, string(auth.RoleDoctor), hash, d.Name)
	}
	for i := 0; i < patients; i++ {
		batch.Queue(insert, faker.Email(), faker.Name(), string(auth.RolePatient), hash, nil)
	}

	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	logger.Info().Int("patients", patients).Str("password", "password123").Msg("users seeded")
	return nil
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
