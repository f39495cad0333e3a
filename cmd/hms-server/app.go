package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/activity"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/dashboard"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/pharmacy"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/domain/ward"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/seed"
)

const tokenIssuer = "hms"

// services holds every domain service, wired to one pool.
type services struct {
	activity   *activity.Service
	identity   *identity.Service
	doctor     *doctor.Service
	billing    *billing.Service
	scheduling *scheduling.Service
	ward       *ward.Service
	pharmacy   *pharmacy.Service
	patient    *patient.Service
	dashboard  *dashboard.Service
}

type serviceOptions struct {
	signingKey   []byte
	tokenTTL     time.Duration
	location     *time.Location
	dashboardTTL time.Duration
}

func newServices(pool *pgxpool.Pool, logger zerolog.Logger, opts serviceOptions) *services {
	tx := db.NewTransactor(pool)

	activitySvc := activity.NewService(activity.NewRepoPG(pool), logger)
	tokens := auth.NewTokenIssuer(opts.signingKey, tokenIssuer, opts.tokenTTL)
	identitySvc := identity.NewService(identity.NewRepoPG(pool), tokens, activitySvc)
	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool), identitySvc, tx, activitySvc)
	billingSvc := billing.NewService(billing.NewRepoPG(pool), opts.location)
	schedulingSvc := scheduling.NewService(scheduling.NewRepoPG(pool), doctorSvc, billingSvc, tx, activitySvc, opts.location)
	wardSvc := ward.NewService(ward.NewRepoPG(pool), billingSvc, tx, activitySvc)
	pharmacySvc := pharmacy.NewService(pharmacy.NewRepoPG(pool), billingSvc, tx, activitySvc)
	patientSvc := patient.NewService(patient.NewRepoPG(pool), schedulingSvc, billingSvc, wardSvc, tx, activitySvc, opts.location)
	dashboardSvc := dashboard.NewService(dashboard.NewRepoPG(pool), opts.location, opts.dashboardTTL)

	return &services{
		activity:   activitySvc,
		identity:   identitySvc,
		doctor:     doctorSvc,
		billing:    billingSvc,
		scheduling: schedulingSvc,
		ward:       wardSvc,
		pharmacy:   pharmacySvc,
		patient:    patientSvc,
		dashboard:  dashboardSvc,
	}
}

func (s *services) seeder(logger zerolog.Logger) *seed.Seeder {
	return &seed.Seeder{
		Users:    s.identity,
		Doctors:  s.doctor,
		Wards:    s.ward,
		Drugs:    s.pharmacy,
		Patients: s.patient,
		Logger:   logger,
	}
}

// cliServices builds the services for one-shot commands. No tokens are issued
// there, so a generated signing key is fine.
func cliServices(cfg *config.Config, pool *pgxpool.Pool) (*services, error) {
	key, _, err := resolveSigningKey(cfg)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return newServices(pool, zerolog.Nop(), serviceOptions{
		signingKey: key,
		tokenTTL:   cfg.AuthTokenTTL,
		location:   loc,
	}), nil
}
