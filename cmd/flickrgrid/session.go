package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"flickrgrid/pkg/auth"
	"flickrgrid/pkg/config"
	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/job"
	"flickrgrid/pkg/logger"
	"flickrgrid/pkg/metrics"
	"flickrgrid/pkg/ui"
)

// session bundles what every zone command needs: the merged configuration,
// a logger tagged with the run id, the job and its metrics.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	job     *job.Job
	metrics *metrics.Metrics
	runID   string
}

// newSession loads configuration for cmd and builds the zone job. Stages
// that call the Flickr API pass needCredentials so a missing key pair fails
// before any file is touched.
func newSession(cmd *cobra.Command, needCredentials bool) (*session, error) {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		return nil, ferrors.Configuration("flickrgrid", "%v", err)
	}
	if err := cfg.RequireZone(); err != nil {
		return nil, ferrors.Configuration("flickrgrid", "%v", err)
	}
	if needCredentials {
		if err := resolveCredentials(cfg); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	base, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, ferrors.Configuration("flickrgrid", "%v", err)
	}
	log := base.WithFields(map[string]interface{}{
		"run_id":  runID,
		"version": version,
		"command": cmd.Name(),
	})

	j, err := job.New(cfg.Paths.OutputDir, cfg.Paths.InputDir, cfg.Job)
	if err != nil {
		return nil, err
	}

	m, err := metrics.New(j.Zone)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, log: log, job: j, metrics: m, runID: runID}, nil
}

// resolveCredentials fills the API key pair from the credential store when
// neither flags, environment nor config file provided one, or when a stored
// account was requested explicitly.
func resolveCredentials(cfg *config.Config) error {
	if accountName == "" && cfg.RequireCredentials() == nil {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return ferrors.Configuration("flickrgrid", "failed to initialize credential manager: %v", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			return ferrors.Configuration("flickrgrid", "account %q not found; run 'flickrgrid auth list' to see stored accounts", accountName)
		}
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil && !errors.Is(err, auth.ErrCredentialsNotFound) {
			return ferrors.Configuration("flickrgrid", "failed to read stored credentials: %v", err)
		}
	}

	if account != nil {
		cfg.Flickr.APIKey = account.APIKey
		cfg.Flickr.APISecret = account.APISecret
	}

	if err := cfg.RequireCredentials(); err != nil {
		return ferrors.Configuration("flickrgrid", "%v; run 'flickrgrid auth login' or set FLICKR_API_KEY and FLICKR_API_SECRET", err)
	}
	return nil
}

// printConfiguration echoes the effective job settings before a stage starts.
func (s *session) printConfiguration(title string, extra ...ui.Field) {
	j := s.job
	fields := []ui.Field{
		{Label: "Zone", Value: j.Zone},
		{Label: "Coordinates file", Value: j.CoordinatesFile},
		{Label: "Delimiter", Value: strconv.QuoteRune(j.Delimiter)},
		{Label: "Start year", Value: strconv.Itoa(j.StartYear)},
		{Label: "End year", Value: strconv.Itoa(j.EndYear)},
		{Label: "XX column", Value: strconv.Itoa(j.Columns.X1)},
		{Label: "YX column", Value: strconv.Itoa(j.Columns.Y1)},
		{Label: "XY column", Value: strconv.Itoa(j.Columns.X2)},
		{Label: "YY column", Value: strconv.Itoa(j.Columns.Y2)},
		{Label: "Output", Value: j.Layout.Base},
	}
	ui.PrintBanner(title, append(fields, extra...))
}

// finish writes the metrics textfile and sends the completion notification.
// It returns err unchanged.
func (s *session) finish(stage string, err error) error {
	if werr := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); werr != nil {
		s.log.WithError(werr).Warn("Failed to write metrics textfile")
	}

	if notify {
		n := ui.NewNotifier()
		if err != nil {
			n.SendError("flickrgrid", fmt.Sprintf("%s failed for zone %s: %v", stage, s.job.Zone, err))
		} else {
			n.SendSuccess("flickrgrid", fmt.Sprintf("%s finished for zone %s", stage, s.job.Zone))
		}
	}
	return err
}
