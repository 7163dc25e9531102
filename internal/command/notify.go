// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cikit/internal/meta"
	"github.com/staranto/cikit/internal/notify"
	"github.com/staranto/cikit/internal/output"
)

// NotifyOptions are the validated inputs of the notify command.
type NotifyOptions struct {
	Status        string `validate:"required,oneof=success cancelled failure"`
	GitHubContext string `flag:"github-context" validate:"required,json"`
	Webhook       string `validate:"required_without=DryRun,omitempty,url"`
	Retries       int    `validate:"gte=0,lte=10"`
	DryRun        bool   `flag:"dry-run"`
}

// NotifyCommandAction is the action handler for the "notify" subcommand. It
// posts the job outcome to Slack.
func NotifyCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts := NotifyOptions{
		Status:        cmd.String("status"),
		GitHubContext: cmd.String("github-context"),
		Webhook:       cmd.String("webhook"),
		Retries:       int(cmd.Int("retries")),
		DryRun:        cmd.Bool("dry-run"),
	}
	if err := ValidateOptions(opts); err != nil {
		return err
	}

	run, err := notify.ParseRun(opts.GitHubContext)
	if err != nil {
		return err
	}
	payload, err := notify.Build(opts.Status, run)
	if err != nil {
		return err
	}

	if opts.DryRun {
		log.Info("Dry run, not posting.")
		return output.Emit(os.Stdout, output.Options{Format: "json"}, payload, nil, nil)
	}

	if err := notify.NewClient(opts.Webhook, opts.Retries).Send(ctx, payload); err != nil {
		return err
	}
	log.Infof("Notified Slack: %s", payload.Attachments[0].Fallback)
	return nil
}

// NotifyCommandBuilder constructs the cli.Command definition for the
// "notify" command.
func NotifyCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "notify",
		Usage:     "post a deployment result to Slack",
		UsageText: `cikit notify [options]`,
		Flags: []cli.Flag{
			newDryRunFlag(),
			NewStringFlag("notify", "status", "job status (success, cancelled, failure)", "", "JOB_STATUS"),
			NewStringFlag("notify", "github-context", "the github context as JSON", "", "GITHUB_ENVIRONMENT"),
			&cli.StringFlag{
				Name:    "webhook",
				Usage:   "Slack incoming webhook URL",
				Sources: cli.NewValueSourceChain(cli.EnvVar("SLACK_WEBHOOK")),
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "retries on transient webhook failures",
				Value: 2,
			},
		},
		Action: NotifyCommandAction,
		Meta:   meta,
	}).Build()
}
