// Command formctl is the developer tool for working with form definitions:
// validation against the JSON Schema, dry-running logic rules against an
// answer set, and previewing gates and confirmation messages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/gate"
	"github.com/xordon/webform-go/internal/logic"
	"github.com/xordon/webform-go/internal/schema"
)

func main() {
	app := &cli.Command{
		Name:  "formctl",
		Usage: "inspect and dry-run form definitions",
		Commands: []*cli.Command{
			newValidateCommand(),
			newEvalCommand(),
			newGateCommand(),
		},
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate a form definition file",
		ArgsUsage: "<form.json>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one form file")
			}
			path := cmd.Args().First()
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			form, err := schema.ParseForm(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, warn := range domain.LintRules(form) {
				fmt.Printf("warning: %s\n", warn)
			}
			fmt.Printf("%s: ok (%d fields, %d logic rules)\n",
				path, len(form.Fields), len(form.Settings.LogicRules))
			return nil
		},
	}
}

func newEvalCommand() *cli.Command {
	return &cli.Command{
		Name:  "eval",
		Usage: "evaluate logic rules against an answer set",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "form", Aliases: []string{"f"}, Usage: "form definition file", Required: true},
			&cli.StringFlag{Name: "answers", Aliases: []string{"a"}, Usage: "answers JSON file"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			form, err := loadForm(cmd.String("form"))
			if err != nil {
				return err
			}
			data, err := loadAnswers(cmd.String("answers"))
			if err != nil {
				return err
			}

			hidden := logic.HiddenFieldIDs(form.Settings.LogicRules, data)
			ids := make([]string, 0, len(hidden))
			for id := range hidden {
				ids = append(ids, id.String())
			}
			sort.Strings(ids)

			fmt.Printf("hidden fields: %d\n", len(ids))
			for _, id := range ids {
				fmt.Printf("  - %s\n", id)
			}
			for _, f := range logic.VisibleRequiredFields(form.Fields, hidden) {
				if domain.EmptyAnswer(data[string(f.ID)]) {
					fmt.Printf("missing required: %s (%s)\n", f.Label, f.ID)
				}
			}

			conf := logic.ResolveConfirmation(form, data, "preview", time.Now())
			fmt.Printf("confirmation: %s\n", conf.Message)
			if conf.RedirectURL != "" {
				fmt.Printf("redirect: %s after %s\n", conf.RedirectURL, conf.Delay)
			}
			return nil
		},
	}
}

func newGateCommand() *cli.Command {
	return &cli.Command{
		Name:  "gate",
		Usage: "show the gate decision for a visitor",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "form", Aliases: []string{"f"}, Usage: "form definition file", Required: true},
			&cli.BoolFlag{Name: "authenticated", Usage: "visitor is logged in"},
			&cli.BoolFlag{Name: "password-verified", Usage: "visitor passed the password check"},
			&cli.BoolFlag{Name: "captcha-verified", Usage: "visitor passed the CAPTCHA"},
			&cli.BoolFlag{Name: "submitted", Usage: "visitor already submitted this form"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			form, err := loadForm(cmd.String("form"))
			if err != nil {
				return err
			}
			d := gate.Evaluate(form, gate.Visitor{
				Authenticated:    cmd.Bool("authenticated"),
				PasswordVerified: cmd.Bool("password-verified"),
				CaptchaVerified:  cmd.Bool("captcha-verified"),
				HasSubmitted:     cmd.Bool("submitted"),
			}, time.Now())
			fmt.Printf("state: %s\n", d.State)
			if d.Details != "" {
				fmt.Printf("details: %s\n", d.Details)
			}
			if d.Boundary != nil {
				fmt.Printf("boundary: %s\n", d.Boundary.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func loadForm(path string) (*domain.Form, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	form, err := schema.ParseForm(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return form, nil
}

func loadAnswers(path string) (domain.SubmissionData, error) {
	if path == "" {
		return domain.SubmissionData{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data domain.SubmissionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
