package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChinaCraig/Zy/internal/session"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

func newJointsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:         "joints [model]",
		Short:       "List the controllable joints of a glTF/VRM model",
		Long:        "List the joints a model exposes, in registry order, with their labels and rest rotations in degrees. Defaults to the configured model.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationQuiet: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.loadSession(modelArg(c, args, 0))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tX\tY\tZ")
			for _, j := range sess.Joints() {
				fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\n", j.ID, j.Label, j.Degrees[0], j.Degrees[1], j.Degrees[2])
			}
			return tw.Flush()
		},
	}
}

func newInterpretCmd(c *cli) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:         "interpret [text...]",
		Short:       "Run chat input through the pose command rules",
		Long:        "Interpret each argument as a chat message against a loaded model and print the reply and the joints it moved. Input that is not a pose command is reported as chat.",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationQuiet: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				model = c.cfg.Model.Path
			}
			sess, err := c.loadSession(model)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			for _, text := range args {
				before := sess.Joints()
				msg, err := sess.Submit(ctx, text)
				switch {
				case errors.Is(err, session.ErrNoBackend):
					fmt.Fprintf(c.out, "%s\t(chat)\n", text)
					continue
				case err != nil:
					return err
				}
				fmt.Fprintf(c.out, "%s\t%s\n", text, msg.Text)
				printMoved(c, before, sess.Joints())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model file (default is the configured model)")
	return cmd
}

// loadSession builds a backend-less session with the joints of path.
func (c *cli) loadSession(path string) (*session.Session, error) {
	rest, err := skeleton.LoadModel(path)
	if err != nil {
		return nil, err
	}
	sess := session.New(nil, session.Options{StepDelay: c.cfg.Control.StepDelay}, c.syslog.Zerolog())
	if sess.ModelReady(rest) == 0 {
		return nil, fmt.Errorf("%s: %w", path, skeleton.ErrNoJoints)
	}
	return sess, nil
}

func modelArg(c *cli, args []string, i int) string {
	if len(args) > i && strings.TrimSpace(args[i]) != "" {
		return args[i]
	}
	return c.cfg.Model.Path
}

func printMoved(c *cli, before, after []session.JointState) {
	for i, j := range after {
		if i >= len(before) || j.Rotation == before[i].Rotation {
			continue
		}
		fmt.Fprintf(c.out, "  %s\t%.1f %.1f %.1f\n", j.ID, j.Degrees[0], j.Degrees[1], j.Degrees[2])
	}
}
