package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voiceptt/internal/bootstrap"
	"voiceptt/internal/domain"
	"voiceptt/internal/logsink"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "voiceptt",
	Short: "Push-to-talk voice assistant client",
	Long:  `voiceptt records a spoken turn, sends it through speech recognition, chat and speech synthesis, and plays the reply.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "voiceptt %s\n", version)
		fmt.Fprintf(out, "Commit: %s\n", commit)
		fmt.Fprintf(out, "Built: %s\n", buildDate)
	},
}

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Talk to the assistant from the terminal",
	Long:  `Press Enter to start recording and Enter again to send. Ctrl-D quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := build(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = services.Logger.Sync() }()
		defer services.Player.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Endpoint: %s\nPress Enter to talk, Enter again to send, Ctrl-D to quit.\n", services.API.BaseURL())
		return runTalk(ctx, cmd.InOrStdin(), services.Capture)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check microphone access",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := build(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = services.Logger.Sync() }()
		return services.Capture.ProbeMicrophone(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(talkCmd)
	rootCmd.AddCommand(probeCmd)

	rootCmd.PersistentFlags().String("api-base", "", "Voice API base URL (overrides VOICEPTT_API_BASE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func build(cmd *cobra.Command) (bootstrap.Services, error) {
	apiBase, _ := cmd.Flags().GetString("api-base")
	services, err := bootstrap.Build(logsink.NewWriter(cmd.OutOrStdout()), nil, bootstrap.WithAPIBase(apiBase))
	if err != nil {
		return bootstrap.Services{}, fmt.Errorf("failed to build services: %w", err)
	}
	return services, nil
}

// talkSession is the part of the capture session the terminal loop drives.
type talkSession interface {
	Start(ctx context.Context) error
	Stop() bool
	Abort() error
	Wait(ctx context.Context) error
	Status() domain.Status
}

// runTalk toggles recording on every input line. Input EOF or ctx
// cancellation discards an unfinished recording and waits for the cycle to
// wind down.
func runTalk(ctx context.Context, in io.Reader, session talkSession) error {
	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return shutdownTalk(session)
		case _, ok := <-lines:
			if !ok {
				return shutdownTalk(session)
			}
			if err := toggle(ctx, session); err != nil {
				return err
			}
		}
	}
}

func toggle(ctx context.Context, session talkSession) error {
	if session.Status().State == domain.CaptureStateRecording {
		session.Stop()
		return session.Wait(ctx)
	}
	err := session.Start(ctx)
	switch {
	case err == nil, errors.Is(err, domain.ErrCaptureBusy), errors.Is(err, domain.ErrPermission):
		// Permission failures are already in the activity log; the next
		// press tries again.
		return nil
	default:
		return err
	}
}

func shutdownTalk(session talkSession) error {
	if err := session.Abort(); err != nil && !errors.Is(err, domain.ErrNoActiveCapture) {
		return err
	}
	return session.Wait(context.Background())
}
