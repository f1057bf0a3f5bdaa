// Command scrutiny runs the step-verification pipeline against a local
// Ollama instance, or scores a single candidate step with the remote
// classifier service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-scrutiny/infrastructure/classify"
	"github.com/ahrav/go-scrutiny/infrastructure/generation"
	"github.com/ahrav/go-scrutiny/infrastructure/llm"
	"github.com/ahrav/go-scrutiny/infrastructure/verifiers"
	"github.com/ahrav/go-scrutiny/internal/application"
	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
)

// supportedModels is the closed set of Ollama models the pipeline has been
// exercised against.
var supportedModels = []string{
	"qwen:0.5b",
	"qwen:latest",
	"meditron:7b",
	"mistral:v0.2",
	"mixtral:latest",
	"command-r:latest",
	"meditron:70b",
}

// classifyObjective is the fixed objective used by the classify command.
const classifyObjective = "build a small rocket that can reach the moon"

var (
	flagDebug         bool
	flagModel         string
	flagConfig        string
	flagClassifierURL string
)

func main() {
	root := &cobra.Command{
		Use:           "scrutiny",
		Short:         "Step-verification and constraint-driven retry pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	chatCmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Answer a message with a step-verified reasoning chain",
		Args:  cobra.ExactArgs(1),
		RunE:  runChat,
	}
	chatCmd.Flags().StringVar(&flagModel, "model", "qwen:0.5b",
		"ollama model ("+strings.Join(supportedModels, ", ")+")")
	chatCmd.Flags().StringVar(&flagConfig, "config", "", "path to pipeline config yaml")

	classifyCmd := &cobra.Command{
		Use:   "classify <step>",
		Short: "Score a single candidate step with the classifier service",
		Args:  cobra.ExactArgs(1),
		RunE:  runClassify,
	}
	classifyCmd.Flags().StringVar(&flagClassifierURL, "classifier-url", "http://localhost:8000",
		"base URL of the classifier scoring service")

	root.AddCommand(chatCmd, classifyCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if flagDebug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runChat(cmd *cobra.Command, args []string) error {
	if !slices.Contains(supportedModels, flagModel) {
		return fmt.Errorf("unsupported model %q, expected one of: %s",
			flagModel, strings.Join(supportedModels, ", "))
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	config := application.DefaultConfig()
	if flagConfig != "" {
		config, err = application.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
	}

	client, err := llm.NewClient("ollama", llm.ClientConfig{
		Model: flagModel,
		Middleware: []llm.Middleware{
			llm.RetryMiddleware(3, time.Second, 30*time.Second),
			llm.TimeoutMiddleware(2 * time.Minute),
		},
	})
	if err != nil {
		return err
	}

	backend, err := generation.NewBackend(client, logger)
	if err != nil {
		return err
	}
	judge, err := verifiers.NewJudgeVerifier(client, logger)
	if err != nil {
		return err
	}
	orchestrator, err := application.NewOrchestrator(config, backend, judge,
		application.WithLogger(logger))
	if err != nil {
		return err
	}

	result, err := orchestrator.Respond(cmd.Context(), args[0], nil)
	if err != nil {
		var violation *domain.ConstraintViolation
		var structural *domain.StructuralError
		switch {
		case errors.As(err, &violation):
			return fmt.Errorf("verification gave up after %d backtracks: %s",
				violation.Attempts, violation.Msg)
		case errors.As(err, &structural):
			return fmt.Errorf("rationale rejected: %s", structural.Msg)
		default:
			return err
		}
	}

	fmt.Println(result.Response)
	printTrace(os.Stdout, result)
	return nil
}

// printTrace writes the per-step verification trace that accompanies every
// answer: one line per step with its annotation and score.
func printTrace(w io.Writer, result *application.Result) {
	fmt.Fprintf(w, "\nround %s verified %d steps with %d backtracks:\n",
		result.RoundID, len(result.Steps), result.Backtracks)
	for _, step := range result.Steps {
		fmt.Fprintf(w, "  [%d] %-25s %.2f  %s\n",
			step.Step.Index, step.Annotation, step.Score, step.Step.Text)
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := classify.NewHTTPClient(flagClassifierURL)
	if err != nil {
		return err
	}
	verifier, err := verifiers.NewClassifierVerifier(client, logger)
	if err != nil {
		return err
	}

	annotation, score, err := verifier.VerifyStep(cmd.Context(), ports.VerifyRequest{
		Objective: classifyObjective,
		Candidate: args[0],
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s (score %.4f)\n", annotation, score)
	return nil
}
