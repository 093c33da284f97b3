package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/manifest"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/session"

	_ "github.com/activeharmony/harmony/internal/stages" // registers the built-in pipeline stages
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Drive a tuning session against a manifest",
	Long:  `Loads a manifest, builds the session it describes, and loops FETCH/REPORT against a built-in evaluator until the strategy converges or --max-iterations is reached.`,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("manifest", "", "path to the session manifest YAML file")
	runCmd.Flags().String("eval", "sphere", "built-in evaluator to score candidates with")
	runCmd.Flags().Int("max-iterations", 10000, "stop after this many FETCH calls even if the strategy has not converged")
	runCmd.Flags().Bool("verbose", false, "log every reported point")
	_ = runCmd.MarkFlagRequired("manifest")
}

func runRun(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("manifest")
	evalName, _ := cmd.Flags().GetString("eval")
	maxIter, _ := cmd.Flags().GetInt("max-iterations")
	verbose, _ := cmd.Flags().GetBool("verbose")

	eval, ok := builtinEvaluators[evalName]
	if !ok {
		return fmt.Errorf("run: unknown evaluator %q", evalName)
	}

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	sp, err := m.BuildSpace()
	if err != nil {
		return fmt.Errorf("run: building space: %w", err)
	}
	cfg := m.BuildConfiguration()

	level := harmonylog.LevelInfo
	if verbose {
		level = harmonylog.LevelDebug
	}
	log := harmonylog.New(harmonylog.Config{Level: level, Format: harmonylog.FormatConsole})

	sess, err := session.New(cfg, sp, log)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	clientID := uuid.NewString()
	if verbose {
		log.Debug("joining session", map[string]any{"client_id": clientID})
	}
	if err := sess.Join(clientID); err != nil {
		return fmt.Errorf("run: join: %w", err)
	}

	var bestKnownID uint32
	iterations := 0
	for iterations < maxIter {
		if sess.Converged() {
			break
		}
		candidate, best, busy, err := sess.Fetch(bestKnownID)
		if err != nil {
			return fmt.Errorf("run: fetch: %w", err)
		}
		if best != nil {
			bestKnownID = best.ID
		}
		if busy {
			// No outstanding work and the strategy is momentarily idle; in
			// the single-threaded demo loop there is nothing else to drive
			// it forward, so this is where a real transport would wait on
			// the next client event instead.
			break
		}
		iterations++

		perf, err := eval(candidate, sp)
		if err != nil {
			return fmt.Errorf("run: evaluating point %d: %w", candidate.ID, err)
		}
		if err := sess.Report(candidate.ID, perf); err != nil {
			return fmt.Errorf("run: report: %w", err)
		}
		if verbose {
			log.Debug(point.FormatUnified(candidate, perf), nil)
		}
	}

	if err := sess.Fini(); err != nil {
		return fmt.Errorf("run: fini: %w", err)
	}

	best, err := sess.Best()
	if err != nil {
		return fmt.Errorf("run: best: %w", err)
	}
	if best.ID == point.NoID {
		fmt.Println("no point reported")
		return nil
	}
	fmt.Printf("iterations: %d\n", iterations)
	fmt.Printf("converged: %v\n", sess.Converged())
	fmt.Printf("best: %s\n", best.Format())
	return nil
}
