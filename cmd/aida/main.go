package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/prompts"
	"github.com/AiWaldoh/a-i-d-a/internal/session"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	fs := flag.NewFlagSet("aida", flag.ExitOnError)
	target := fs.String("target", "", "Target host or IP for an autonomous assessment run")
	goal := fs.String("goal", "", "Assessment goal (required with --target)")
	iterations := fs.Int("iterations", 0, "Planner/worker cycle cap (default: configured max_iterations)")
	task := fs.String("task", "", "Run a single worker task and exit")
	tracePath := fs.String("trace", "", "Trace JSONL path (default: <data-dir>/traces/<run-id>.jsonl)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	// Interrupt cancels the context so an autonomous run still collects
	// its findings into a report instead of dying mid-iteration.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := prepareRuntimeEnv(ctx)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer env.Close()

	switch {
	case *target != "":
		if *goal == "" {
			log.Fatal("--goal is required with --target")
		}
		if err := runBrainMode(ctx, env, *target, *goal, *iterations, *tracePath); err != nil {
			log.Fatalf("assessment run failed: %v", err)
		}
	case *task != "":
		if err := runSingleTask(ctx, env, *task); err != nil {
			log.Fatalf("task failed: %v", err)
		}
	default:
		runInteractive(ctx, env)
	}
}

// runInteractive drives a single worker agent over stdin, one task per
// line. The conversation persists across lines, so follow-up questions
// see earlier answers.
func runInteractive(ctx context.Context, env *runtimeEnv) {
	log.Println("🧠 Starting interactive session")

	deps := env.workerDeps(prompts.DefaultRegistry().MustContent("assistant"))
	env.applyPersonality(&deps)
	sess, err := session.NewInteractive(deps)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	log.Printf("Ready (provider: %s, model: %s, workspace: %s)",
		env.Config.Provider, env.Config.Model, env.Config.WorkDir)

	s := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		answer, usage, err := sess.Ask(ctx, line)
		if err != nil {
			log.Printf("error: %v", err)
			continue
		}
		fmt.Println(answer)
		log.Printf("tokens: %d (session total %d)", usage.Total, sess.TotalUsage().Total)
		fmt.Println()
	}

	saveSessionRecord(env, "interactive", sess)
}

// runSingleTask runs one task through a worker session and prints the
// final answer.
func runSingleTask(ctx context.Context, env *runtimeEnv, task string) error {
	deps := env.workerDeps(prompts.DefaultRegistry().MustContent("assistant"))
	env.applyPersonality(&deps)
	sess, err := session.NewWorker(deps)
	if err != nil {
		return err
	}

	answer, usage, err := sess.Ask(ctx, task)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	log.Printf("tokens: %d", usage.Total)

	saveSessionRecord(env, "one-shot", sess)
	return nil
}

// saveSessionRecord writes the session transcript to the JSON run
// directory. Failures are logged, never fatal.
func saveSessionRecord(env *runtimeEnv, target string, sess *session.Session) {
	if len(sess.History()) == 0 {
		return
	}
	if err := env.Sessions.Save(target, sess.Record()); err != nil {
		log.Printf("⚠️  Failed to save session transcript: %v", err)
	}
}

func loggerHooks() engine.Hooks {
	return engine.Hooks{engine.LoggerHook{L: log.Default()}}
}
