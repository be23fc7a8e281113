package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"rani/internal/service"
	"rani/internal/tui"

	httpT "rani/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "rani",
		Usage: "Answer questions about a document from its own passages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to YAML config file (uses ./config.yaml or ~/.config/rani/config.yaml if not provided)",
				Sources: cli.EnvVars("RANI_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Document file, overriding source.path",
			},
		},
		DefaultCommand: "chat",
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Start an interactive chat session",
				Action: chat,
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question and exit",
				ArgsUsage: "<question...>",
				Action:    ask,
			},
			{
				Name:  "serve",
				Usage: "Serve the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "HTTP listen address, overriding http.addr",
					},
				},
				Action: serve,
			},
			{
				Name:   "index",
				Usage:  "Build the index and report what was indexed",
				Action: index,
			},
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func chat(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd, outputFile, true)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	info, err := a.svc.Corpus(ctx)
	if err != nil {
		return err
	}

	id, err := a.svc.NewSession(ctx)
	if err != nil {
		return err
	}
	defer a.svc.EndSession(ctx, id)

	persona := a.cfg.Persona
	title := persona.Name
	if persona.Institution != "" {
		title += " · " + persona.Institution
	}

	m := tui.New(ctx, a.svc, id, persona.Name, title, tui.Summary(info.Passages, info.Indexed, info.Summary))
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func ask(ctx context.Context, cmd *cli.Command) error {
	question := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a question is required")
	}

	a, err := newApp(cmd, outputFile, true)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	id, err := a.svc.NewSession(ctx)
	if err != nil {
		return err
	}
	defer a.svc.EndSession(ctx, id)

	answer, err := a.svc.Ask(ctx, id, question)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd, outputStderr, true)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	zap.ReplaceGlobals(a.log)

	// fail fast on a missing source instead of on the first request
	if _, err := a.svc.Corpus(ctx); err != nil {
		return err
	}

	if !a.cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	httpT.AddRouters(r, service.NewEndpointSet(a.svc))

	addr := cmd.String("addr")
	if addr == "" {
		addr = a.cfg.HTTP.Addr
	}

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(err.Error(), zap.String("action", "listen"))
		}
	}()

	a.log.Info("http api listening", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	a.log.Info("graceful shutdown", zap.String("signal", sign.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func index(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd, outputStderr, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	corpus, err := a.index.Get(ctx)
	if err != nil {
		return err
	}
	info := corpus.Info()

	fmt.Printf("source:    %s\n", a.cfg.Source.Path)
	fmt.Printf("passages:  %d\n", info.Passages)
	fmt.Printf("indexed:   %d\n", info.Indexed)
	fmt.Printf("dimension: %d\n", info.Dimension)
	if len(info.Failed) > 0 {
		fmt.Printf("failed:    %v\n", info.Failed)
	}
	if info.Summary != "" {
		fmt.Printf("summary:   %s\n", info.Summary)
	}
	return nil
}
