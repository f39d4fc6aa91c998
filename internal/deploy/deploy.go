// Package deploy executa o comando de deploy configurado (DEPLOY_COMMAND)
// quando o webhook é chamado. O comando roda sem shell: argv é a string
// separada por espaços.
package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"waitlist-service/internal/pkg/logger"
)

const (
	DefaultTimeout = 2 * time.Minute
	maxOutput      = 4096
)

var (
	ErrNotConfigured = errors.New("deploy command not configured")
	ErrBusy          = errors.New("deploy already running")
)

type Result struct {
	Command  string        `json:"command"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"-"`
	Took     string        `json:"took"`
}

// Status é o que /api/status mostra do último deploy.
type Status struct {
	Running bool    `json:"running"`
	Last    *Result `json:"last,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type Runner struct {
	argv    []string
	timeout time.Duration

	mu      sync.Mutex
	running bool
	last    *Result
	lastErr error
}

func NewRunner(command string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{argv: strings.Fields(command), timeout: timeout}
}

func (r *Runner) Configured() bool { return len(r.argv) > 0 }

// Start dispara o deploy em background e retorna logo. Um deploy por vez:
// com outro em andamento devolve ErrBusy. O comando não herda o cancelamento
// de ctx (o cliente do webhook pode desconectar); só o timeout o interrompe.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.acquire(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		res, err := r.execute(ctx)
		r.finish(res, err)
	}()
	return nil
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{Running: r.running, Last: r.last}
	if r.lastErr != nil {
		st.Error = r.lastErr.Error()
	}
	return st
}

func (r *Runner) acquire() error {
	if !r.Configured() {
		return ErrNotConfigured
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrBusy
	}
	r.running = true
	return nil
}

func (r *Runner) finish(res Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.last = &res
	r.lastErr = err
}

func (r *Runner) execute(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := Result{
		Command:  strings.Join(r.argv, " "),
		Output:   tail(out.String(), maxOutput),
		Duration: time.Since(start),
	}
	res.Took = res.Duration.Round(time.Millisecond).String()

	if err != nil {
		logger.Error("deploy command failed", "command", res.Command, "took", res.Took, "error", err)
		return res, fmt.Errorf("running %s: %w", r.argv[0], err)
	}
	logger.Info("deploy command finished", "command", res.Command, "took", res.Took)
	return res, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
