package transformer

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"faceswapd/internal/config"
	"faceswapd/internal/domain/ports/adapter"
)

var _ adapter.Transformer = (*CLIAdapter)(nil)

const diagnosticTailLines = 20

// CLIAdapter invokes the face-swap CLI as an isolated, time-boxed external
// process. The process is expected to write exactly one output file at the
// given output path and exit zero on success; everything else is reported
// through Outcome for the executor to classify.
type CLIAdapter struct {
	cfg config.TransformerConfig
}

func NewCLIAdapter(cfg config.TransformerConfig) *CLIAdapter {
	return &CLIAdapter{cfg: cfg}
}

// Args derives the full command-line argument list for a spec. Split out so
// flag derivation is testable without spawning a process.
func (a *CLIAdapter) Args(spec adapter.Spec) []string {
	processors := []string{"face_swapper"}
	if spec.FaceEnhancer {
		processors = append(processors, "face_enhancer")
	}
	args := []string{
		a.cfg.Script,
		"-s", spec.SourcePath,
		"-t", spec.TargetPath,
		"-o", spec.OutputPath,
		"--frame-processor",
	}
	args = append(args, processors...)
	args = append(args, "--execution-threads", strconv.Itoa(a.cfg.ExecutionThreads))
	if a.cfg.ExecutionProvider != "" {
		args = append(args, "--execution-provider", a.cfg.ExecutionProvider)
	}
	if spec.ManyFaces {
		args = append(args, "--many-faces")
	}
	if spec.KeepFPS {
		args = append(args, "--keep-fps")
	}
	if spec.SkipAudio {
		args = append(args, "--skip-audio")
	}
	if spec.KeepFrames {
		args = append(args, "--keep-frames")
	}
	return args
}

func (a *CLIAdapter) Run(ctx context.Context, spec adapter.Spec) (adapter.Outcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.cfg.Command, a.Args(spec)...)
	cmd.Dir = a.cfg.WorkDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := adapter.Outcome{
		ExitCode:   0,
		Diagnostic: tail(stderr.String(), diagnosticTailLines),
	}
	if err == nil {
		return out, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		out.TimedOut = true
		out.ExitCode = -1
		return out, runCtx.Err()
	}
	out.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
	}
	return out, err
}

// tail returns the last n lines of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
