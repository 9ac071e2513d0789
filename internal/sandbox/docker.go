package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"codeduel/internal/runtime"
	"codeduel/pkg/utils/logger"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const workDir = "/home/sandbox"

// DockerConfig holds resource limits applied to every invocation.
type DockerConfig struct {
	// WallTimeLimit bounds compile and run combined.
	WallTimeLimit time.Duration `yaml:"wallTimeLimit"`
	MemoryLimitMB int64         `yaml:"memoryLimitMB"`
	// CPUQuota is in microseconds per 100ms period; 50000 means half a core.
	CPUQuota  int64 `yaml:"cpuQuota"`
	PidsLimit int64 `yaml:"pidsLimit"`
}

// DefaultDockerConfig returns the default execution limits.
func DefaultDockerConfig() DockerConfig {
	return DockerConfig{
		WallTimeLimit: 10 * time.Second,
		MemoryLimitMB: 128,
		CPUQuota:      50000,
		PidsLimit:     64,
	}
}

// DockerExecutor implements Executor on the Docker Engine API. Each
// invocation gets a fresh uniquely-named container with a tmpfs work
// directory; nothing is shared between invocations and the container is
// force-removed on every exit path.
type DockerExecutor struct {
	cli      *client.Client
	registry *runtime.Registry
	cfg      DockerConfig
}

// NewDockerExecutor creates an executor talking to the local Docker daemon.
func NewDockerExecutor(registry *runtime.Registry, cfg DockerConfig) (*DockerExecutor, error) {
	if cfg.WallTimeLimit <= 0 {
		cfg.WallTimeLimit = DefaultDockerConfig().WallTimeLimit
	}
	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = DefaultDockerConfig().MemoryLimitMB
	}
	if cfg.CPUQuota <= 0 {
		cfg.CPUQuota = DefaultDockerConfig().CPUQuota
	}
	if cfg.PidsLimit <= 0 {
		cfg.PidsLimit = DefaultDockerConfig().PidsLimit
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerExecutor{cli: cli, registry: registry, cfg: cfg}, nil
}

// EnsureImages pulls every registered runtime image that is missing locally.
func (e *DockerExecutor) EnsureImages(ctx context.Context) error {
	for _, lang := range e.registry.List() {
		if _, _, err := e.cli.ImageInspectWithRaw(ctx, lang.Image); err == nil {
			continue
		}
		logger.Info(ctx, "pulling runtime image", zap.String("image", lang.Image))
		reader, err := e.cli.ImagePull(ctx, lang.Image, image.PullOptions{})
		if err != nil {
			return fmt.Errorf("pull image %s: %w", lang.Image, err)
		}
		// The pull only completes once the response stream is drained.
		_, _ = io.Copy(io.Discard, reader)
		_ = reader.Close()
	}
	return nil
}

// Execute runs one bounded invocation. It never returns an error: every
// failure mode maps onto a Result status.
func (e *DockerExecutor) Execute(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.Code) == "" {
		return Result{Status: StatusCompilationError, Error: "No code submitted"}
	}

	lang, err := e.registry.Get(req.Language)
	if err != nil {
		return internalResult(err)
	}
	runArgv, err := lang.RunArgv()
	if err != nil {
		return internalResult(err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.WallTimeLimit)
	defer cancel()

	containerID, err := e.createContainer(ctx, lang)
	if err != nil {
		return internalResult(fmt.Errorf("create container: %w", err))
	}
	defer e.removeContainer(containerID)

	if err := e.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return internalResult(fmt.Errorf("start container: %w", err))
	}

	if err := e.writeSource(ctx, containerID, lang.FileName, req.Code); err != nil {
		if ctx.Err() != nil {
			return Result{Status: StatusTimeLimitExceeded, Error: "Execution timed out", Duration: e.cfg.WallTimeLimit}
		}
		return internalResult(fmt.Errorf("write source: %w", err))
	}

	if lang.Compiled() {
		compileArgv, err := lang.CompileArgv()
		if err != nil {
			return internalResult(err)
		}
		res, done := e.compile(ctx, containerID, compileArgv)
		if done {
			return res
		}
	}

	return e.run(ctx, containerID, runArgv, req.Stdin)
}

func (e *DockerExecutor) createContainer(ctx context.Context, lang runtime.Language) (string, error) {
	name := "sandbox-" + uuid.NewString()
	pidsLimit := e.cfg.PidsLimit
	memoryBytes := e.cfg.MemoryLimitMB << 20

	resp, err := e.cli.ContainerCreate(ctx, &container.Config{
		Image: lang.Image,
		// Keep the container alive; work happens through exec sessions.
		Cmd:             []string{"sleep", "infinity"},
		Tty:             false,
		OpenStdin:       true,
		NetworkDisabled: true,
		WorkingDir:      workDir,
		User:            "nobody",
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory:     memoryBytes,
			MemorySwap: memoryBytes, // no swap beyond the memory ceiling
			CPUPeriod:  100000,
			CPUQuota:   e.cfg.CPUQuota,
			PidsLimit:  &pidsLimit,
		},
		NetworkMode: "none",
		SecurityOpt: []string{"no-new-privileges"},
		CapDrop:     []string{"ALL"},
		Tmpfs: map[string]string{
			workDir: "rw,exec,nosuid,size=64m,mode=1777",
			"/tmp":  "rw,noexec,nosuid,size=16m,mode=1777",
		},
	}, nil, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// removeContainer is the single cleanup path. It must never fail the
// invocation; problems are logged and swallowed.
func (e *DockerExecutor) removeContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		logger.Warn(ctx, "sandbox container cleanup failed",
			zap.String("container_id", containerID), zap.Error(err))
	}
}

// writeSource streams the source code into the tmpfs work directory via an
// exec session; CopyToContainer does not work with tmpfs mounts.
func (e *DockerExecutor) writeSource(ctx context.Context, containerID, fileName, code string) error {
	execResp, err := e.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:         []string{"sh", "-c", fmt.Sprintf("cat > %s/%s", workDir, fileName)},
		AttachStdin: true,
	})
	if err != nil {
		return err
	}

	attach, err := e.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return err
	}
	if _, err := attach.Conn.Write([]byte(code)); err != nil {
		attach.Close()
		return err
	}
	_ = attach.CloseWrite()
	attach.Close()

	for {
		inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err != nil {
			return err
		}
		if !inspect.Running {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// compile runs the compile phase. The second return value reports whether the
// invocation is finished (compile error or timeout); false means proceed to
// the run phase.
func (e *DockerExecutor) compile(ctx context.Context, containerID string, argv []string) (Result, bool) {
	out, err := e.exec(ctx, containerID, argv, "")
	if err != nil {
		return internalResult(fmt.Errorf("compile: %w", err)), true
	}
	if out.timedOut {
		return Result{Status: StatusTimeLimitExceeded, Error: "Execution timed out", Duration: e.cfg.WallTimeLimit}, true
	}
	// Compiler diagnostics on stderr fail the submission even with exit 0;
	// warnings-as-errors policy matches the validation contract.
	if out.exitCode != 0 || out.stderr != "" {
		stderr := out.stderr
		if stderr == "" {
			stderr = "Compilation failed"
		}
		return Result{Status: StatusCompilationError, Stderr: out.stderr, Error: stderr}, true
	}
	return Result{}, false
}

func (e *DockerExecutor) run(ctx context.Context, containerID string, argv []string, stdin string) Result {
	start := time.Now()
	out, err := e.exec(ctx, containerID, argv, stdin)
	elapsed := time.Since(start)
	if err != nil {
		return internalResult(fmt.Errorf("run: %w", err))
	}
	if out.timedOut {
		return Result{
			Status:   StatusTimeLimitExceeded,
			Stdout:   out.stdout,
			Error:    "Execution timed out",
			Duration: elapsed,
		}
	}
	if out.exitCode != 0 {
		detail := out.stderr
		if detail == "" {
			detail = "Execution failed"
		}
		return Result{
			Status:   StatusRuntimeError,
			Stdout:   out.stdout,
			Stderr:   out.stderr,
			Error:    detail,
			Duration: elapsed,
		}
	}
	return Result{
		Status:   StatusAccepted,
		Stdout:   out.stdout,
		Stderr:   out.stderr,
		Duration: elapsed,
	}
}

type execOutput struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
}

// exec runs one command inside the container with stdin always attached, so
// interactive readers never hang waiting for input that will not come. On
// deadline expiry the container is killed outright and the output captured so
// far is returned.
func (e *DockerExecutor) exec(ctx context.Context, containerID string, argv []string, stdin string) (execOutput, error) {
	execResp, err := e.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          argv,
		WorkingDir:   workDir,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return execOutput{}, err
	}

	attach, err := e.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return execOutput{}, err
	}
	defer attach.Close()

	if stdin != "" {
		_, _ = attach.Conn.Write([]byte(stdin))
	}
	_ = attach.CloseWrite()

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, copyErr := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
		done <- copyErr
	}()

	select {
	case copyErr := <-done:
		if copyErr != nil {
			return execOutput{}, copyErr
		}
	case <-ctx.Done():
		// Force-kill, then wait for the copier to drain what was captured.
		killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := e.cli.ContainerKill(killCtx, containerID, "KILL"); err != nil {
			logger.Warn(killCtx, "sandbox kill failed",
				zap.String("container_id", containerID), zap.Error(err))
		}
		cancel()
		attach.Close()
		<-done
		return execOutput{stdout: stdout.String(), stderr: stderr.String(), timedOut: true}, nil
	}

	inspect, err := e.cli.ContainerExecInspect(context.Background(), execResp.ID)
	if err != nil {
		return execOutput{}, err
	}
	return execOutput{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: inspect.ExitCode,
	}, nil
}

func internalResult(err error) Result {
	return Result{Status: StatusInternalError, Error: err.Error()}
}
