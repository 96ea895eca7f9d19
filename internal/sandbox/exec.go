package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// runOneShot runs a short-lived helper container with /submission mounted
// from the volume and returns an error on non-zero exit.
func runOneShot(ctx context.Context, cli *client.Client, image, volName string, cmd []string, netEnabled bool) error {
	stdout, stderr, exitCode, err := runWithLogs(ctx, cli, image, volName, cmd, netEnabled, nil, nil)
	if err != nil {
		return fmt.Errorf("%s failed (exit=%d)\nstdout:\n%s\nstderr:\n%s\nerr: %w",
			strings.Join(cmd, " "), exitCode, stdout, stderr, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%s exit code=%d\nstdout:\n%s\nstderr:\n%s",
			strings.Join(cmd, " "), exitCode, stdout, stderr)
	}
	return nil
}

// runWithLogs creates a container, attaches the submission volume, runs
// cmd, collects the demuxed logs, and cleans up.
func runWithLogs(ctx context.Context, cli *client.Client, image, volName string, cmd []string, netEnabled bool, env []string, res *container.Resources) (stdout, stderr string, exitCode int, err error) {
	networkMode := container.NetworkMode("none")
	if netEnabled {
		networkMode = ""
	}
	hostCfg := &container.HostConfig{
		NetworkMode: networkMode,
		Mounts: []mount.Mount{{
			Type:   mount.TypeVolume,
			Source: volName,
			Target: "/submission",
		}},
	}
	if res != nil {
		hostCfg.Resources = *res
	}

	create, err := cli.ContainerCreate(ctx, &container.Config{
		Image:      image,
		Cmd:        cmd,
		Env:        env,
		WorkingDir: "/submission",
		Tty:        false,
	}, hostCfg, nil, nil, "")
	if err != nil {
		return "", "", 0, fmt.Errorf("create: %w", err)
	}
	cid := create.ID
	defer func() {
		timeout := 5
		_ = cli.ContainerStop(context.Background(), cid, container.StopOptions{Timeout: &timeout})
		_ = cli.ContainerRemove(context.Background(), cid, container.RemoveOptions{Force: true})
	}()

	if err := cli.ContainerStart(ctx, cid, container.StartOptions{}); err != nil {
		return "", "", 0, fmt.Errorf("start: %w", err)
	}

	statusCh, errCh := cli.ContainerWait(ctx, cid, container.WaitConditionNotRunning)
	select {
	case err = <-errCh:
		if err != nil {
			return "", "", 0, fmt.Errorf("wait: %w", err)
		}
	case st := <-statusCh:
		exitCode = int(st.StatusCode)
	}

	var outBuf, errBuf bytes.Buffer
	logs, err := cli.ContainerLogs(ctx, cid, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err == nil {
		defer logs.Close()
		var sb bytes.Buffer
		_, _ = io.Copy(&sb, logs)
		// The log stream is multiplexed; demux with stdcopy and fall back
		// to treating everything as stdout if that fails.
		if _, err := stdcopy.StdCopy(&outBuf, &errBuf, bytes.NewReader(sb.Bytes())); err != nil {
			outBuf = sb
		}
	}
	return outBuf.String(), errBuf.String(), exitCode, nil
}

// copyDirToVolume tars up dir and uploads it to /submission by spinning a
// helper container that mounts the volume.
func copyDirToVolume(ctx context.Context, cli *client.Client, volName, dir string) error {
	create, err := cli.ContainerCreate(ctx, &container.Config{
		Image: "alpine/git:latest",
		Cmd:   []string{"sleep", "60"},
		Tty:   false,
	}, &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeVolume,
			Source: volName,
			Target: "/submission",
		}},
	}, nil, nil, "")
	if err != nil {
		return fmt.Errorf("copy helper create: %w", err)
	}
	cid := create.ID
	defer func() {
		timeout := 2
		_ = cli.ContainerStop(context.Background(), cid, container.StopOptions{Timeout: &timeout})
		_ = cli.ContainerRemove(context.Background(), cid, container.RemoveOptions{Force: true})
	}()

	if err := cli.ContainerStart(ctx, cid, container.StartOptions{}); err != nil {
		return fmt.Errorf("copy helper start: %w", err)
	}

	tarBuf, err := tarDir(dir)
	if err != nil {
		return fmt.Errorf("tar %s: %w", dir, err)
	}
	if err := cli.CopyToContainer(ctx, cid, "/submission", tarBuf, container.CopyToContainerOptions{AllowOverwriteDirWithFile: true}); err != nil {
		return fmt.Errorf("upload submission: %w", err)
	}
	return nil
}

// tarDir archives the regular files under dir with paths relative to it.
func tarDir(dir string) (io.Reader, error) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name: filepath.ToSlash(rel),
			Mode: 0644,
			Size: info.Size(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
