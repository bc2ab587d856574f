// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// DetachedEnvironment is set in the environment of a detached child.
// Its value is the file descriptor of the readiness pipe.
const DetachedEnvironment = "TRANSFORMFS_DETACHED"

// readyDescriptor is where ExtraFiles[0] lands in the child.
const readyDescriptor = 3

// DetachOptions configures [Detach].
type DetachOptions struct {
	// Executable is the binary to start. Defaults to os.Executable().
	Executable string

	// Args are the child's arguments, excluding argv[0].
	Args []string

	// Stdout and Stderr are files the child's output is appended to.
	// Empty means /dev/null.
	Stdout string
	Stderr string
}

// IsDetached reports whether this process was started by [Detach].
func IsDetached() bool {
	return os.Getenv(DetachedEnvironment) != ""
}

// Detach starts a copy of this process in a new session and blocks
// until the copy calls [Ready] or exits. It returns nil once the child
// is ready; the caller should then exit successfully. If the child
// exits first, the error carries its exit status.
func Detach(options DetachOptions) error {
	executable := options.Executable
	if executable == "" {
		var err error
		executable, err = os.Executable()
		if err != nil {
			return fmt.Errorf("locating executable: %w", err)
		}
	}

	stdin, err := os.Open(os.DevNull)
	if err != nil {
		return err
	}
	defer stdin.Close()
	stdout, err := openOutput(options.Stdout)
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := openOutput(options.Stderr)
	if err != nil {
		return err
	}
	defer stderr.Close()

	readyReader, readyWriter, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("creating readiness pipe: %w", err)
	}
	defer readyReader.Close()

	command := exec.Command(executable, options.Args...)
	command.Env = append(os.Environ(), fmt.Sprintf("%s=%d", DetachedEnvironment, readyDescriptor))
	command.Stdin = stdin
	command.Stdout = stdout
	command.Stderr = stderr
	command.ExtraFiles = []*os.File{readyWriter}
	command.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := command.Start(); err != nil {
		readyWriter.Close()
		return fmt.Errorf("starting background process: %w", err)
	}
	// Only the child holds the write end now, so a read sees EOF when
	// it exits without signalling.
	readyWriter.Close()

	signal := make([]byte, 1)
	if _, err := readyReader.Read(signal); err == nil {
		return command.Process.Release()
	} else if !errors.Is(err, io.EOF) {
		return fmt.Errorf("waiting for background process: %w", err)
	}

	if err := command.Wait(); err != nil {
		return fmt.Errorf("background process failed: %w", err)
	}
	return errors.New("background process exited before becoming ready")
}

// Ready tells the parent [Detach] call that startup finished. It is a
// no-op in a process that was not detached.
func Ready() error {
	if !IsDetached() {
		return nil
	}
	pipe := os.NewFile(readyDescriptor, "ready")
	if pipe == nil {
		return errors.New("readiness pipe is not open")
	}
	defer pipe.Close()
	if _, err := pipe.Write([]byte{1}); err != nil {
		return fmt.Errorf("signalling readiness: %w", err)
	}
	return nil
}

func openOutput(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", path, err)
	}
	return file, nil
}
