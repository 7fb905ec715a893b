package wakelock

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// CommandInhibitor runs a long-lived process that blocks sleep for as long
// as it lives, such as systemd-inhibit wrapping "sleep infinity".
type CommandInhibitor struct {
	Path string
	Args []string
}

// SystemdInhibitor blocks sleep and idle through logind.
func SystemdInhibitor(path string) *CommandInhibitor {
	return &CommandInhibitor{
		Path: path,
		Args: []string{
			"--what=sleep:idle",
			"--who=geoship",
			"--why=submitting location",
			"--mode=block",
			"sleep", "infinity",
		},
	}
}

// Detect returns a SystemdInhibitor if systemd-inhibit is on PATH.
func Detect() (Inhibitor, error) {
	path, err := exec.LookPath("systemd-inhibit")
	if err != nil {
		return nil, ErrNoInhibitor
	}
	return SystemdInhibitor(path), nil
}

func (c *CommandInhibitor) Inhibit() (func() error, error) {
	cmd := exec.Command(c.Path, c.Args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Path, err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			select {
			case <-exited:
				err = errors.New("inhibitor exited early")
				return
			default:
			}
			if kerr := cmd.Process.Kill(); kerr != nil {
				err = kerr
			}
			<-exited
		})
		return err
	}, nil
}
