package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/skillgap/internal/config"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the skillgapd daemon in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if isRunning() {
			fmt.Fprintln(out, "✓ Daemon is already running")
			return nil
		}

		skillgapDir, err := config.EnsureSkillgapDir()
		if err != nil {
			return fmt.Errorf("setup skillgap directory: %w", err)
		}

		daemonPath, err := findDaemonBinary()
		if err != nil {
			return fmt.Errorf("find daemon binary: %w", err)
		}

		proc := exec.Command(daemonPath)
		proc.Dir = skillgapDir
		configureDaemonProcess(proc)

		if err := proc.Start(); err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}

		// catalog load happens before the listener comes up
		fmt.Fprint(out, "Starting daemon...")
		for i := 0; i < 50; i++ {
			time.Sleep(100 * time.Millisecond)
			if isRunning() {
				fmt.Fprintln(out, " ✓")
				fmt.Fprintf(out, "Daemon running at %s\n", daemonAddr)
				return nil
			}
			fmt.Fprint(out, ".")
		}

		fmt.Fprintln(out, " ✗")
		return fmt.Errorf("daemon failed to start (check logs with 'skillgap logs')")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the skillgapd daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !isRunning() {
			fmt.Fprintln(out, "Daemon is not running")
			return nil
		}

		skillgapDir, err := config.SkillgapDir()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(filepath.Join(skillgapDir, pidFile))
		if err != nil {
			return fmt.Errorf("read PID file: %w", err)
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return fmt.Errorf("parse PID: %w", err)
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find process: %w", err)
		}

		fmt.Fprint(out, "Stopping daemon...")
		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("send signal: %w", err)
		}

		for i := 0; i < 50; i++ {
			time.Sleep(100 * time.Millisecond)
			if !isRunning() {
				fmt.Fprintln(out, " ✓")
				return nil
			}
			fmt.Fprint(out, ".")
		}

		fmt.Fprintln(out, " ✗")
		return fmt.Errorf("daemon did not stop gracefully")
	},
}

// daemonStatus mirrors the /v1/status response
type daemonStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int    `json:"uptime_seconds"`
	Storage       string `json:"storage"`
	QueueEnabled  bool   `json:"queue_enabled"`
	Catalog       *struct {
		Source    string `json:"source"`
		Revision  uint64 `json:"revision"`
		Skills    int    `json:"skills"`
		Relations int    `json:"relations"`
		Roles     int    `json:"roles"`
		LoadedAt  string `json:"loaded_at"`
	} `json:"catalog"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !isRunning() {
			fmt.Fprintln(out, "Status: stopped")
			return nil
		}

		resp, err := http.Get(daemonAddr + "/v1/status")
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}
		defer resp.Body.Close()

		var status daemonStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return fmt.Errorf("parse status: %w", err)
		}

		printStatus(out, status)
		return nil
	},
}

func printStatus(out io.Writer, status daemonStatus) {
	fmt.Fprintf(out, "Status:    %s\n", status.Status)
	fmt.Fprintf(out, "Version:   %s\n", status.Version)
	fmt.Fprintf(out, "Uptime:    %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Fprintf(out, "Storage:   %s\n", status.Storage)
	fmt.Fprintf(out, "Queue:     %t\n", status.QueueEnabled)
	if c := status.Catalog; c != nil {
		fmt.Fprintf(out, "Catalog:   %s (revision %d, %d skills, %d relations, %d roles)\n",
			c.Source, c.Revision, c.Skills, c.Relations, c.Roles)
	} else {
		fmt.Fprintln(out, "Catalog:   not loaded")
	}
	fmt.Fprintf(out, "Address:   %s\n", daemonAddr)
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent daemon logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		skillgapDir, err := config.SkillgapDir()
		if err != nil {
			return err
		}

		file, err := os.Open(filepath.Join(skillgapDir, "logs", "skillgapd.log"))
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "No log file found. Start the daemon first.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()

		return tailLines(file, 4096, out)
	},
}

// tailLines copies roughly the last window bytes of f, starting at a line boundary
func tailLines(f *os.File, window int64, out io.Writer) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	offset := max(info.Size()-window, 0)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(f)
	if offset > 0 {
		// skip the partial first line
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(out, scanner.Text())
	}
	return scanner.Err()
}

// isRunning checks if the daemon is running by calling the health endpoint
func isRunning() bool {
	client := http.Client{Timeout: time.Second}
	resp, err := client.Get(daemonAddr + "/v1/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findDaemonBinary locates the skillgapd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("skillgapd"); err == nil {
		return path, nil
	}

	// next to this binary
	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "skillgapd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{"/usr/local/bin/skillgapd", "./skillgapd"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("skillgapd binary not found (build with 'go build ./cmd/skillgapd')")
}
