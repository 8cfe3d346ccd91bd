// Package metrics captures static host facts, logged once at startup
// so cache sizing and analyzer timing can be read against the machine
// they ran on.
package metrics

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// SystemInfo holds static system information captured once at startup
type SystemInfo struct {
	OS               string `json:"os"`
	OSVersion        string `json:"os_version"`
	Arch             string `json:"arch"`
	Hostname         string `json:"hostname"`
	CPULogical       int    `json:"cpu_logical"`
	TotalMemoryMB    uint64 `json:"total_memory_mb"`
	GoVersion        string `json:"go_version"`
	InContainer      bool   `json:"in_container"`
	ContainerRuntime string `json:"container_runtime,omitempty"`
}

var (
	systemInfo     *SystemInfo
	systemInfoOnce sync.Once
)

// GetSystemInfo returns cached system information (captured once)
func GetSystemInfo() *SystemInfo {
	systemInfoOnce.Do(func() {
		systemInfo = captureSystemInfo()
	})
	return systemInfo
}

func captureSystemInfo() *SystemInfo {
	info := &SystemInfo{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		CPULogical: runtime.NumCPU(),
		GoVersion:  runtime.Version(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	} else {
		info.Hostname = "unknown"
	}

	info.InContainer, info.ContainerRuntime = detectContainer()
	info.OSVersion = osVersion()
	info.TotalMemoryMB = totalMemoryMB()

	return info
}

// detectContainer checks if running in a container
func detectContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "docker"
	}

	if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
		return true, "kubernetes"
	}

	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		switch {
		case strings.Contains(content, "docker"):
			return true, "docker"
		case strings.Contains(content, "kubepods"):
			return true, "kubernetes"
		case strings.Contains(content, "containerd"):
			return true, "containerd"
		}
	}

	return false, ""
}

// osVersion reads the distribution name on linux; other platforms get
// the bare GOOS value.
func osVersion() string {
	if runtime.GOOS != "linux" {
		return runtime.GOOS
	}

	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "linux"
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
		}
	}

	return "linux"
}

// totalMemoryMB reads MemTotal from /proc/meminfo; zero on other
// platforms or read failure.
func totalMemoryMB() uint64 {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb / 1024
	}

	return 0
}
