package printer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// SerialPorts lists device paths that may be serial label printers on this
// platform. Ports are not opened.
func SerialPorts() []string {
	switch runtime.GOOS {
	case "darwin":
		return globPorts([]string{"/dev/cu.*"}, []string{"Bluetooth", "debug-console", "KeySerial", "Modem"})
	case "linux":
		return globPorts([]string{"/dev/ttyUSB*", "/dev/ttyACM*"}, nil)
	case "windows":
		ports := make([]string, 0, 16)
		for i := 1; i <= 16; i++ {
			ports = append(ports, fmt.Sprintf("COM%d", i))
		}
		return ports
	default:
		return nil
	}
}

func globPorts(patterns, skip []string) []string {
	var ports []string
	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
	next:
		for _, m := range matches {
			for _, s := range skip {
				if strings.Contains(m, s) {
					continue next
				}
			}
			ports = append(ports, m)
		}
	}
	return ports
}
