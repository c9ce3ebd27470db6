package tool

import (
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbeResult is the outcome of an ICMP reachability check.
type ProbeResult struct {
	Host      string        `json:"host"`
	Reachable bool          `json:"reachable"`
	RTT       time.Duration `json:"rtt"`
	Error     string        `json:"error,omitempty"`
}

// QuickICMPProbe sends a single unprivileged ping to host and reports whether a reply
// arrived within timeout. Hosts that drop ICMP report unreachable without an error.
func QuickICMPProbe(host string, timeout time.Duration) ProbeResult {
	result := ProbeResult{Host: host}
	pinger, err := probing.NewPinger(host)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	pinger.SetPrivileged(false)
	pinger.Count = 1
	pinger.Timeout = timeout
	if err := pinger.Run(); err != nil {
		result.Error = err.Error()
		DefaultLogger.Debugf("ICMP probe to %s failed: %v", host, err)
		return result
	}
	stats := pinger.Statistics()
	result.Reachable = stats.PacketsRecv > 0
	result.RTT = stats.AvgRtt
	return result
}
