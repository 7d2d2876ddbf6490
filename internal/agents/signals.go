package agents

import (
	"sort"
	"strings"
)

// signalPatterns maps lowercase log substrings to canonical failure
// signals. Several substrings can map to the same signal; matches are
// deduplicated.
var signalPatterns = map[string]string{
	"crashloopbackoff":    "CrashLoopBackOff",
	"back-off restarting": "CrashLoopBackOff",

	"imagepullbackoff":     "ImagePullBackOff",
	"failed to pull image": "ImagePullBackOff",
	"errimagepull":         "ImagePullBackOff",

	"oomkilled":      "OOMKilled",
	"memorypressure": "NodeMemoryPressure",
	"diskpressure":   "NodeDiskPressure",

	"failedscheduling": "FailedScheduling",
	"unschedulable":    "FailedScheduling",
	"evicted":          "Evicted",
	"node not ready":   "NodeNotReady",

	"readinessprobe failed": "ProbeFailure",
	"livenessprobe failed":  "ProbeFailure",

	"no such host":             "DNSIssue",
	"progressdeadlineexceeded": "FailedRollout",
	"unavailable":              "UnavailableReplicas",
	"connection refused":       "ServiceUnavailable",
	"timeout":                  "TimeoutError",

	"pod has unbound immediate persistentvolumeclaims": "PVCUnbound",
}

// generalErrorTokens trigger the catch-all signal when no specific
// pattern matches.
var generalErrorTokens = []string{"error", "fail", "exception", "critical"}

// ExtractSignals scans text for known failure fingerprints and returns
// the matched canonical signals, sorted. When nothing specific matches
// but the text still reads like a failure, the single catch-all
// GeneralError signal is returned. Clean text yields no signals.
func ExtractSignals(text string) []string {
	lower := strings.ToLower(text)

	seen := make(map[string]struct{})
	for pattern, signal := range signalPatterns {
		if strings.Contains(lower, pattern) {
			seen[signal] = struct{}{}
		}
	}
	if len(seen) == 0 {
		for _, token := range generalErrorTokens {
			if strings.Contains(lower, token) {
				seen["GeneralError"] = struct{}{}
				break
			}
		}
	}

	signals := make([]string, 0, len(seen))
	for signal := range seen {
		signals = append(signals, signal)
	}
	sort.Strings(signals)
	return signals
}
