package zino

import (
	"strconv"
	"strings"
)

// ParseHistory turns a gethist 301 block into ordered history entries.
//
// Each entry starts with a line "<epoch> <rest>". If <rest> itself contains
// a space, the entry is server-generated: its user is "monitor" and the
// whole of <rest> is the log text, in full on that one line. Otherwise
// <rest> is the entry's author, and every
// following line that starts with a single space is a continuation line,
// including a line that is exactly " " (a blank paragraph separator within
// the log text). Continuation lines are stripped and joined with a
// trailing space each, then the whole thing is trimmed; a new entry only
// starts on the next non-space-prefixed header line. The last entry is
// emitted even without a trailing " " marker.
func ParseHistory(lines []string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	var cur *HistoryEntry
	var logLines []string

	flush := func() {
		if cur == nil {
			return
		}
		var sb strings.Builder
		for _, l := range logLines {
			sb.WriteString(l)
			sb.WriteString(" ")
		}
		cur.Log = strings.TrimSpace(sb.String())
		entries = append(entries, *cur)
		cur = nil
		logLines = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, " ") {
			if cur != nil {
				logLines = append(logLines, strings.TrimSpace(line))
			}
			continue
		}

		flush()

		ts, rest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		epoch, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, ErrRetry
		}
		date := unixUTC(epoch)

		if strings.Contains(rest, " ") {
			entries = append(entries, HistoryEntry{Date: date, User: "monitor", Log: rest})
			continue
		}

		cur = &HistoryEntry{Date: date, User: rest}
	}
	flush()

	return entries, nil
}

// ParseLog turns a getlog 300 block into ordered log entries. Each line is
// "<epoch> <free text>"; a non-integer timestamp is a transient server
// condition and surfaces as ErrRetry.
func ParseLog(lines []string) ([]LogEntry, error) {
	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		ts, rest, ok := strings.Cut(line, " ")
		if !ok {
			ts = line
			rest = ""
		}
		epoch, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, ErrRetry
		}
		entries = append(entries, LogEntry{Date: unixUTC(epoch), Log: rest})
	}
	return entries, nil
}
