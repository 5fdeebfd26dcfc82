// Package log parses Solana program log transcripts, the form in which
// receipts publish their events and the form returned by RPC nodes for
// confirmed transactions.
//
//	parser := log.NewParser()
//	for _, data := range parser.ExtractProgramData(logMessages) {
//	    // discriminator + borsh event body
//	}
package log

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

const instructionPrefix = "Instruction: "

// LogType represents the type of a log message.
type LogType int

const (
	// LogTypeUnknown represents an unrecognized log message.
	LogTypeUnknown LogType = iota
	// LogTypeInvoke represents a "Program X invoke [N]" message.
	LogTypeInvoke
	// LogTypeSuccess represents a "Program X success" message.
	LogTypeSuccess
	// LogTypeFailed represents a "Program X failed" message.
	LogTypeFailed
	// LogTypeData represents a "Program data: BASE64" message.
	LogTypeData
	// LogTypeLog represents a "Program log: MESSAGE" message.
	LogTypeLog
	// LogTypeComputeUnits represents a compute units consumed message.
	LogTypeComputeUnits
)

// String returns the string representation of LogType.
func (lt LogType) String() string {
	switch lt {
	case LogTypeInvoke:
		return "Invoke"
	case LogTypeSuccess:
		return "Success"
	case LogTypeFailed:
		return "Failed"
	case LogTypeData:
		return "Data"
	case LogTypeLog:
		return "Log"
	case LogTypeComputeUnits:
		return "ComputeUnits"
	default:
		return "Unknown"
	}
}

// ParsedLog represents a parsed log message with its type and extracted data.
type ParsedLog struct {
	// Type is the type of the log message.
	Type LogType

	// StackHeight is the call stack depth (1-indexed).
	// Only relevant for Invoke logs.
	StackHeight int

	// ProgramID is the program that produced this log.
	// Extracted from "Program X ..." messages.
	ProgramID string

	// Data is the decoded data from "Program data:" messages.
	Data []byte

	// Message is the text from "Program log:" messages.
	Message string

	// ComputeUnits is the number of compute units consumed.
	// Only relevant for ComputeUnits logs.
	ComputeUnits *uint64

	// RawLog is the original log message.
	RawLog string
}

// LogParser parses Solana transaction logs.
type LogParser struct {
	// patterns are compiled regex patterns for log parsing.
	patterns *logPatterns
}

// logPatterns contains compiled regex patterns for various log types.
type logPatterns struct {
	invoke       *regexp.Regexp
	success      *regexp.Regexp
	failed       *regexp.Regexp
	data         *regexp.Regexp
	log          *regexp.Regexp
	computeUnits *regexp.Regexp
}

// NewParser creates a new LogParser.
func NewParser() *LogParser {
	return &LogParser{
		patterns: &logPatterns{
			invoke:       regexp.MustCompile(`^Program (\S+) invoke \[(\d+)\]`),
			success:      regexp.MustCompile(`^Program (\S+) success`),
			failed:       regexp.MustCompile(`^Program (\S+) failed`),
			data:         regexp.MustCompile(`^Program data: (.+)$`),
			log:          regexp.MustCompile(`^Program log: (.+)$`),
			computeUnits: regexp.MustCompile(`consumed (\d+) of \d+ compute units`),
		},
	}
}

// Parse parses a single log message and returns a ParsedLog.
func (p *LogParser) Parse(logMessage string) *ParsedLog {
	result := &ParsedLog{
		Type:   LogTypeUnknown,
		RawLog: logMessage,
	}

	// Try to match invoke pattern
	if matches := p.patterns.invoke.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeInvoke
		result.ProgramID = matches[1]
		fmt.Sscanf(matches[2], "%d", &result.StackHeight)
		return result
	}

	// Try to match success pattern
	if matches := p.patterns.success.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeSuccess
		result.ProgramID = matches[1]
		return result
	}

	// Try to match failed pattern
	if matches := p.patterns.failed.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeFailed
		result.ProgramID = matches[1]
		return result
	}

	// Try to match data pattern
	if matches := p.patterns.data.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeData
		if decoded, err := base64.StdEncoding.DecodeString(matches[1]); err == nil {
			result.Data = decoded
		}
		return result
	}

	// Try to match log pattern
	if matches := p.patterns.log.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeLog
		result.Message = matches[1]
		return result
	}

	// Try to match compute units pattern
	if matches := p.patterns.computeUnits.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeComputeUnits
		var cu uint64
		if _, err := fmt.Sscanf(matches[1], "%d", &cu); err == nil {
			result.ComputeUnits = &cu
		}
		return result
	}

	return result
}

// ParseAll parses all log messages and returns a slice of ParsedLog.
func (p *LogParser) ParseAll(logMessages []string) []*ParsedLog {
	results := make([]*ParsedLog, 0, len(logMessages))
	for _, log := range logMessages {
		results = append(results, p.Parse(log))
	}
	return results
}

// ExtractProgramData extracts all "Program data:" messages and returns decoded data.
func (p *LogParser) ExtractProgramData(logMessages []string) [][]byte {
	var data [][]byte
	for _, log := range logMessages {
		if parsed := p.Parse(log); parsed.Type == LogTypeData && len(parsed.Data) > 0 {
			data = append(data, parsed.Data)
		}
	}
	return data
}

// ExtractProgramLogs extracts all "Program log:" messages.
func (p *LogParser) ExtractProgramLogs(logMessages []string) []string {
	var logs []string
	for _, log := range logMessages {
		if parsed := p.Parse(log); parsed.Type == LogTypeLog {
			logs = append(logs, parsed.Message)
		}
	}
	return logs
}

// Outcome is the result line of a transcript.
type Outcome struct {
	ProgramID   string
	Instruction string
	Success     bool
	Failure     string
}

// Summarize walks a transcript and reports the instruction name and the
// final success or failure of the outermost program.
func (p *LogParser) Summarize(logMessages []string) Outcome {
	var out Outcome
	for _, parsed := range p.ParseAll(logMessages) {
		switch parsed.Type {
		case LogTypeInvoke:
			if out.ProgramID == "" {
				out.ProgramID = parsed.ProgramID
			}
		case LogTypeLog:
			if out.Instruction == "" && strings.HasPrefix(parsed.Message, instructionPrefix) {
				out.Instruction = strings.TrimPrefix(parsed.Message, instructionPrefix)
			}
		case LogTypeSuccess:
			if parsed.ProgramID == out.ProgramID {
				out.Success = true
				out.Failure = ""
			}
		case LogTypeFailed:
			if parsed.ProgramID == out.ProgramID {
				out.Success = false
				out.Failure = strings.TrimPrefix(strings.TrimPrefix(parsed.RawLog, "Program "+parsed.ProgramID+" failed"), ": ")
			}
		}
	}
	return out
}
