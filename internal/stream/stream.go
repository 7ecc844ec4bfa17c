// Package stream converts chunked HTTP response bodies into incremental
// assistant text. Both decoders buffer partial lines across reads, skip
// records that fail to parse, and stop at their wire format's termination
// signal. On a read error the text accumulated so far is returned together
// with the error so the caller can still show partial output.
package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const ssePrefix = "data: "

// sseRecord is one server-sent event payload from the cloud aggregator.
type sseRecord struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// ndjsonRecord is one newline-delimited JSON object from the local daemon.
type ndjsonRecord struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// DecodeSSE reads a server-sent-events body and calls onFragment for each
// non-empty delta content. Records without the "data: " prefix and records
// whose payload is not valid JSON are skipped. Decoding stops at the
// "[DONE]" sentinel; bytes after it are never read.
func DecodeSSE(r io.Reader, onFragment func(string)) (string, error) {
	var response strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, ssePrefix)
		if payload == "[DONE]" {
			return response.String(), nil
		}

		var record sseRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			// Provider-side formatting noise is expected
			continue
		}
		if len(record.Choices) == 0 {
			continue
		}
		if fragment := record.Choices[0].Delta.Content; fragment != "" {
			onFragment(fragment)
			response.WriteString(fragment)
		}
	}

	return response.String(), scanner.Err()
}

// DecodeNDJSON reads a newline-delimited JSON body and calls onFragment
// for each non-empty message content. Malformed lines are skipped.
// Decoding stops when a record carries done=true.
func DecodeNDJSON(r io.Reader, onFragment func(string)) (string, error) {
	var response strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var record ndjsonRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			continue
		}
		if fragment := record.Message.Content; fragment != "" {
			onFragment(fragment)
			response.WriteString(fragment)
		}
		if record.Done {
			return response.String(), nil
		}
	}

	return response.String(), scanner.Err()
}
