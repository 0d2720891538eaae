package ai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Stream is a finite, single-consumer sequence of text chunks. Recv returns
// chunks in arrival order and io.EOF once the model is done; the stream is
// not restartable. Close releases the underlying connection and is safe to
// call at any point, including mid-stream.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// sseStream reads server-sent events from a streaming generate call.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func (s *sseStream) Recv() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed keep-alive payloads rather than aborting the turn.
			continue
		}
		if text := chunk.text(); text != "" {
			return text, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *sseStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
