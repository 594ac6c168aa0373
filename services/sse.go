package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrStreamEnded - 서버가 스트림을 정상 종료함
var ErrStreamEnded = errors.New("event stream ended")

// ErrEventTooLarge - maxEventSize를 넘는 이벤트 (버리고 계속 읽음)
var ErrEventTooLarge = errors.New("event too large")

const maxEventSize = 1 << 20

// SSESource reads a text/event-stream endpoint and delivers the data field of
// every event.
type SSESource struct {
	URL    string
	client *http.Client
}

// NewSSESource - 스트리밍이므로 전체 요청 타임아웃은 두지 않음
func NewSSESource(url string) *SSESource {
	return &SSESource{URL: url, client: &http.Client{}}
}

func (s *SSESource) Name() string { return "sse" }

func (s *SSESource) Stream(ctx context.Context, sink EventSink) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("SSE 연결 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SSE 연결 실패: status %d", resp.StatusCode)
	}

	sink.Connected()
	return readEvents(resp.Body, sink.Event, sink.Drop)
}

// readEvents parses the SSE framing. Multiple data lines of one event are
// joined with '\n'; comments and other fields are ignored. Each emitted
// payload is a new slice. An event larger than maxEventSize is skipped up to
// its terminating blank line and reported to drop; reading continues.
func readEvents(r io.Reader, emit func(payload []byte), drop func(err error)) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var data []byte
	hasData, skipping := false, false

	for {
		line, tooLong, err := readLine(br, maxEventSize)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrStreamEnded
			}
			return fmt.Errorf("SSE 읽기 실패: %w", err)
		}

		if len(line) == 0 && !tooLong {
			if hasData && !skipping {
				emit(data)
			}
			data, hasData, skipping = nil, false, false
			continue
		}
		if skipping {
			continue
		}
		if tooLong {
			skipping, data, hasData = true, nil, false
			drop(fmt.Errorf("%w: line exceeds %d bytes", ErrEventTooLarge, maxEventSize))
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, found := bytes.Cut(line, []byte(":"))
		if found && len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}
		if string(field) != "data" {
			continue
		}
		if len(data)+len(value)+1 > maxEventSize {
			skipping, data, hasData = true, nil, false
			drop(fmt.Errorf("%w: event exceeds %d bytes", ErrEventTooLarge, maxEventSize))
			continue
		}
		if hasData {
			data = append(data, '\n')
		}
		data = append(data, value...)
		hasData = true
	}
}

// readLine reads one line without its line ending. Past limit bytes the rest
// of the line is discarded and tooLong is set. A final line without a line
// ending is returned with io.EOF.
func readLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit+2 {
				line, tooLong = nil, true
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		if rerr != nil {
			return line, tooLong, rerr
		}
		break
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, tooLong, nil
}
